package remote

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/dwikikusuma/farmgate/internal/payment/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/dwikikusuma/farmgate/pkg/money"
)

type pushPayload struct {
	Phone            string      `json:"phone"`
	Amount           json.Number `json:"amount"`
	OrderID          string      `json:"orderId"`
	AccountReference string      `json:"accountReference"`
	TransactionDesc  string      `json:"transactionDesc"`
}

type pushResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`

	// Some deployments answer with the raw Daraja field name.
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// PaymentClient talks to the backend's mobile-money endpoints.
type PaymentClient struct {
	http *httpclient.Client
}

func NewPaymentClient(c *httpclient.Client) *PaymentClient {
	return &PaymentClient{http: c}
}

func (c *PaymentClient) Push(ctx context.Context, req domain.PushRequest) (domain.PushResult, error) {
	var resp pushResponse
	err := c.http.Post(ctx, "/payments/stk-push", pushPayload{
		Phone:            req.Phone,
		Amount:           money.Number(req.Amount),
		OrderID:          req.OrderID,
		AccountReference: req.AccountReference,
		TransactionDesc:  req.TransactionDesc,
	}, &resp)
	if err != nil {
		return domain.PushResult{}, err
	}

	id := resp.TransactionID
	if id == "" {
		id = resp.CheckoutRequestID
	}
	return domain.PushResult{Success: resp.Success, TransactionID: id, Message: resp.Message}, nil
}

func (c *PaymentClient) Status(ctx context.Context, attemptID string) (domain.Status, error) {
	var resp statusResponse
	if err := c.http.Get(ctx, "/payments/status/"+url.PathEscape(attemptID), nil, &resp); err != nil {
		return "", err
	}
	return domain.ParseStatus(resp.Status), nil
}
