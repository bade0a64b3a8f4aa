package remote

import (
	"context"
	"encoding/json"

	"github.com/dwikikusuma/farmgate/internal/order/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/dwikikusuma/farmgate/pkg/money"
)

type itemPayload struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Unit      string      `json:"unit,omitempty"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	Subtotal  json.Number `json:"subtotal"`
}

type customerPayload struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Town         string `json:"town"`
	County       string `json:"county,omitempty"`
	Instructions string `json:"deliveryInstructions,omitempty"`
}

// CreateOrderPayload is the POST /orders body.
type CreateOrderPayload struct {
	Items            []itemPayload   `json:"items"`
	CustomerInfo     customerPayload `json:"customerInfo"`
	PaymentMethod    string          `json:"paymentMethod"`
	MobileMoneyPhone string          `json:"mobileMoneyPhone,omitempty"`
	Subtotal         json.Number     `json:"subtotal"`
	DeliveryFee      json.Number     `json:"deliveryFee"`
	TotalAmount      json.Number     `json:"totalAmount"`
}

type createOrderResponse struct {
	OrderID     string          `json:"orderId"`
	ID          string          `json:"_id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	TotalAmount json.RawMessage `json:"totalAmount"`
}

type OrderClient struct {
	http *httpclient.Client
}

func NewOrderClient(c *httpclient.Client) *OrderClient {
	return &OrderClient{http: c}
}

func (c *OrderClient) CreateOrder(ctx context.Context, o domain.Order) (domain.OrderResult, error) {
	var resp createOrderResponse
	if err := c.http.Post(ctx, "/orders", ToPayload(o), &resp); err != nil {
		return domain.OrderResult{}, err
	}

	id := resp.OrderID
	if id == "" {
		id = resp.ID
	}
	return domain.OrderResult{
		OrderID:     id,
		OrderNumber: resp.OrderNumber,
		Status:      resp.Status,
		TotalAmount: money.FromJSON(resp.TotalAmount),
	}, nil
}

func ToPayload(o domain.Order) CreateOrderPayload {
	items := make([]itemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			Unit:      it.Unit,
			Price:     money.Number(it.UnitPrice),
			Quantity:  it.Quantity,
			Subtotal:  money.Number(it.LineTotalAmount),
		})
	}

	return CreateOrderPayload{
		Items: items,
		CustomerInfo: customerPayload{
			Name:         o.Customer.Name,
			Email:        o.Customer.Email,
			Phone:        o.Customer.Phone,
			Address:      o.Delivery.Address,
			Town:         o.Delivery.Town,
			County:       o.Delivery.County,
			Instructions: o.Delivery.Instructions,
		},
		PaymentMethod:    string(o.PaymentMethod),
		MobileMoneyPhone: o.MobileMoneyPhone,
		Subtotal:         money.Number(o.SubTotalAmount),
		DeliveryFee:      money.Number(o.DeliveryFee),
		TotalAmount:      money.Number(o.TotalAmount),
	}
}
