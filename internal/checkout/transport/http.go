package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/farmgate/internal/checkout/app"
	"github.com/dwikikusuma/farmgate/internal/checkout/domain"
	orderapp "github.com/dwikikusuma/farmgate/internal/order/app"
	orderdomain "github.com/dwikikusuma/farmgate/internal/order/domain"
	paymentapp "github.com/dwikikusuma/farmgate/internal/payment/app"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/dwikikusuma/farmgate/pkg/httpjson"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/money"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: logger.OrDefault(log)}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout", h.begin)
	mux.HandleFunc("GET /api/checkout", h.current)
	mux.HandleFunc("PUT /api/checkout/details", h.update)
	mux.HandleFunc("POST /api/checkout/next", h.next)
	mux.HandleFunc("POST /api/checkout/previous", h.previous)
	mux.HandleFunc("POST /api/checkout/submit", h.submit)
	mux.HandleFunc("POST /api/checkout/payment/await", h.awaitPayment)
}

type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type DeliveryRequest struct {
	Address      string `json:"address"`
	Town         string `json:"town"`
	County       string `json:"county"`
	Instructions string `json:"instructions"`
}

type DetailsRequest struct {
	Customer         CustomerRequest `json:"customer"`
	Delivery         DeliveryRequest `json:"delivery"`
	PaymentMethod    string          `json:"paymentMethod"`
	MobileMoneyPhone string          `json:"mobileMoneyPhone"`
	CreateAccount    bool            `json:"createAccount"`
	Password         string          `json:"password"`
}

func (r DetailsRequest) toDomain() domain.Details {
	return domain.Details{
		Customer: orderdomain.Customer{Name: r.Customer.Name, Email: r.Customer.Email, Phone: r.Customer.Phone},
		Delivery: orderdomain.Delivery{
			Address:      r.Delivery.Address,
			Town:         r.Delivery.Town,
			County:       r.Delivery.County,
			Instructions: r.Delivery.Instructions,
		},
		PaymentMethod:    orderdomain.PaymentMethod(r.PaymentMethod),
		MobileMoneyPhone: r.MobileMoneyPhone,
		CreateAccount:    r.CreateAccount,
		Password:         r.Password,
	}
}

type awaitRequest struct {
	MaxAttempts int `json:"maxAttempts"`
	IntervalMs  int `json:"intervalMs"`
}

type QuoteLineResponse struct {
	LineID    string      `json:"lineId"`
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Unit      string      `json:"unit,omitempty"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
	LineTotal json.Number `json:"lineTotal"`
}

type QuoteResponse struct {
	Lines       []QuoteLineResponse `json:"lines"`
	Subtotal    json.Number         `json:"subtotal"`
	DeliveryFee json.Number         `json:"deliveryFee"`
	Total       json.Number         `json:"total"`
}

type OrderResponse struct {
	OrderID     string      `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	TotalAmount json.Number `json:"totalAmount"`
}

type PaymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DetailsResponse echoes the details without the password.
type DetailsResponse struct {
	Customer         CustomerRequest `json:"customer"`
	Delivery         DeliveryRequest `json:"delivery"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	MobileMoneyPhone string          `json:"mobileMoneyPhone,omitempty"`
	CreateAccount    bool            `json:"createAccount"`
}

type SessionResponse struct {
	ID        string           `json:"id"`
	Step      string           `json:"step"`
	Details   DetailsResponse  `json:"details"`
	Quote     QuoteResponse    `json:"quote"`
	Order     *OrderResponse   `json:"order,omitempty"`
	Payment   *PaymentResponse `json:"payment,omitempty"`
	AccountID string           `json:"accountId,omitempty"`
	Warnings  []string         `json:"warnings"`
	StartedAt time.Time        `json:"startedAt"`
}

type OutcomeResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Begin(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusCreated, ToResponse(s))
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	s, ok := h.svc.Current()
	if !ok {
		h.writeErr(w, app.ErrNoSession)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ToResponse(s))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	h.respond(w, func() (domain.Session, error) { return h.svc.Update(req.toDomain()) })
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (domain.Session, error) { return h.svc.Next(r.Context()) })
}

func (h *Handler) previous(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.svc.Previous)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (domain.Session, error) { return h.svc.Submit(r.Context()) })
}

// awaitPayment blocks until the payment settles. A client that disconnects
// cancels the wait.
func (h *Handler) awaitPayment(w http.ResponseWriter, r *http.Request) {
	var req awaitRequest
	if r.ContentLength > 0 {
		if err := httpjson.Decode(r, &req); err != nil {
			h.writeErr(w, err)
			return
		}
	}

	var opts []paymentapp.AwaitOption
	if req.MaxAttempts > 0 {
		opts = append(opts, paymentapp.MaxAttempts(req.MaxAttempts))
	}
	if req.IntervalMs > 0 {
		opts = append(opts, paymentapp.Interval(time.Duration(req.IntervalMs)*time.Millisecond))
	}

	out, err := h.svc.AwaitPayment(r.Context(), opts...)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, OutcomeResponse{Success: out.Success, Status: string(out.Status)})
}

func (h *Handler) respond(w http.ResponseWriter, fn func() (domain.Session, error)) {
	s, err := fn()
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ToResponse(s))
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	if fields := domain.FieldErrors(err); len(fields) > 0 {
		body := httpjson.ErrorBody{Error: httpjson.ErrorPayload{
			Code:    "INVALID_ARGUMENT",
			Message: fields[0].Message,
		}}
		for _, f := range fields {
			body.Error.Fields = append(body.Error.Fields, httpjson.FieldError{Field: f.Field, Message: f.Message})
		}
		httpjson.WriteJSON(w, http.StatusBadRequest, body)
		return
	}

	mapped := mapErr(err)
	if status.Code(mapped) == codes.Internal {
		h.log.Error("checkout request failed", slog.Any("err", err))
	}
	if errors.Is(err, app.ErrEmptyCart) {
		httpjson.WriteErrorRedirect(w, mapped, app.RedirectCart)
		return
	}
	httpjson.WriteError(w, mapped)
}

// ToResponse renders a session for the UI.
func ToResponse(s domain.Session) SessionResponse {
	lines := make([]QuoteLineResponse, 0, len(s.Quote.Lines))
	for _, l := range s.Quote.Lines {
		lines = append(lines, QuoteLineResponse{
			LineID:    l.LineID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Unit:      l.Unit,
			Quantity:  l.Quantity,
			UnitPrice: money.Number(l.UnitPrice),
			LineTotal: money.Number(l.LineTotal),
		})
	}

	d := s.Details
	out := SessionResponse{
		ID:   s.ID,
		Step: string(s.Step),
		Details: DetailsResponse{
			Customer: CustomerRequest{Name: d.Customer.Name, Email: d.Customer.Email, Phone: d.Customer.Phone},
			Delivery: DeliveryRequest{
				Address:      d.Delivery.Address,
				Town:         d.Delivery.Town,
				County:       d.Delivery.County,
				Instructions: d.Delivery.Instructions,
			},
			PaymentMethod:    string(d.PaymentMethod),
			MobileMoneyPhone: d.MobileMoneyPhone,
			CreateAccount:    d.CreateAccount,
		},
		Quote: QuoteResponse{
			Lines:       lines,
			Subtotal:    money.Number(s.Quote.Subtotal),
			DeliveryFee: money.Number(s.Quote.DeliveryFee),
			Total:       money.Number(s.Quote.Total),
		},
		AccountID: s.Account,
		Warnings:  s.Warnings,
		StartedAt: s.StartedAt,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if s.Order != nil {
		out.Order = &OrderResponse{
			OrderID:     s.Order.OrderID,
			OrderNumber: s.Order.OrderNumber,
			TotalAmount: money.Number(s.Order.TotalAmount),
		}
	}
	if s.Payment != nil {
		out.Payment = &PaymentResponse{ID: s.Payment.ID, Status: string(s.Payment.Status)}
	}
	return out
}

func mapErr(err error) error {
	var apiErr *httpclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return status.Error(status.Code(apiErr), apiErr.Message)
	case errors.Is(err, httpjson.ErrInvalidJSON):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrEmptyCart):
		return status.Error(codes.FailedPrecondition, "your cart is empty")
	case errors.Is(err, app.ErrUnpricedItems):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, app.ErrNoSession):
		return status.Error(codes.NotFound, "no checkout in progress")
	case errors.Is(err, app.ErrInvalidStep), errors.Is(err, app.ErrNoPaymentAttempt):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, app.ErrSubmissionInFlight):
		return status.Error(codes.Aborted, "order submission already in progress")
	case errors.Is(err, app.ErrPaymentAwaitInFlight):
		return status.Error(codes.Aborted, "payment confirmation already in progress")
	case errors.Is(err, app.ErrAlreadySubmitted):
		return status.Error(codes.AlreadyExists, "order already submitted")
	case errors.Is(err, orderapp.ErrNoItems), errors.Is(err, orderapp.ErrInvalidOrder):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	return status.Error(codes.Internal, "internal error")
}
