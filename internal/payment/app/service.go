// Package app initiates mobile-money payments and waits for them to settle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dwikikusuma/farmgate/internal/payment/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
)

var (
	ErrInvalidPhone  = domain.ErrInvalidPhone
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrMissingOrder  = errors.New("payment requires an order id")
	// ErrPushRejected is returned when the payment service answers a push
	// with success=false.
	ErrPushRejected = errors.New("payment push rejected")
)

// Service starts STK pushes. Confirmation is the Poller's job.
type Service struct {
	push PushSender
	log  *slog.Logger
	now  func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = logger.OrDefault(l) }
}

func NewService(push PushSender, opts ...ServiceOption) *Service {
	s := &Service{push: push, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate validates req, normalizes the phone number and sends the push.
// The returned attempt is PENDING; its ID is what the Poller queries.
func (s *Service) Initiate(ctx context.Context, req domain.PushRequest) (domain.Attempt, error) {
	phone, err := domain.NormalizePhone(req.Phone)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Attempt{}, ErrInvalidAmount
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return domain.Attempt{}, ErrMissingOrder
	}

	req.Phone = phone
	req.Amount = req.Amount.Round(0)
	if req.AccountReference == "" {
		req.AccountReference = req.OrderID
	}
	if req.TransactionDesc == "" {
		req.TransactionDesc = "Payment for order " + req.OrderID
	}

	res, err := s.push.Push(ctx, req)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("stk push: %w", err)
	}
	if !res.Success || res.TransactionID == "" {
		msg := res.Message
		if msg == "" {
			msg = "no transaction id returned"
		}
		return domain.Attempt{}, fmt.Errorf("%w: %s", ErrPushRejected, msg)
	}

	s.log.Info("stk push sent",
		slog.String("order_id", req.OrderID),
		slog.String("transaction_id", res.TransactionID),
	)
	return domain.Attempt{
		ID:        res.TransactionID,
		OrderID:   req.OrderID,
		Phone:     phone,
		Amount:    req.Amount,
		Status:    domain.StatusPending,
		UpdatedAt: s.now(),
	}, nil
}
