package app

import (
	"context"

	"github.com/dwikikusuma/farmgate/internal/payment/domain"
)

// StatusQuerier asks the payment service for the current status of an
// attempt.
type StatusQuerier interface {
	Status(ctx context.Context, attemptID string) (domain.Status, error)
}

// PushSender triggers an STK push on the customer's phone.
type PushSender interface {
	Push(ctx context.Context, req domain.PushRequest) (domain.PushResult, error)
}
