package app

import (
	"context"

	"github.com/dwikikusuma/farmgate/internal/order/domain"
)

// OrderGateway submits an assembled order to the order service.
type OrderGateway interface {
	CreateOrder(ctx context.Context, order domain.Order) (domain.OrderResult, error)
}
