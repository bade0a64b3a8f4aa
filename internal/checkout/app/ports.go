package app

import (
	"context"

	accountdomain "github.com/dwikikusuma/farmgate/internal/account/domain"
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
	orderdomain "github.com/dwikikusuma/farmgate/internal/order/domain"
	paymentapp "github.com/dwikikusuma/farmgate/internal/payment/app"
	paymentdomain "github.com/dwikikusuma/farmgate/internal/payment/domain"
)

// CartReader is the slice of the cart ledger checkout needs.
type CartReader interface {
	// Current returns the reconciled cart.
	Current(ctx context.Context) cartdomain.Snapshot
	Clear(ctx context.Context)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.OrderResult, error)
}

type PaymentInitiator interface {
	Initiate(ctx context.Context, req paymentdomain.PushRequest) (paymentdomain.Attempt, error)
}

type PaymentAwaiter interface {
	Await(ctx context.Context, attemptID string, opts ...paymentapp.AwaitOption) (paymentdomain.Outcome, error)
}

type AccountRegistrar interface {
	Register(ctx context.Context, req accountdomain.RegisterRequest) (accountdomain.User, error)
}
