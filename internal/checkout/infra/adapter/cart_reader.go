package adapter

import (
	"context"

	cartapp "github.com/dwikikusuma/farmgate/internal/cart/app"
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
)

// LedgerReader exposes the cart ledger to checkout.
type LedgerReader struct {
	ledger *cartapp.Ledger
}

func NewLedgerReader(ledger *cartapp.Ledger) *LedgerReader {
	return &LedgerReader{ledger: ledger}
}

// Current returns the cart as the customer left it. Unpriced lines are kept
// so checkout can refuse them and send the customer back to the cart, whose
// view prunes them.
func (r *LedgerReader) Current(_ context.Context) cartdomain.Snapshot {
	return r.ledger.Snapshot()
}

func (r *LedgerReader) Clear(_ context.Context) {
	r.ledger.Clear()
}
