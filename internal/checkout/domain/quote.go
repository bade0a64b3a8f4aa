package domain

import (
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/shopspring/decimal"
)

type QuoteLine struct {
	LineID    string
	ProductID string
	Name      string
	Unit      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Quote struct {
	Lines       []QuoteLine
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

func (q Quote) Clone() Quote {
	q.Lines = append([]QuoteLine(nil), q.Lines...)
	return q
}

// FeePolicy is a flat delivery fee waived above a subtotal.
type FeePolicy struct {
	Flat     decimal.Decimal
	FreeOver decimal.Decimal
}

func DefaultFeePolicy() FeePolicy {
	return FeePolicy{Flat: decimal.NewFromInt(300), FreeOver: decimal.NewFromInt(2000)}
}

// Fee is zero when subtotal is strictly greater than FreeOver.
func (p FeePolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeOver) {
		return decimal.Zero
	}
	return p.Flat
}

// NewQuote prices a cart snapshot. Lines without a positive price are left
// out, matching the cart totals.
func NewQuote(snap cartdomain.Snapshot, fees FeePolicy) Quote {
	lines := make([]QuoteLine, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		if !l.Valid() {
			continue
		}
		lines = append(lines, QuoteLine{
			LineID:    l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Unit:      l.Unit,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.Subtotal(),
		})
	}

	fee := fees.Fee(snap.Totals.Amount)
	return Quote{
		Lines:       lines,
		Subtotal:    snap.Totals.Amount,
		DeliveryFee: fee,
		Total:       snap.Totals.Amount.Add(fee),
	}
}
