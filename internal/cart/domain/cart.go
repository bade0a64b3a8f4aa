package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Item is what the catalog hands the cart when a product is added.
type Item struct {
	ProductID string
	Name      string
	Unit      string
	Price     decimal.Decimal
	ImageRefs []string
}

// Line is one product in the cart. Name, Unit and ImageRefs are a snapshot
// taken when the product was first added.
type Line struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	ImageRefs []string        `json:"imageRefs,omitempty"`
}

// Valid reports whether the line counts towards totals.
func (l Line) Valid() bool {
	return l.UnitPrice.IsPositive() && l.Quantity > 0
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Items  int
	Amount decimal.Decimal
}

// Snapshot is a read-only copy of the cart. Callers may keep it; it does not
// alias ledger state.
type Snapshot struct {
	Lines  []Line
	Totals Totals
}

func (s Snapshot) Empty() bool { return len(s.Lines) == 0 }

// ComputeTotals sums quantity and amount over valid lines only.
func ComputeTotals(lines []Line) Totals {
	t := Totals{Amount: decimal.Zero}
	for _, l := range lines {
		if !l.Valid() {
			continue
		}
		t.Items += l.Quantity
		t.Amount = t.Amount.Add(l.Subtotal())
	}
	return t
}

// CloneLines deep-copies lines including image refs.
func CloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.ImageRefs = slices.Clone(l.ImageRefs)
		out[i] = l
	}
	return out
}

func NewSnapshot(lines []Line) Snapshot {
	return Snapshot{Lines: CloneLines(lines), Totals: ComputeTotals(lines)}
}
