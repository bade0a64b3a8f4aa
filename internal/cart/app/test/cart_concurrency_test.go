package app_test

import (
	"context"
	"testing"

	"github.com/dwikikusuma/farmgate/internal/cart/app"
	"github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func newTestLedger(t *testing.T) (*app.Ledger, *app.MemoryStore) {
	t.Helper()
	store := app.NewMemoryStore()
	l := app.NewLedger(
		app.WithStore(store, "cart"),
		app.WithLogger(logger.Discard()),
	)
	return l, store
}

func TestCart_ConcurrentAddIncrement(t *testing.T) {
	l, store := newTestLedger(t)
	productID := uuid.NewString()
	it := domain.Item{ProductID: productID, Name: "Sukuma wiki", Price: decimal.NewFromInt(30)}

	const N = 100
	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < N; i++ {
		g.Go(func() error {
			l.Add(it, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Add failed: %v", err)
	}

	snap := l.Snapshot()
	if len(snap.Lines) != 1 {
		t.Fatalf("expected exactly 1 line, got %d", len(snap.Lines))
	}
	if snap.Lines[0].Quantity != N {
		t.Fatalf("expected quantity=%d, got=%d", N, snap.Lines[0].Quantity)
	}

	// The last write must reflect the final state.
	restored := app.NewLedger(app.WithStore(store, "cart"), app.WithLogger(logger.Discard()))
	if got := restored.Restore(context.Background()).Totals.Items; got != N {
		t.Fatalf("expected persisted quantity=%d, got=%d", N, got)
	}
}

func TestCart_ConcurrentMixedOpsKeepTotals(t *testing.T) {
	l, _ := newTestLedger(t)

	products := make([]domain.Item, 8)
	for i := range products {
		products[i] = domain.Item{ProductID: uuid.NewString(), Price: decimal.NewFromInt(int64(10 * (i + 1)))}
	}

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 200; i++ {
		g.Go(func() error {
			p := products[i%len(products)]
			snap := l.Add(p, 2)
			for _, ln := range snap.Lines {
				if ln.ProductID == p.ProductID && i%3 == 0 {
					l.SetQuantity(ln.ID, 1)
				}
			}
			if i%50 == 0 {
				l.Reconcile()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent ops failed: %v", err)
	}

	snap := l.Snapshot()
	want := domain.ComputeTotals(snap.Lines)
	if snap.Totals.Items != want.Items || !snap.Totals.Amount.Equal(want.Amount) {
		t.Fatalf("totals drifted: got %+v want %+v", snap.Totals, want)
	}
	if len(snap.Lines) != len(products) {
		t.Fatalf("expected %d lines, got %d", len(products), len(snap.Lines))
	}
}
