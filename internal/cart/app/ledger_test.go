package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, price int64) domain.Item {
	return domain.Item{ProductID: id, Name: "Product " + id, Unit: "kg", Price: decimal.NewFromInt(price)}
}

func newLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	return NewLedger(append([]Option{WithLogger(logger.Discard())}, opts...)...)
}

func TestAddMergesSameProduct(t *testing.T) {
	l := newLedger(t)

	l.Add(item("p1", 50), 2)
	snap := l.Add(item("p1", 50), 3)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 5, snap.Lines[0].Quantity)
	assert.Equal(t, 5, snap.Totals.Items)
	assert.True(t, snap.Totals.Amount.Equal(decimal.NewFromInt(250)))
}

func TestAddKeepsLineIDStable(t *testing.T) {
	l := newLedger(t)

	first := l.Add(item("p1", 10), 1)
	second := l.Add(item("p1", 10), 1)
	third := l.SetQuantity(first.Lines[0].ID, 7)

	assert.Equal(t, first.Lines[0].ID, second.Lines[0].ID)
	assert.Equal(t, first.Lines[0].ID, third.Lines[0].ID)
}

func TestAddIgnoresNonPositiveQuantity(t *testing.T) {
	store := NewMemoryStore()
	l := newLedger(t, WithStore(store, "cart"))

	for _, q := range []int{0, -1} {
		snap := l.Add(item("p1", 10), q)
		assert.True(t, snap.Empty())
	}
	assert.Zero(t, store.Saves())
}

func TestAddSanitizesNegativePrice(t *testing.T) {
	l := newLedger(t)

	snap := l.Add(item("p1", -30), 2)

	require.Len(t, snap.Lines, 1)
	assert.True(t, snap.Lines[0].UnitPrice.IsZero())
	assert.Zero(t, snap.Totals.Items)
}

func TestSetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		wantLines int
		wantItems int
	}{
		{name: "replace", quantity: 4, wantLines: 1, wantItems: 4},
		{name: "zero removes", quantity: 0, wantLines: 0, wantItems: 0},
		{name: "negative removes", quantity: -2, wantLines: 0, wantItems: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := newLedger(t)
			id := l.Add(item("p1", 10), 2).Lines[0].ID

			snap := l.SetQuantity(id, tt.quantity)

			assert.Len(t, snap.Lines, tt.wantLines)
			assert.Equal(t, tt.wantItems, snap.Totals.Items)
		})
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	store := NewMemoryStore()
	l := newLedger(t, WithStore(store, "cart"))
	l.Add(item("p1", 10), 1)
	saves := store.Saves()

	snap := l.Remove("missing")

	assert.Len(t, snap.Lines, 1)
	assert.Equal(t, saves, store.Saves())
}

func TestClear(t *testing.T) {
	l := newLedger(t)
	l.Add(item("p1", 10), 1)
	l.Add(item("p2", 20), 2)

	snap := l.Clear()

	assert.True(t, snap.Empty())
	assert.Zero(t, snap.Totals.Items)
	assert.True(t, snap.Totals.Amount.IsZero())
}

func TestInvalidPricePruning(t *testing.T) {
	l := newLedger(t)
	l.Add(item("p1", 100), 2)
	l.Add(item("p2", 0), 5)

	before := l.Snapshot()
	require.Len(t, before.Lines, 2)
	assert.True(t, before.Totals.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, before.Totals.Items)

	after := l.Reconcile()
	require.Len(t, after.Lines, 1)
	assert.Equal(t, "p1", after.Lines[0].ProductID)
	assert.True(t, after.Totals.Amount.Equal(decimal.NewFromInt(200)))
}

func TestReconcileIdempotent(t *testing.T) {
	store := NewMemoryStore()
	l := newLedger(t, WithStore(store, "cart"))
	l.Add(item("p1", 100), 1)
	l.Add(item("p2", 0), 1)
	l.Add(item("p3", 25), 3)

	once := l.Reconcile()
	saves := store.Saves()
	twice := l.Reconcile()

	assertSameSnapshot(t, once, twice)
	assert.Equal(t, saves, store.Saves(), "second reconcile must not rewrite state")
}

func TestTotalsInvariantOverRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prices := []int64{0, 15, 40, 100, 250}

	for round := 0; round < 50; round++ {
		l := newLedger(t)
		for step := 0; step < 100; step++ {
			snap := l.Snapshot()
			switch op := rng.Intn(4); {
			case op == 0 || len(snap.Lines) == 0:
				p := rng.Intn(len(prices))
				l.Add(item(fmt.Sprintf("p%d", p), prices[p]), rng.Intn(5)-1)
			case op == 1:
				l.Remove(snap.Lines[rng.Intn(len(snap.Lines))].ID)
			case op == 2:
				l.SetQuantity(snap.Lines[rng.Intn(len(snap.Lines))].ID, rng.Intn(6)-1)
			default:
				l.Reconcile()
			}

			got := l.Snapshot()
			wantItems := 0
			wantAmount := decimal.Zero
			for _, ln := range got.Lines {
				require.Positive(t, ln.Quantity)
				if ln.UnitPrice.IsPositive() {
					wantItems += ln.Quantity
					wantAmount = wantAmount.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
				}
			}
			require.Equal(t, wantItems, got.Totals.Items)
			require.True(t, wantAmount.Equal(got.Totals.Amount), "amount %s != %s", got.Totals.Amount, wantAmount)

			seen := map[string]bool{}
			for _, ln := range got.Lines {
				require.False(t, seen[ln.ProductID], "duplicate line for %s", ln.ProductID)
				seen[ln.ProductID] = true
			}
		}
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	l := newLedger(t, WithStore(store, "cart"))
	l.Add(item("p1", 100), 2)
	l.Add(item("p2", 30), 1)

	restored := newLedger(t, WithStore(store, "cart"))
	snap := restored.Restore(ctx)

	assertSameSnapshot(t, l.Snapshot(), snap)
}

func assertSameSnapshot(t *testing.T, want, got domain.Snapshot) {
	t.Helper()
	require.Len(t, got.Lines, len(want.Lines))
	for i := range want.Lines {
		assert.Equal(t, want.Lines[i].ID, got.Lines[i].ID)
		assert.Equal(t, want.Lines[i].ProductID, got.Lines[i].ProductID)
		assert.Equal(t, want.Lines[i].Quantity, got.Lines[i].Quantity)
		assert.Equal(t, want.Lines[i].Name, got.Lines[i].Name)
		assert.True(t, want.Lines[i].UnitPrice.Equal(got.Lines[i].UnitPrice))
	}
	assert.Equal(t, want.Totals.Items, got.Totals.Items)
	assert.True(t, want.Totals.Amount.Equal(got.Totals.Amount))
}

type failingStore struct{ loadErr, saveErr error }

func (f failingStore) Load(context.Context, string) ([]domain.Line, error) { return nil, f.loadErr }
func (f failingStore) Save(context.Context, string, []domain.Line) error  { return f.saveErr }

func TestStoreFailuresNeverSurface(t *testing.T) {
	boom := errors.New("disk full")
	l := newLedger(t, WithStore(failingStore{loadErr: boom, saveErr: boom}, "cart"))

	assert.True(t, l.Restore(context.Background()).Empty())

	snap := l.Add(item("p1", 10), 1)
	assert.Len(t, snap.Lines, 1)
}

func TestRestoreDropsCorruptLines(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "cart", []domain.Line{
		{ID: "a", ProductID: "p1", UnitPrice: decimal.NewFromInt(10), Quantity: 1},
		{ID: "b", ProductID: "p2", UnitPrice: decimal.NewFromInt(10), Quantity: 0},
		{ID: "c", ProductID: "", UnitPrice: decimal.NewFromInt(10), Quantity: 3},
	}))

	snap := newLedger(t, WithStore(store, "cart")).Restore(context.Background())

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "a", snap.Lines[0].ID)
}
