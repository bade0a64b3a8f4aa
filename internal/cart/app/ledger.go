package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
	"github.com/dwikikusuma/farmgate/pkg/money"
	"github.com/google/uuid"
)

const (
	DefaultKey     = "cart"
	persistTimeout = 5 * time.Second
)

// Ledger owns the cart lines. Every mutation goes through its methods, which
// recompute totals and write the new line set to the Store. The ledger never
// returns an error: persistence failures are logged and the in-memory state
// stays authoritative.
type Ledger struct {
	mu    sync.Mutex
	lines []domain.Line

	store   Store
	key     string
	log     *slog.Logger
	metrics *metrics.Metrics
	newID   func() string
}

type Option func(*Ledger)

// WithStore persists lines under key. Without it the ledger lives in memory.
func WithStore(s Store, key string) Option {
	return func(l *Ledger) {
		l.store = s
		if key != "" {
			l.key = key
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = logger.OrDefault(log) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithIDGenerator replaces the uuid line id generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		key:   DefaultKey,
		log:   slog.Default(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Restore replaces the in-memory lines with the persisted ones. A load
// failure leaves the cart empty.
func (l *Ledger) Restore(ctx context.Context) domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store == nil {
		return l.snapshotLocked()
	}

	lines, err := l.store.Load(ctx, l.key)
	if err != nil {
		l.log.Warn("cart restore failed, starting empty", slog.String("key", l.key), slog.Any("err", err))
		lines = nil
	}

	restored := make([]domain.Line, 0, len(lines))
	for _, ln := range lines {
		if ln.Quantity <= 0 || ln.ProductID == "" {
			continue
		}
		if ln.ID == "" {
			ln.ID = l.newID()
		}
		ln.UnitPrice = money.Sanitize(ln.UnitPrice)
		restored = append(restored, ln)
	}
	l.lines = restored

	l.log.Info("cart restored", slog.String("key", l.key), slog.Int("lines", len(l.lines)))
	l.metrics.CartItems(domain.ComputeTotals(l.lines).Items)
	return l.snapshotLocked()
}

// Add puts quantity units of item in the cart, merging into the existing
// line for the same product. Non-positive quantities are ignored.
func (l *Ledger) Add(item domain.Item, quantity int) domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity <= 0 || item.ProductID == "" {
		l.log.Debug("cart add ignored",
			slog.String("product_id", item.ProductID),
			slog.Int("quantity", quantity),
		)
		return l.snapshotLocked()
	}

	if i := l.indexByProduct(item.ProductID); i >= 0 {
		l.lines[i].Quantity += quantity
	} else {
		l.lines = append(l.lines, domain.Line{
			ID:        l.newID(),
			ProductID: item.ProductID,
			UnitPrice: money.Sanitize(item.Price),
			Quantity:  quantity,
			Name:      item.Name,
			Unit:      item.Unit,
			ImageRefs: append([]string(nil), item.ImageRefs...),
		})
	}

	l.changedLocked("add")
	return l.snapshotLocked()
}

// Remove drops the line. Unknown ids are ignored.
func (l *Ledger) Remove(lineID string) domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexByID(lineID); i >= 0 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
		l.changedLocked("remove")
	}
	return l.snapshotLocked()
}

// SetQuantity replaces the line quantity. A quantity of zero or less removes
// the line.
func (l *Ledger) SetQuantity(lineID string, quantity int) domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexByID(lineID)
	if i < 0 {
		return l.snapshotLocked()
	}
	if quantity <= 0 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
		l.changedLocked("remove")
		return l.snapshotLocked()
	}
	if l.lines[i].Quantity != quantity {
		l.lines[i].Quantity = quantity
		l.changedLocked("set_quantity")
	}
	return l.snapshotLocked()
}

func (l *Ledger) Clear() domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
	l.changedLocked("clear")
	return l.snapshotLocked()
}

// Reconcile prunes lines without a positive unit price. State is only
// rewritten when something was pruned.
func (l *Ledger) Reconcile() domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.lines[:0:0]
	for _, ln := range l.lines {
		if ln.Valid() {
			kept = append(kept, ln)
		}
	}
	if pruned := len(l.lines) - len(kept); pruned > 0 {
		l.lines = kept
		l.log.Info("cart pruned invalid lines", slog.Int("pruned", pruned))
		l.changedLocked("reconcile")
	}
	return l.snapshotLocked()
}

func (l *Ledger) Snapshot() domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) Totals() domain.Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.ComputeTotals(l.lines)
}

func (l *Ledger) snapshotLocked() domain.Snapshot {
	return domain.NewSnapshot(l.lines)
}

func (l *Ledger) changedLocked(op string) {
	l.metrics.CartItems(domain.ComputeTotals(l.lines).Items)

	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := l.store.Save(ctx, l.key, domain.CloneLines(l.lines)); err != nil {
		l.log.Error("cart persist failed",
			slog.String("op", op),
			slog.String("key", l.key),
			slog.Any("err", err),
		)
	}
}

func (l *Ledger) indexByProduct(productID string) int {
	for i, ln := range l.lines {
		if ln.ProductID == productID {
			return i
		}
	}
	return -1
}

func (l *Ledger) indexByID(lineID string) int {
	for i, ln := range l.lines {
		if ln.ID == lineID {
			return i
		}
	}
	return -1
}
