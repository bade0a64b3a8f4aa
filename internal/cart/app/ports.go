package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dwikikusuma/farmgate/internal/cart/domain"
)

// ErrUnknownProduct is returned by an ItemResolver for ids the catalog does
// not know.
var ErrUnknownProduct = errors.New("unknown product")

// Store persists the cart lines under a key. Load returns no lines and no
// error for a key that was never saved.
type Store interface {
	Load(ctx context.Context, key string) ([]domain.Line, error)
	Save(ctx context.Context, key string, lines []domain.Line) error
}

// ItemResolver turns a product id into the item snapshot the ledger stores.
type ItemResolver interface {
	Item(ctx context.Context, productID string) (domain.Item, error)
}

// MemoryStore keeps lines in process. Used when no durable store is
// configured and by tests.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string][]domain.Line
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]domain.Line)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]domain.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneLines(m.data[key]), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, lines []domain.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = domain.CloneLines(lines)
	m.saves++
	return nil
}

// Saves counts Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
