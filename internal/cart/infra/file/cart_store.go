package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/pkg/localstore"
)

const documentVersion = 1

type cartDocument struct {
	Version int           `json:"version"`
	Lines   []domain.Line `json:"lines"`
}

// CartStore keeps the cart as a JSON document in the local state store.
type CartStore struct {
	docs *localstore.Store
}

func NewCartStore(docs *localstore.Store) *CartStore {
	return &CartStore{docs: docs}
}

func (s *CartStore) Load(ctx context.Context, key string) ([]domain.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc cartDocument
	err := s.docs.Get(key, &doc)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("cart document version %d is newer than supported %d", doc.Version, documentVersion)
	}
	return doc.Lines, nil
}

func (s *CartStore) Save(ctx context.Context, key string, lines []domain.Line) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if lines == nil {
		lines = []domain.Line{}
	}
	return s.docs.Put(key, cartDocument{Version: documentVersion, Lines: lines})
}
