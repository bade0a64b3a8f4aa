// Package seed bundles the local fallback catalog.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dwikikusuma/farmgate/internal/catalog/domain"
)

//go:embed products.json
var productsJSON []byte

var (
	once     sync.Once
	products []domain.Product
	loadErr  error
)

func load() {
	var raw []domain.RawProduct
	if err := json.Unmarshal(productsJSON, &raw); err != nil {
		loadErr = fmt.Errorf("decode seed catalog: %w", err)
		return
	}
	products = domain.NormalizeAll(raw)
}

// Catalog serves the bundled dataset. The zero value is ready to use.
type Catalog struct{}

// Products returns a fresh copy of the dataset on every call.
func (Catalog) Products() []domain.Product {
	once.Do(load)
	if loadErr != nil {
		return []domain.Product{}
	}
	out := make([]domain.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}

// Err reports whether the embedded dataset failed to decode.
func Err() error {
	once.Do(load)
	return loadErr
}
