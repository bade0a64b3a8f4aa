package adapter

import (
	"context"
	"errors"
	"fmt"

	cartapp "github.com/dwikikusuma/farmgate/internal/cart/app"
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/farmgate/internal/catalog/app"
)

// CatalogItemResolver resolves cart items through the catalog fetcher.
type CatalogItemResolver struct {
	svc *catalogapp.Service
}

func NewCatalogItemResolver(svc *catalogapp.Service) *CatalogItemResolver {
	return &CatalogItemResolver{svc: svc}
}

func (r *CatalogItemResolver) Item(ctx context.Context, productID string) (cartdomain.Item, error) {
	p, err := r.svc.Product(ctx, productID)
	if errors.Is(err, catalogapp.ErrNotFound) {
		return cartdomain.Item{}, fmt.Errorf("%w: %s", cartapp.ErrUnknownProduct, productID)
	}
	if err != nil {
		return cartdomain.Item{}, err
	}

	return cartdomain.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Unit:      p.Unit,
		Price:     p.Price,
		ImageRefs: p.ImageRefs,
	}, nil
}
