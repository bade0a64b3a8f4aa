package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/farmgate/internal/catalog/app"
	"github.com/dwikikusuma/farmgate/internal/catalog/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
)

var ErrMissingProducts = errors.New("response has no products field")

// ListResponse is the catalog service's GET /products body.
type ListResponse struct {
	Products   *[]domain.RawProduct `json:"products"`
	Pagination *domain.Pagination   `json:"pagination,omitempty"`
}

type ProductClient struct {
	http *httpclient.Client
}

func NewProductClient(c *httpclient.Client) *ProductClient {
	return &ProductClient{http: c}
}

func (c *ProductClient) List(ctx context.Context, f domain.Filter) (app.RemoteListing, error) {
	var resp ListResponse
	if err := c.http.Get(ctx, "/products", f.Query(), &resp); err != nil {
		return app.RemoteListing{}, fmt.Errorf("list products: %w", err)
	}
	if resp.Products == nil {
		return app.RemoteListing{}, fmt.Errorf("list products: %w", ErrMissingProducts)
	}
	return app.RemoteListing{
		Products:   domain.NormalizeAll(*resp.Products),
		Pagination: resp.Pagination,
	}, nil
}
