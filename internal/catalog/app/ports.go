package app

import (
	"context"

	"github.com/dwikikusuma/farmgate/internal/catalog/domain"
)

// RemoteListing is one page from the catalog service. Pagination is nil when
// the service did not send any.
type RemoteListing struct {
	Products   []domain.Product
	Pagination *domain.Pagination
}

// RemoteSource fetches products from the catalog service. Any error counts as
// a failure for the breaker.
type RemoteSource interface {
	List(ctx context.Context, f domain.Filter) (RemoteListing, error)
}

// LocalSource is the bundled dataset served when the remote source is
// unavailable.
type LocalSource interface {
	Products() []domain.Product
}
