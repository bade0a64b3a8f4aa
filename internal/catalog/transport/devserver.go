package transport

import (
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/dwikikusuma/farmgate/internal/catalog/app"
	"github.com/dwikikusuma/farmgate/internal/catalog/domain"
	"github.com/dwikikusuma/farmgate/internal/catalog/infra/remote"
	"github.com/dwikikusuma/farmgate/pkg/httpjson"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DevServer answers GET /products the way the catalog service does, from a
// local dataset. FailureRate in [0,1] makes a share of requests fail with 503
// so the fallback path can be exercised by hand.
type DevServer struct {
	source      app.LocalSource
	failureRate float64
	roll        func() float64
	log         *slog.Logger
}

func NewDevServer(source app.LocalSource, failureRate float64, log *slog.Logger) *DevServer {
	return &DevServer{
		source:      source,
		failureRate: failureRate,
		roll:        rand.Float64,
		log:         logger.OrDefault(log),
	}
}

func (d *DevServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", d.products)
	mux.HandleFunc("GET /api/products", d.products)
}

func (d *DevServer) products(w http.ResponseWriter, r *http.Request) {
	if d.failureRate > 0 && d.roll() < d.failureRate {
		d.log.Info("injected catalog failure", slog.String("query", r.URL.RawQuery))
		httpjson.WriteError(w, status.Error(codes.Unavailable, "catalog temporarily unavailable"))
		return
	}

	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		httpjson.WriteError(w, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	if f.InvertedRange() {
		httpjson.WriteError(w, status.Error(codes.InvalidArgument, "minPrice is above maxPrice"))
		return
	}
	f = f.Normalized()

	page, pg := domain.Paginate(domain.Apply(d.source.Products(), f), f.Page, f.Limit)
	raw := make([]domain.RawProduct, 0, len(page))
	for _, p := range page {
		raw = append(raw, domain.ToRaw(p))
	}
	httpjson.WriteJSON(w, http.StatusOK, remote.ListResponse{Products: &raw, Pagination: &pg})
}
