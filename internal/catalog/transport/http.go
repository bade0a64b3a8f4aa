package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dwikikusuma/farmgate/internal/catalog/app"
	"github.com/dwikikusuma/farmgate/internal/catalog/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpjson"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/money"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: logger.OrDefault(log)}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.list)
	mux.HandleFunc("GET /api/products/facets", h.facets)
	mux.HandleFunc("GET /api/products/{id}", h.product)
	mux.HandleFunc("GET /api/catalog/state", h.state)
}

type ProductResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Region      string      `json:"region"`
	Price       json.Number `json:"price"`
	Unit        string      `json:"unit"`
	ImageRefs   []string    `json:"images"`
	Featured    bool        `json:"featured"`
	FarmerName  string      `json:"farmerName,omitempty"`
	Stock       int         `json:"stock"`
}

type ListResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
	Source     app.Mode          `json:"source"`
}

type FacetsResponse struct {
	Categories []string `json:"categories"`
	Regions    []string `json:"regions"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		httpjson.WriteError(w, status.Error(codes.InvalidArgument, err.Error()))
		return
	}

	listing, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpjson.WriteError(w, mapErr(err))
		return
	}

	out := make([]ProductResponse, 0, len(listing.Products))
	for _, p := range listing.Products {
		out = append(out, toResponse(p))
	}
	httpjson.WriteJSON(w, http.StatusOK, ListResponse{
		Products:   out,
		Pagination: listing.Pagination,
		Source:     listing.Source,
	})
}

func (h *Handler) facets(w http.ResponseWriter, r *http.Request) {
	f := h.svc.Facets()
	httpjson.WriteJSON(w, http.StatusOK, FacetsResponse{Categories: f.Categories, Regions: f.Regions})
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, mapErr(err))
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, http.StatusOK, h.svc.State())
}

// ParseFilter reads the catalog query parameters. Unknown parameters are
// ignored.
func ParseFilter(q url.Values) (domain.Filter, error) {
	f := domain.Filter{
		Category: q.Get("category"),
		Region:   q.Get("region"),
		Search:   q.Get("search"),
	}

	var err error
	if f.Page, err = intParam(q, "page"); err != nil {
		return domain.Filter{}, err
	}
	if f.Limit, err = intParam(q, "limit"); err != nil {
		return domain.Filter{}, err
	}
	if f.MinPrice, err = decimalParam(q, "minPrice"); err != nil {
		return domain.Filter{}, err
	}
	if f.MaxPrice, err = decimalParam(q, "maxPrice"); err != nil {
		return domain.Filter{}, err
	}
	if v := strings.TrimSpace(q.Get("featured")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("featured must be true or false, got %q", v)
		}
		f.Featured = b
	}
	return f, nil
}

func intParam(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func decimalParam(q url.Values, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return &d, nil
}

func toResponse(p domain.Product) ProductResponse {
	imgs := p.ImageRefs
	if imgs == nil {
		imgs = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Region:      p.Region,
		Price:       money.Number(p.Price),
		Unit:        p.Unit,
		ImageRefs:   imgs,
		Featured:    p.Featured,
		FarmerName:  p.FarmerName,
		Stock:       p.Stock,
	}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidFilter):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, "product not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	}
	return status.Error(codes.Internal, "internal error")
}
