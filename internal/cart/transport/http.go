package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dwikikusuma/farmgate/internal/cart/app"
	"github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpjson"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/money"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Handler struct {
	ledger *app.Ledger
	items  app.ItemResolver
	log    *slog.Logger
}

func NewHandler(ledger *app.Ledger, items app.ItemResolver, log *slog.Logger) *Handler {
	return &Handler{ledger: ledger, items: items, log: logger.OrDefault(log)}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cart", h.get)
	mux.HandleFunc("DELETE /api/cart", h.clear)
	mux.HandleFunc("POST /api/cart/items", h.add)
	mux.HandleFunc("PATCH /api/cart/items/{lineId}", h.setQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{lineId}", h.remove)
}

type addRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type LineResponse struct {
	ID        string      `json:"id"`
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Unit      string      `json:"unit"`
	ImageRefs []string    `json:"imageRefs"`
	UnitPrice json.Number `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	Subtotal  json.Number `json:"subtotal"`
	Valid     bool        `json:"valid"`
}

type CartResponse struct {
	Lines       []LineResponse `json:"lines"`
	TotalItems  int            `json:"totalItems"`
	TotalAmount json.Number    `json:"totalAmount"`
}

// get reconciles before answering so the UI never shows unpriced lines.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, http.StatusOK, ToResponse(h.ledger.Reconcile()))
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, mapErr(err))
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		httpjson.WriteError(w, status.Error(codes.InvalidArgument, "productId is required"))
		return
	}
	if req.Quantity <= 0 {
		httpjson.WriteError(w, status.Error(codes.InvalidArgument, "quantity must be a positive integer"))
		return
	}

	item, err := h.items.Item(r.Context(), req.ProductID)
	if err != nil {
		h.log.Warn("cart add: resolve product failed", slog.String("product_id", req.ProductID), slog.Any("err", err))
		httpjson.WriteError(w, mapErr(err))
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, ToResponse(h.ledger.Add(item, req.Quantity)))
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, mapErr(err))
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, ToResponse(h.ledger.SetQuantity(r.PathValue("lineId"), req.Quantity)))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, http.StatusOK, ToResponse(h.ledger.Remove(r.PathValue("lineId"))))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, http.StatusOK, ToResponse(h.ledger.Clear()))
}

// ToResponse renders a snapshot for the UI.
func ToResponse(s domain.Snapshot) CartResponse {
	lines := make([]LineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		refs := l.ImageRefs
		if refs == nil {
			refs = []string{}
		}
		lines = append(lines, LineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Unit:      l.Unit,
			ImageRefs: refs,
			UnitPrice: money.Number(l.UnitPrice),
			Quantity:  l.Quantity,
			Subtotal:  money.Number(l.Subtotal()),
			Valid:     l.Valid(),
		})
	}
	return CartResponse{
		Lines:       lines,
		TotalItems:  s.Totals.Items,
		TotalAmount: money.Number(s.Totals.Amount),
	}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, httpjson.ErrInvalidJSON):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrUnknownProduct):
		return status.Error(codes.NotFound, "product not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	return status.Error(codes.Internal, "internal error")
}
