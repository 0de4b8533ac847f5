package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductReader interface {
	Products(ctx context.Context) catalog.Result[[]domain.Product]
	Product(ctx context.Context, id string) catalog.Result[domain.Product]
}

type ProductHandler struct {
	products ProductReader
	timeout  time.Duration
	logger   *zap.Logger
}

func NewProductHandler(products ProductReader, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
		logger:   orNop(logger),
	}
}

type ProductResponse struct {
	domain.Product
	EffectivePrice  float64 `json:"effectivePrice"`
	DiscountPercent int     `json:"discountPercent"`
	FormattedPrice  string  `json:"formattedPrice"`
}

type ProductsMeta struct {
	Total int    `json:"total"`
	Query string `json:"query,omitempty"`
	Sort  string `json:"sort"`
}

type ProductsResponse struct {
	Data    []ProductResponse `json:"data"`
	Meta    ProductsMeta      `json:"meta"`
	Message string            `json:"message,omitempty"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		Product:         p,
		EffectivePrice:  p.EffectivePrice(),
		DiscountPercent: p.DiscountPercent(),
		FormattedPrice:  pricing.FormatCurrency(p.EffectivePrice()),
	}
}

// List serves the catalog filtered by ?q= and ordered by ?sort=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.products.Products(ctx)
	if res.IsError() {
		handleError(w, r, h.logger, res.Err, "Failed to load products.")
		return
	}

	respondJSON(w, http.StatusOK, listing(res.Data, r))
}

// Events streams the catalog read as server-sent events: a loading event
// first, then one success or error event. ?q= and ?sort= apply as in List.
func (h *ProductHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	for res := range catalog.Watch(ctx, h.products.Products) {
		var payload any
		switch {
		case res.IsLoading():
			payload = struct{}{}
		case res.IsError():
			status, resp := classifyError(res.Err, "Failed to load products.")
			if status >= 500 {
				requestLogger(r, h.logger).Error("product stream failed", zap.String("code", resp.Code), zap.Error(res.Err))
			}
			payload = resp
		default:
			payload = listing(res.Data, r)
		}

		if err := writeEvent(w, res.Status.String(), payload); err != nil {
			requestLogger(r, h.logger).Warn("product stream write failed", zap.Error(err))
			return
		}
		_ = rc.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func listing(all []domain.Product, r *http.Request) ProductsResponse {
	query := r.URL.Query().Get("q")
	mode := catalog.ParseSortMode(r.URL.Query().Get("sort"))
	products := catalog.Sort(catalog.Filter(all, query), mode)

	out := ProductsResponse{
		Data: make([]ProductResponse, len(products)),
		Meta: ProductsMeta{Total: len(products), Query: query, Sort: string(mode)},
	}
	for i, p := range products {
		out.Data[i] = toProductResponse(p)
	}
	switch {
	case len(products) == 0 && query != "":
		out.Message = "No products match your search."
	case len(products) == 0:
		out.Message = "No products found."
	}
	return out
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.products.Product(ctx, chi.URLParam(r, "id"))
	if res.IsError() {
		handleError(w, r, h.logger, res.Err, "Failed to load product.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]ProductResponse{"data": toProductResponse(res.Data)})
}
