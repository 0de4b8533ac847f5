package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxQty = 99

type CartStore interface {
	State() domain.CartState
	Add(ctx context.Context, item domain.CartItem) domain.CartState
	Remove(ctx context.Context, id string) domain.CartState
	SetQty(ctx context.Context, id string, qty int) domain.CartState
	Clear(ctx context.Context) domain.CartState
}

type CartHandler struct {
	cart     CartStore
	products ProductReader
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCartHandler(cart CartStore, products ProductReader, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
		timeout:  timeout,
		logger:   orNop(logger),
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Quantity is loosely typed on purpose: strings and garbage are clamped.
type UpdateQuantityRequestDTO struct {
	Quantity any `json:"quantity"`
}

type CartItemResponse struct {
	domain.CartItem
	EffectivePrice float64 `json:"effectivePrice"`
	LineTotal      float64 `json:"lineTotal"`
}

type CartResponse struct {
	Items             []CartItemResponse `json:"items"`
	ItemCount         int                `json:"itemCount"`
	Subtotal          float64            `json:"subtotal"`
	FormattedSubtotal string             `json:"formattedSubtotal"`
}

func toCartResponse(state domain.CartState) CartResponse {
	sel := state.Selectors()
	items := make([]CartItemResponse, len(state.Items))
	for i, it := range state.Items {
		items[i] = CartItemResponse{
			CartItem:       it,
			EffectivePrice: it.EffectivePrice(),
			LineTotal:      it.LineTotal(),
		}
	}
	return CartResponse{
		Items:             items,
		ItemCount:         sel.ItemCount,
		Subtotal:          sel.Subtotal,
		FormattedSubtotal: pricing.FormatCurrency(sel.Subtotal),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartResponse(h.cart.State()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > maxQty {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	res := h.products.Product(ctx, req.ProductID)
	if res.IsError() {
		handleError(w, r, h.logger, res.Err, "Failed to load product.")
		return
	}

	state := h.cart.Add(ctx, domain.ToCartItem(res.Data, req.Quantity))
	respondJSON(w, http.StatusCreated, toCartResponse(state))
}

// UpdateQuantity sets the line quantity; 0 removes the line and unknown
// ids leave the cart untouched.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	qty := min(cart.ClampQty(req.Quantity), maxQty)
	state := h.cart.SetQty(r.Context(), chi.URLParam(r, "id"), qty)
	respondJSON(w, http.StatusOK, toCartResponse(state))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	state := h.cart.Remove(r.Context(), chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, toCartResponse(state))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	state := h.cart.Clear(r.Context())
	respondJSON(w, http.StatusOK, toCartResponse(state))
}
