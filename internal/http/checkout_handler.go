package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Checkout(ctx context.Context) (*checkout.Confirmation, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		timeout:  timeout,
		logger:   orNop(logger),
	}
}

type CheckoutResponse struct {
	*checkout.Confirmation
	FormattedSubtotal string `json:"formattedSubtotal"`
	Message           string `json:"message"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.checkout.Checkout(ctx)
	if err != nil {
		handleError(w, r, h.logger, err, "Checkout failed.")
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponse{
		Confirmation:      c,
		FormattedSubtotal: pricing.FormatCurrency(c.Subtotal),
		Message:           "Your order has been placed successfully.",
	})
}
