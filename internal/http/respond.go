package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps service errors to HTTP responses. Upstream details are
// logged, never echoed to the client.
func handleError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, failure string) {
	httpStatus, resp := classifyError(err, failure)
	if httpStatus >= 500 {
		requestLogger(r, logger).Error("request failed", zap.String("code", resp.Code), zap.Error(err))
	}
	respondJSON(w, httpStatus, resp)
}

func classifyError(err error, failure string) (int, ErrorResponse) {
	switch {
	case errors.Is(err, catalog.ErrMissingProductID):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid product id.", Code: "invalid_product_id"}
	case errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Product not found.", Code: "product_not_found"}
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, ErrorResponse{Error: "Your cart is empty.", Code: "cart_empty"}
	case circuitbreaker.IsOpen(err):
		return http.StatusServiceUnavailable, ErrorResponse{Error: failure, Code: "service_unavailable"}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, ErrorResponse{Error: failure, Code: "timeout"}
	default:
		return http.StatusBadGateway, ErrorResponse{Error: failure, Code: "upstream_error"}
	}
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
