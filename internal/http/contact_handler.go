package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/contact"
	"go.uber.org/zap"
)

type ContactHandler struct {
	logger *zap.Logger
}

func NewContactHandler(logger *zap.Logger) *ContactHandler {
	return &ContactHandler{logger: orNop(logger)}
}

// Submit validates a contact message. Valid messages are only logged;
// there is no mail delivery behind this endpoint.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form contact.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if errs := contact.Validate(form); !errs.Empty() {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: errs,
		})
		return
	}

	form = form.Normalize()
	requestLogger(r, h.logger).Info("contact message received",
		zap.String("email", form.Email),
		zap.String("subject", form.Subject),
	)
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Message sent successfully"})
}
