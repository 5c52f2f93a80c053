package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/common"
)

// Handler exposes order validation over HTTP.
type Handler struct {
	Svc *Service
}

// Validate checks the stored order against its channel and reports the outcome.
// A failed validation is a normal 200 response carrying the messages.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	res, err := h.Svc.Validate(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, channel.ErrNotFound):
			common.JSONError(w, http.StatusUnprocessableEntity, "CHANNEL_NOT_FOUND", "order channel not found", nil)
		case errors.Is(err, channel.ErrInvalidConfig):
			common.JSONError(w, http.StatusUnprocessableEntity, "CHANNEL_INVALID", "order channel configuration invalid", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to validate order", nil)
		}
		return
	}
	common.Data(w, http.StatusOK, res)
}
