package usage

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal/transport"
)

type ServiceAPI interface {
	Counters(ctx context.Context, tenantID string) (Counters, error)
	Increment(ctx context.Context, tenantID string, metric Metric, amount int) (Counters, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(logger), Service: service}
}

type incrementDTO struct {
	Amount int `json:"amount" validate:"omitempty,min=1,max=1000"`
}

// Get handles GET /usage.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	c, err := h.Service.Counters(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// Increment handles POST /usage/{metric}/increment. The body is optional.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	metric, err := ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	dto := incrementDTO{Amount: 1}
	if r.ContentLength > 0 {
		if err := h.DecodeJSON(w, r, &dto); err != nil {
			h.WriteAppError(w, r, err)
			return
		}
	}
	c, err := h.Service.Increment(r.Context(), tenantID, metric, dto.Amount)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}
