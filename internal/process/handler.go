package process

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal/transport"
)

type ServiceAPI interface {
	Add(ctx context.Context, tenantID, actorID string, dto CreateProcessDTO) (Process, error)
	Update(ctx context.Context, tenantID, actorID, id string, dto UpdateProcessDTO) (Process, error)
	Delete(ctx context.Context, tenantID, actorID, id string) (Process, error)
	ToggleMonitoring(ctx context.Context, tenantID, actorID, id string) (Process, error)
	Get(ctx context.Context, tenantID, id string) (Process, error)
	List(ctx context.Context, tenantID string, f Filter) ([]Process, error)
	Stats(ctx context.Context, tenantID string) (Stats, error)
	Sync(ctx context.Context, tenantID string) ([]Process, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), tenantID, FilterFromQuery(r.URL.Query()))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"processes": list,
		"total":     len(list),
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto CreateProcessDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	p, err := h.Service.Add(r.Context(), tenantID, userID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto UpdateProcessDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	p, err := h.Service.Update(r.Context(), tenantID, userID, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Delete(r.Context(), tenantID, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"id":      p.ID,
		"message": "Process " + p.Number + " deleted",
	})
}

func (h *Handler) ToggleMonitoring(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	p, err := h.Service.ToggleMonitoring(r.Context(), tenantID, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Sync(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"processes": list,
		"total":     len(list),
	})
}
