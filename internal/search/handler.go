package search

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal/transport"
)

type ServiceAPI interface {
	Search(ctx context.Context, tenantID, query string, f Filters) ([]Result, error)
	Suggestions(ctx context.Context, tenantID, query string) ([]string, error)
	Recent(ctx context.Context, tenantID string) ([]string, error)
	ClearRecent(ctx context.Context, tenantID string) error
	Saved(ctx context.Context, tenantID string) ([]SavedSearch, error)
	Save(ctx context.Context, tenantID string, dto SaveSearchDTO) (SavedSearch, error)
	RemoveSaved(ctx context.Context, tenantID, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(logger), Service: service}
}

// Search handles GET /search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	results, err := h.Service.Search(r.Context(), tenantID, query, FiltersFromQuery(r.URL.Query()))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"total":   len(results),
	})
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Suggestions(r.Context(), tenantID, r.URL.Query().Get("q"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"suggestions": list})
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Recent(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"recent": list})
}

func (h *Handler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	if err := h.Service.ClearRecent(r.Context(), tenantID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Saved(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Saved(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"saved": list})
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto SaveSearchDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	saved, err := h.Service.Save(r.Context(), tenantID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, saved)
}

func (h *Handler) RemoveSaved(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	if err := h.Service.RemoveSaved(r.Context(), tenantID, chi.URLParam(r, "id")); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
