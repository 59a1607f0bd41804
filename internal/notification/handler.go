package notification

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, tenantID string) (Summary, error)
	Add(ctx context.Context, tenantID string, dto CreateNotificationDTO) (Notification, error)
	MarkAsRead(ctx context.Context, tenantID, id string) (Notification, error)
	MarkAllAsRead(ctx context.Context, tenantID string) (int, error)
	Remove(ctx context.Context, tenantID, id string) error
	Clear(ctx context.Context, tenantID string) error
	Set(ctx context.Context, tenantID string, list []Notification) (Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(logger), Service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.List(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto CreateNotificationDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	n, err := h.Service.Add(r.Context(), tenantID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, n)
}

// Replace handles PUT /notifications.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto SetNotificationsDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	sum, err := h.Service.Set(r.Context(), tenantID, dto.Notifications)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	n, err := h.Service.MarkAsRead(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	changed, err := h.Service.MarkAllAsRead(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"updated": changed})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	if err := h.Service.Remove(r.Context(), tenantID, chi.URLParam(r, "id")); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	if err := h.Service.Clear(r.Context(), tenantID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
