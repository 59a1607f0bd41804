package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/transport"
)

type ServiceAPI interface {
	Add(ctx context.Context, tenant *coreUser.Tenant, actorID string, dto CreateUserDTO) (coreUser.User, error)
	Update(ctx context.Context, tenantID, actorID, id string, dto UpdateUserDTO) (coreUser.User, error)
	Delete(ctx context.Context, tenantID, actorID, id string) (coreUser.User, error)
	ToggleStatus(ctx context.Context, tenantID, actorID, id string) (coreUser.User, error)
	Get(ctx context.Context, tenantID, id string) (coreUser.User, error)
	ForTenant(ctx context.Context, tenantID string) ([]coreUser.User, error)
	ByRole(ctx context.Context, tenantID string, role permission.Role) ([]coreUser.User, error)
	Active(ctx context.Context, tenantID string) ([]coreUser.User, error)
	CheckQuota(ctx context.Context, tenant *coreUser.Tenant) (Quota, error)
}

type TenantLookup interface {
	Get(ctx context.Context, id string) (coreUser.Tenant, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Tenants TenantLookup
}

func NewHandler(service ServiceAPI, tenants TenantLookup, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
		Tenants:     tenants,
	}
}

// List handles GET /users. Optional ?role= and ?active=true narrow it.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}

	var (
		list []coreUser.User
		err  error
	)
	q := r.URL.Query()
	switch {
	case q.Get("role") != "":
		list, err = h.Service.ByRole(r.Context(), tenantID, permission.Role(q.Get("role")))
	case q.Get("active") == "true":
		list, err = h.Service.Active(r.Context(), tenantID)
	default:
		list, err = h.Service.ForTenant(r.Context(), tenantID)
	}
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": list,
		"total": len(list),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	u, err := h.Service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// Quota handles GET /users/quota.
func (h *Handler) Quota(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	tenant := h.tenant(r.Context(), tenantID)
	q, err := h.Service.CheckQuota(r.Context(), tenant)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto CreateUserDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	u, err := h.Service.Add(r.Context(), h.tenant(r.Context(), tenantID), userID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto UpdateUserDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	u, err := h.Service.Update(r.Context(), tenantID, userID, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	u, err := h.Service.Delete(r.Context(), tenantID, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"id":      u.ID,
		"message": "User " + u.Name + " removed",
	})
}

func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	u, err := h.Service.ToggleStatus(r.Context(), tenantID, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// tenant returns nil when the tenant is unknown so the quota check can
// report it.
func (h *Handler) tenant(ctx context.Context, id string) *coreUser.Tenant {
	t, err := h.Tenants.Get(ctx, id)
	if err != nil {
		h.Logger.WarnContext(ctx, "tenant lookup failed", "tenant_id", id, "error", err)
		return nil
	}
	return &t
}
