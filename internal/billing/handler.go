package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/transport"
)

type ServiceAPI interface {
	Load(ctx context.Context, tenantID string) (Overview, error)
	CurrentUsage(ctx context.Context, tenantID string) (Usage, error)
	Invoices(ctx context.Context, tenantID string) ([]Invoice, error)
	Invoice(ctx context.Context, tenantID, id string) (Invoice, error)
	PaymentMethod(ctx context.Context, tenantID string) (PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, tenantID, actorID string, dto PaymentMethodDTO) (PaymentMethod, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(logger), Service: service}
}

// Overview handles GET /billing.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	o, err := h.Service.Load(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	u, err := h.Service.CurrentUsage(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Invoices(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Invoices(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"invoices": list, "total": len(list)})
}

func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.Invoice(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := h.Identity(w, r)
	if !ok {
		return
	}
	pm, err := h.Service.PaymentMethod(r.Context(), tenantID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pm)
}

func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	var dto PaymentMethodDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	pm, err := h.Service.UpdatePaymentMethod(r.Context(), tenantID, userID, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, pm)
}

type planView struct {
	Plan   coreUser.Plan `json:"plan"`
	Price  float64       `json:"price"`
	Limits Limits        `json:"limits"`
}

// Plans handles GET /billing/plans. It needs no session state.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	plans := []coreUser.Plan{coreUser.PlanStarter, coreUser.PlanProfessional, coreUser.PlanBusiness, coreUser.PlanEnterprise}
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView{Plan: p, Price: PlanPrice(p), Limits: PlanLimits(p)})
	}
	h.WriteJSON(w, http.StatusOK, out)
}
