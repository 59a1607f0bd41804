package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/session"
	"github.com/frahmantamala/practice-gateway/internal/transport"
	"github.com/frahmantamala/practice-gateway/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (session.Started, error)
	Logout(ctx context.Context, sid string) error
	Resolve(ctx context.Context, sessionToken string) (string, session.State, error)
}

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Tables  *permission.Tables
	Cookie  CookieConfig
}

func NewHandler(service ServiceAPI, tables *permission.Tables, cookie CookieConfig, logger *slog.Logger) *Handler {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
		Tables:      tables,
		Cookie:      cookie,
	}
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	started, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.setCookie(w, started.SessionToken, h.Cookie.TTL)
	h.WriteJSON(w, http.StatusOK, LoginResponse{
		SessionToken: started.SessionToken,
		ExpiresIn:    int64(h.Cookie.TTL.Seconds()),
		User:         started.State.User,
		Tenant:       started.State.Tenant,
	})
}

// Logout handles POST /auth/logout. Calling it without a session is fine.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), session.IDFromContext(r.Context())); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.setCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	if !st.IsAuthenticated {
		h.WriteAppError(w, r, internal.ErrSessionRequired)
		return
	}
	resolver := st.Resolver(h.Tables)
	h.WriteJSON(w, http.StatusOK, MeResponse{
		User:        st.User,
		Tenant:      st.Tenant,
		RoleLabel:   st.Role().Label(),
		AccessLevel: resolver.AccessLevel(),
		Menu:        resolver.FilterMenuItems(permission.DefaultMenu()),
	})
}

// SessionMiddleware resolves the bearer token or session cookie into the
// request context. It never rejects; the guard decides what a missing
// session means for the route.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := transport.BearerToken(r)
		if token == "" {
			if c, err := r.Cookie(h.Cookie.Name); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		sid, st, err := h.Service.Resolve(ctx, token)
		if err != nil {
			if !errors.Is(err, internal.ErrInvalidToken) && !errors.Is(err, internal.ErrTokenExpired) {
				logger.From(ctx).ErrorContext(ctx, "session lookup failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx = session.WithState(ctx, sid, st)
		if st.IsAuthenticated {
			ctx = internal.ContextWithIdentity(ctx, st.UserID(), st.TenantID())
			ctx = logger.With(ctx, "user_id", st.UserID(), "tenant_id", st.TenantID())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
