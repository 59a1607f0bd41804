package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/frahmantamala/practice-gateway/internal"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/gateway"
	"github.com/frahmantamala/practice-gateway/internal/session"
)

type Upstream interface {
	Do(ctx context.Context, service, method, path string, body, out any) error
}

// TenantCache keeps the last tenant record seen at login.
type TenantCache interface {
	Put(ctx context.Context, tenant coreUser.Tenant) error
}

// UpstreamAuthenticator delegates the credential check to the auth
// service, then loads the member's firm from the tenant service.
type UpstreamAuthenticator struct {
	upstream Upstream
	tenants  TenantCache
	logger   *slog.Logger
}

func NewUpstreamAuthenticator(upstream Upstream, tenants TenantCache, logger *slog.Logger) *UpstreamAuthenticator {
	return &UpstreamAuthenticator{upstream: upstream, tenants: tenants, logger: logger}
}

func (a *UpstreamAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	var reply upstreamLogin
	body := map[string]string{"email": email, "password": password}
	if err := a.upstream.Do(ctx, gateway.ServiceAuth, http.MethodPost, "/api/v1/auth/login", body, &reply); err != nil {
		if rejectedCredentials(err) {
			return Identity{}, internal.ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if reply.AccessToken == "" || reply.User.ID == "" {
		return Identity{}, internal.NewExternalError("auth service returned an incomplete login", nil)
	}
	if reply.User.TenantID == "" {
		return Identity{}, internal.NewExternalError("auth service returned a user without a tenant", nil)
	}

	u := reply.User.toUser()
	if !u.IsActive {
		return Identity{}, internal.ErrUserInactive
	}

	tenant, err := a.fetchTenant(ctx, u.TenantID, reply.AccessToken)
	if err != nil {
		return Identity{}, err
	}

	if a.tenants != nil {
		if err := a.tenants.Put(ctx, tenant); err != nil {
			a.logger.WarnContext(ctx, "failed to cache tenant", "tenant_id", tenant.ID, "error", err)
		}
	}

	return Identity{User: u, Tenant: tenant, Token: reply.AccessToken}, nil
}

// fetchTenant calls the tenant service with the fresh credential; no
// session exists yet, so one is staged on the context for the client.
func (a *UpstreamAuthenticator) fetchTenant(ctx context.Context, tenantID, token string) (coreUser.Tenant, error) {
	staged := session.WithState(ctx, "", session.State{
		Token:  token,
		Tenant: &coreUser.Tenant{ID: tenantID},
	})

	var raw upstreamTenant
	err := a.upstream.Do(staged, gateway.ServiceTenant, http.MethodGet, "/api/v1/tenants/"+url.PathEscape(tenantID), nil, &raw)
	if err != nil {
		var serr *gateway.ServiceError
		if errors.As(err, &serr) && serr.Status == http.StatusNotFound {
			return coreUser.Tenant{}, internal.ErrTenantNotFound
		}
		return coreUser.Tenant{}, err
	}
	if raw.ID == "" {
		raw.ID = tenantID
	}
	return raw.toTenant(), nil
}

// The auth service answers bad credentials with 400 or 401.
func rejectedCredentials(err error) bool {
	if errors.Is(err, internal.ErrUpstreamUnauthorized) {
		return true
	}
	var serr *gateway.ServiceError
	return errors.As(err, &serr) && serr.Status == http.StatusBadRequest
}
