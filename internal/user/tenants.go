package user

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

// TenantNamespace holds one Tenant document per id.
const TenantNamespace = "tenants"

// Tenants is the gateway's copy of the tenant directory. Upstream logins
// refresh it; local mode reads it for sign-in.
type Tenants struct {
	kv   storage.KV
	seed map[string]coreUser.Tenant
}

func NewTenants(kv storage.KV, seed []coreUser.Tenant) *Tenants {
	m := make(map[string]coreUser.Tenant, len(seed))
	for _, t := range seed {
		m[t.ID] = t
	}
	return &Tenants{kv: kv, seed: m}
}

func (t *Tenants) Get(ctx context.Context, id string) (coreUser.Tenant, error) {
	var tenant coreUser.Tenant
	found, err := t.kv.Get(ctx, storage.Key(TenantNamespace, id), &tenant)
	if err != nil {
		return coreUser.Tenant{}, fmt.Errorf("load tenant: %w", err)
	}
	if found {
		return tenant, nil
	}
	if seeded, ok := t.seed[id]; ok {
		return seeded, nil
	}
	return coreUser.Tenant{}, internal.ErrTenantNotFound
}

func (t *Tenants) Put(ctx context.Context, tenant coreUser.Tenant) error {
	if tenant.ID == "" {
		return internal.NewValidationFieldError("id", "tenant id is required", internal.ErrCodeValidationFailed)
	}
	if !tenant.Plan.Valid() {
		return internal.NewValidationFieldError("plan", "unknown plan "+string(tenant.Plan), internal.ErrCodeInvalidPlan)
	}
	if tenant.UpdatedAt.IsZero() {
		tenant.UpdatedAt = time.Now()
	}
	if err := t.kv.Set(ctx, storage.Key(TenantNamespace, tenant.ID), tenant); err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}
	return nil
}
