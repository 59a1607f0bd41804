package user

import (
	"time"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
)

// DemoPassword signs in every demo account in local auth mode.
const DemoPassword = "password"

const (
	DemoTenantSilva   = "11111111-1111-1111-1111-111111111111"
	DemoTenantCosta   = "22222222-2222-2222-2222-222222222222"
	DemoTenantMachado = "33333333-3333-3333-3333-333333333333"
	DemoTenantBarros  = "44444444-4444-4444-4444-444444444444"
)

func demoTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// DemoTenants is one firm per plan.
func DemoTenants() []coreUser.Tenant {
	created := demoTime("2024-01-01T00:00:00Z")
	return []coreUser.Tenant{
		{ID: DemoTenantSilva, Name: "Silva & Associados", CNPJ: "11.111.111/0001-11", Email: "admin@silvaassociados.com.br", Plan: coreUser.PlanStarter, IsActive: true, CreatedAt: created, UpdatedAt: created},
		{ID: DemoTenantCosta, Name: "Costa & Santos", CNPJ: "22.222.222/0001-22", Email: "admin@costasantos.com.br", Plan: coreUser.PlanProfessional, IsActive: true, CreatedAt: created, UpdatedAt: created},
		{ID: DemoTenantMachado, Name: "Machado Advogados", CNPJ: "33.333.333/0001-33", Email: "admin@machadoadvogados.com.br", Plan: coreUser.PlanBusiness, IsActive: true, CreatedAt: created, UpdatedAt: created},
		{ID: DemoTenantBarros, Name: "Barros Enterprise", CNPJ: "44.444.444/0001-44", Email: "admin@barrosent.com.br", Plan: coreUser.PlanEnterprise, IsActive: true, CreatedAt: created, UpdatedAt: created},
	}
}

func DemoUsers() []coreUser.User {
	mk := func(id, email, name string, role permission.Role, tenantID, created, updated string) coreUser.User {
		return coreUser.User{
			ID: id, Email: email, Name: name, Role: role, TenantID: tenantID, IsActive: true,
			CreatedAt: demoTime(created), UpdatedAt: demoTime(updated),
		}
	}
	return []coreUser.User{
		mk("user_1", "admin@silvaassociados.com.br", "Carlos Silva", permission.RoleAdmin, DemoTenantSilva, "2024-01-15T09:00:00Z", "2025-01-20T14:30:00Z"),
		mk("user_2", "gerente@silvaassociados.com.br", "Ana Paula Santos", permission.RoleManager, DemoTenantSilva, "2024-01-16T10:00:00Z", "2025-01-19T16:20:00Z"),
		mk("user_3", "admin@costasantos.com.br", "João Costa", permission.RoleAdmin, DemoTenantCosta, "2024-02-01T09:00:00Z", "2025-01-20T14:30:00Z"),
		mk("user_4", "advogado@costasantos.com.br", "Dr. Pedro Santos", permission.RoleLawyer, DemoTenantCosta, "2024-02-02T09:00:00Z", "2025-01-20T14:30:00Z"),
		mk("user_5", "assistente@costasantos.com.br", "Maria Santos", permission.RoleAssistant, DemoTenantCosta, "2024-02-03T09:00:00Z", "2025-01-20T14:30:00Z"),
		mk("user_6", "admin@machadoadvogados.com.br", "Dr. Roberto Machado", permission.RoleAdmin, DemoTenantMachado, "2024-03-01T09:00:00Z", "2025-01-20T14:30:00Z"),
		mk("user_7", "admin@barrosent.com.br", "Fernanda Barros", permission.RoleAdmin, DemoTenantBarros, "2024-04-01T09:00:00Z", "2025-01-20T14:30:00Z"),
	}
}

// DemoSeed returns the demo members of tenantID.
func DemoSeed(tenantID string) []coreUser.User {
	out := []coreUser.User{}
	for _, u := range DemoUsers() {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out
}
