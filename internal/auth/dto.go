package auth

import (
	"strings"
	"time"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
)

// LoginDTO is the body of POST /auth/login.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the gateway session token, never the upstream one.
type LoginResponse struct {
	SessionToken string           `json:"session_token"`
	ExpiresIn    int64            `json:"expires_in"`
	User         *coreUser.User   `json:"user"`
	Tenant       *coreUser.Tenant `json:"tenant"`
}

type MeResponse struct {
	User        *coreUser.User         `json:"user"`
	Tenant      *coreUser.Tenant       `json:"tenant"`
	RoleLabel   string                 `json:"roleLabel"`
	AccessLevel permission.AccessLevel `json:"accessLevel"`
	Menu        []permission.MenuItem  `json:"menu"`
}

// upstreamLogin is the auth service's login reply.
type upstreamLogin struct {
	User        upstreamUser `json:"user"`
	AccessToken string       `json:"access_token"`
}

type upstreamUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	TenantID  string    `json:"tenant_id"`
	Status    string    `json:"status"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// toUser maps the auth service's member onto ours. Its "operator" role is
// our lawyer; anything else unknown falls back to assistant.
func (u upstreamUser) toUser() coreUser.User {
	name := u.Name
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}

	role := permission.Role(u.Role)
	switch {
	case u.Role == "operator":
		role = permission.RoleLawyer
	case !role.Valid():
		role = permission.RoleAssistant
	}

	return coreUser.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      name,
		Role:      role,
		TenantID:  u.TenantID,
		Avatar:    u.Avatar,
		IsActive:  u.Status == "" || u.Status == "active",
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.CreatedAt,
	}
}

// upstreamTenant accepts both the snake and camel casings the tenant
// service has used.
type upstreamTenant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CNPJ          string    `json:"cnpj"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Plan          string    `json:"plan"`
	IsActive      *bool     `json:"isActive"`
	IsActiveSnake *bool     `json:"is_active"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (t upstreamTenant) toTenant() coreUser.Tenant {
	plan := coreUser.Plan(strings.ToLower(t.Plan))
	if !plan.Valid() {
		plan = coreUser.PlanStarter
	}

	active := t.Status == "" || t.Status == "active"
	if t.IsActive != nil {
		active = *t.IsActive
	} else if t.IsActiveSnake != nil {
		active = *t.IsActiveSnake
	}

	return coreUser.Tenant{
		ID:        t.ID,
		Name:      t.Name,
		CNPJ:      t.CNPJ,
		Email:     t.Email,
		Phone:     t.Phone,
		Plan:      plan,
		IsActive:  active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
