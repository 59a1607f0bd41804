package user

import (
	"strings"
	"time"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
)

type CreateUserDTO struct {
	Email    string          `json:"email" validate:"required,email"`
	Name     string          `json:"name" validate:"required,max=120"`
	Role     permission.Role `json:"role" validate:"required,oneof=admin manager lawyer assistant"`
	Avatar   string          `json:"avatar" validate:"omitempty,url"`
	IsActive *bool           `json:"isActive"`
	// Password, when set, also registers a local sign-in account.
	Password string `json:"password" validate:"omitempty,min=8"`
}

// UpdateUserDTO is a partial update. Status changes go through
// ToggleStatus so the self and last-admin rules apply.
type UpdateUserDTO struct {
	Email  *string          `json:"email" validate:"omitempty,email"`
	Name   *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Role   *permission.Role `json:"role" validate:"omitempty,oneof=admin manager lawyer assistant"`
	Avatar *string          `json:"avatar" validate:"omitempty,url"`
}

func (d CreateUserDTO) toUser(id, tenantID string, now time.Time) coreUser.User {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return coreUser.User{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(d.Email)),
		Name:      strings.TrimSpace(d.Name),
		Role:      d.Role,
		TenantID:  tenantID,
		Avatar:    d.Avatar,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d UpdateUserDTO) apply(u coreUser.User, now time.Time) coreUser.User {
	if d.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*d.Email))
	}
	if d.Name != nil {
		u.Name = strings.TrimSpace(*d.Name)
	}
	if d.Role != nil {
		u.Role = *d.Role
	}
	if d.Avatar != nil {
		u.Avatar = *d.Avatar
	}
	u.UpdatedAt = now
	return u
}
