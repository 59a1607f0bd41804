// Package session owns who is signed in, for which tenant, with which
// upstream credential.
package session

import (
	"errors"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
)

// State is the persisted session tuple. IsAuthenticated holds exactly when
// both User and Token are set; Login and Logout are the only ways to
// change it.
type State struct {
	User            *coreUser.User   `json:"user"`
	Tenant          *coreUser.Tenant `json:"tenant"`
	Token           string           `json:"token"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}

var ErrIncompleteLogin = errors.New("session: login requires a user, a tenant and a token")

// Initial is the signed-out state.
func Initial() State {
	return State{}
}

// Login returns the authenticated state for the given credentials. The
// previous state is discarded entirely.
func Login(user coreUser.User, tenant coreUser.Tenant, token string) (State, error) {
	if user.ID == "" || tenant.ID == "" || token == "" {
		return Initial(), ErrIncompleteLogin
	}
	u := user
	t := tenant
	return State{
		User:            &u,
		Tenant:          &t,
		Token:           token,
		IsAuthenticated: true,
	}, nil
}

// Logout clears every field at once.
func Logout(State) State {
	return Initial()
}

func (s State) Role() permission.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) TenantID() string {
	if s.Tenant == nil {
		return ""
	}
	return s.Tenant.ID
}

func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Resolver answers permission questions for the signed-in role.
func (s State) Resolver(tables *permission.Tables) *permission.Resolver {
	return permission.NewResolver(tables, s.Role())
}
