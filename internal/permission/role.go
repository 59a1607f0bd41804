package permission

import "fmt"

// Role is the single privilege category carried by a user. Permissions are
// explicit allow-lists per role; no ordering between roles is implied.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleLawyer    Role = "lawyer"
	RoleAssistant Role = "assistant"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleLawyer, RoleAssistant}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleLawyer, RoleAssistant:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Label is the human readable role name shown in the dashboard.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleLawyer:
		return "Lawyer"
	case RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}

type AccessLevel string

const (
	AccessFull     AccessLevel = "full"
	AccessLimited  AccessLevel = "limited"
	AccessReadOnly AccessLevel = "read-only"
	AccessNone     AccessLevel = "none"
)

func (r Role) AccessLevel() AccessLevel {
	switch r {
	case RoleAdmin:
		return AccessFull
	case RoleManager, RoleLawyer:
		return AccessLimited
	case RoleAssistant:
		return AccessReadOnly
	default:
		return AccessNone
	}
}

// Labels maps roles to their labels, preserving order.
func Labels(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.Label()
	}
	return out
}

func containsRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}
