// Package user manages the members of each tenant and enforces the
// plan's seat quota.
package user

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/practice-gateway/internal"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
)

// Unlimited marks a quota without a ceiling.
const Unlimited = -1

var planUserLimits = map[coreUser.Plan]int{
	coreUser.PlanStarter:      2,
	coreUser.PlanProfessional: 5,
	coreUser.PlanBusiness:     15,
	coreUser.PlanEnterprise:   Unlimited,
}

// PlanUserLimit is the seat limit of plan. Unknown plans get the starter
// limit.
func PlanUserLimit(plan coreUser.Plan) int {
	if limit, ok := planUserLimits[plan]; ok {
		return limit
	}
	return planUserLimits[coreUser.PlanStarter]
}

type Quota struct {
	CanAdd  bool   `json:"canAdd"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
	Message string `json:"message,omitempty"`
}

// CheckQuota decides whether tenant may add another user given its current
// members. Only active users count towards the limit.
func CheckQuota(tenant *coreUser.Tenant, members []coreUser.User) Quota {
	if tenant == nil {
		return Quota{CanAdd: false, Used: 0, Limit: 0, Message: "tenant not found"}
	}

	used := 0
	for _, u := range members {
		if u.TenantID == tenant.ID && u.IsActive {
			used++
		}
	}

	limit := PlanUserLimit(tenant.Plan)
	if limit == Unlimited {
		return Quota{CanAdd: true, Used: used, Limit: Unlimited}
	}

	q := Quota{CanAdd: used < limit, Used: used, Limit: limit}
	if !q.CanAdd {
		q.Message = fmt.Sprintf("User limit of %d reached for the %s plan. Upgrade your plan to add more users.",
			limit, planTitle(tenant.Plan))
	}
	return q
}

func planTitle(p coreUser.Plan) string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// The reducers below never modify their input slice.

func add(list []coreUser.User, u coreUser.User) ([]coreUser.User, error) {
	for _, cur := range list {
		if strings.EqualFold(cur.Email, u.Email) {
			return nil, internal.ErrDuplicateEmail
		}
	}
	next := make([]coreUser.User, 0, len(list)+1)
	next = append(next, list...)
	return append(next, u), nil
}

func replace(list []coreUser.User, id string, fn func(coreUser.User) (coreUser.User, error)) ([]coreUser.User, coreUser.User, error) {
	for i, cur := range list {
		if cur.ID != id {
			continue
		}
		updated, err := fn(cur)
		if err != nil {
			return nil, coreUser.User{}, err
		}
		next := make([]coreUser.User, len(list))
		copy(next, list)
		next[i] = updated
		return next, updated, nil
	}
	return nil, coreUser.User{}, internal.ErrUserNotFound
}

func remove(list []coreUser.User, id string) ([]coreUser.User, coreUser.User, error) {
	for i, cur := range list {
		if cur.ID == id {
			next := make([]coreUser.User, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			return next, cur, nil
		}
	}
	return nil, coreUser.User{}, internal.ErrUserNotFound
}

func find(list []coreUser.User, id string) (coreUser.User, bool) {
	for _, u := range list {
		if u.ID == id {
			return u, true
		}
	}
	return coreUser.User{}, false
}

// otherActiveAdmins counts active administrators other than id.
func otherActiveAdmins(list []coreUser.User, id string) int {
	n := 0
	for _, u := range list {
		if u.ID != id && u.Role == permission.RoleAdmin && u.IsActive {
			n++
		}
	}
	return n
}

func ByRole(list []coreUser.User, role permission.Role) []coreUser.User {
	out := []coreUser.User{}
	for _, u := range list {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

func Active(list []coreUser.User) []coreUser.User {
	out := []coreUser.User{}
	for _, u := range list {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out
}
