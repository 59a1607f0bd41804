package permission

// PageAccess is the full answer for one route, including what the denial
// view needs to explain itself.
type PageAccess struct {
	HasAccess    bool   `json:"hasAccess"`
	Message      string `json:"message"`
	AllowedRoles []Role `json:"allowedRoles"`
	RedirectTo   string `json:"redirectTo,omitempty"`
}

// ActionCheck names one (resource, action) pair.
type ActionCheck struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// MenuItem is a navigation entry that links to a dashboard route.
type MenuItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon,omitempty"`
}

// Resolver answers permission questions for a single role. It never
// mutates the tables and has no side effects. An empty role means
// nobody is signed in.
type Resolver struct {
	role   Role
	tables *Tables
}

func NewResolver(tables *Tables, role Role) *Resolver {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Resolver{role: role, tables: tables}
}

func (r *Resolver) Role() Role {
	return r.role
}

// CanAccessPage allows routes that are not in the page table.
func (r *Resolver) CanAccessPage(route string) bool {
	if r.role == "" {
		return false
	}
	rule, configured := r.tables.Pages[route]
	if !configured {
		return true
	}
	return containsRole(rule.AllowedRoles, r.role)
}

func (r *Resolver) GetPagePermission(route string) PageAccess {
	rule, configured := r.tables.Pages[route]
	if !configured {
		return PageAccess{
			HasAccess:    r.CanAccessPage(route),
			Message:      DefaultDenialMessage,
			AllowedRoles: []Role{},
		}
	}

	msg := rule.Message
	if msg == "" {
		msg = DefaultDenialMessage
	}
	return PageAccess{
		HasAccess:    r.CanAccessPage(route),
		Message:      msg,
		AllowedRoles: append([]Role{}, rule.AllowedRoles...),
		RedirectTo:   rule.RedirectTo,
	}
}

// CanPerformAction denies any (resource, action) pair that is not in the
// action table.
func (r *Resolver) CanPerformAction(resource, action string) bool {
	if r.role == "" {
		return false
	}
	actions, ok := r.tables.Actions[resource]
	if !ok {
		return false
	}
	roles, ok := actions[action]
	if !ok {
		return false
	}
	return containsRole(roles, r.role)
}

func (r *Resolver) HasAnyPermission(checks []ActionCheck) bool {
	for _, c := range checks {
		if r.CanPerformAction(c.Resource, c.Action) {
			return true
		}
	}
	return false
}

func (r *Resolver) HasAllPermissions(checks []ActionCheck) bool {
	for _, c := range checks {
		if !r.CanPerformAction(c.Resource, c.Action) {
			return false
		}
	}
	return true
}

func (r *Resolver) AccessLevel() AccessLevel {
	return r.role.AccessLevel()
}

func (r *Resolver) IsAdmin() bool {
	return r.role == RoleAdmin
}

func (r *Resolver) IsManagerOrAbove() bool {
	return r.role == RoleAdmin || r.role == RoleManager
}

func (r *Resolver) IsLawyerOrAbove() bool {
	return r.role == RoleAdmin || r.role == RoleManager || r.role == RoleLawyer
}

// FilterMenuItems keeps the entries whose target page the role can open.
func (r *Resolver) FilterMenuItems(items []MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if r.CanAccessPage(item.Href) {
			out = append(out, item)
		}
	}
	return out
}

// HasRole reports whether the resolver's role is one of roles.
func (r *Resolver) HasRole(roles ...Role) bool {
	if r.role == "" {
		return false
	}
	return containsRole(roles, r.role)
}
