package permission

// DefaultDenialMessage is shown when a page rule carries no message of its own.
const DefaultDenialMessage = "You do not have permission to access this page."

// PageRule gates one dashboard route.
type PageRule struct {
	AllowedRoles []Role `yaml:"allowed_roles" json:"allowedRoles"`
	Message      string `yaml:"message" json:"message"`
	RedirectTo   string `yaml:"redirect_to,omitempty" json:"redirectTo,omitempty"`
}

// Tables is the static permission configuration. A route missing from
// Pages is open to every authenticated role; a (resource, action) pair
// missing from Actions is closed to everyone.
type Tables struct {
	Pages   map[string]PageRule          `yaml:"pages"`
	Actions map[string]map[string][]Role `yaml:"actions"`
}

// DefaultMenu is the dashboard sidebar before role filtering.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Label: "Dashboard", Href: "/dashboard", Icon: "home"},
		{Label: "Processes", Href: "/processes", Icon: "folder"},
		{Label: "Search", Href: "/search", Icon: "search"},
		{Label: "AI Assistant", Href: "/ai", Icon: "sparkles"},
		{Label: "Reports", Href: "/reports", Icon: "chart"},
		{Label: "Notifications", Href: "/notifications", Icon: "bell"},
		{Label: "Users", Href: "/users", Icon: "users"},
		{Label: "Billing", Href: "/billing", Icon: "credit-card"},
		{Label: "Settings", Href: "/settings", Icon: "settings"},
	}
}

var everyone = []Role{RoleAdmin, RoleManager, RoleLawyer, RoleAssistant}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() *Tables {
	all := func() []Role { return append([]Role(nil), everyone...) }

	return &Tables{
		Pages: map[string]PageRule{
			"/users": {
				AllowedRoles: []Role{RoleAdmin},
				Message:      "Only administrators can access user management.",
			},
			"/settings": {
				AllowedRoles: []Role{RoleAdmin, RoleManager},
				Message:      "Only administrators and managers can access settings.",
			},
			"/billing": {
				AllowedRoles: []Role{RoleAdmin},
				Message:      "Only administrators can access billing information.",
			},
			"/reports": {
				AllowedRoles: []Role{RoleAdmin, RoleManager, RoleLawyer},
				Message:      "You do not have permission to access reports.",
			},
			"/search":        {AllowedRoles: all(), Message: "You do not have permission to access search."},
			"/notifications": {AllowedRoles: all(), Message: "You do not have permission to access notifications."},
			"/dashboard":     {AllowedRoles: all(), Message: "You do not have permission to access the dashboard."},
			"/processes":     {AllowedRoles: all(), Message: "You do not have permission to access processes."},
			"/ai":            {AllowedRoles: all(), Message: "You do not have permission to access the AI assistant."},
			"/profile":       {AllowedRoles: all(), Message: "You do not have permission to access the profile."},
		},
		Actions: map[string]map[string][]Role{
			"users": {
				"create": {RoleAdmin},
				"edit":   {RoleAdmin},
				"delete": {RoleAdmin},
				"view":   {RoleAdmin},
			},
			"processes": {
				"create": {RoleAdmin, RoleManager, RoleLawyer},
				"edit":   {RoleAdmin, RoleManager, RoleLawyer},
				"delete": {RoleAdmin, RoleManager},
				"view":   all(),
			},
			"reports": {
				"create":   {RoleAdmin, RoleManager},
				"schedule": {RoleAdmin, RoleManager},
				"download": {RoleAdmin, RoleManager, RoleLawyer},
				"view":     {RoleAdmin, RoleManager, RoleLawyer},
			},
			"settings": {
				"edit": {RoleAdmin},
				"view": {RoleAdmin, RoleManager},
			},
			"billing": {
				"edit": {RoleAdmin},
				"view": {RoleAdmin},
			},
			"notifications": {
				"markAsRead": all(),
				"delete":     all(),
				"configure":  {RoleAdmin, RoleManager},
			},
			"profile": {
				"view":           all(),
				"edit":           all(),
				"changePassword": all(),
				"manageSessions": all(),
			},
		},
	}
}
