// Package guard decides, for every protected navigation, whether the
// signed-in user sees the page, is redirected, or gets the access
// restricted view.
package guard

import (
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/session"
)

type Outcome string

const (
	Unauthenticated Outcome = "unauthenticated"
	Authorized      Outcome = "authorized"
	Denied          Outcome = "denied"
	Redirect        Outcome = "redirect"
)

// Decision is the result of guarding one route. Location is set for
// Unauthenticated and Redirect, Denial for Denied.
type Decision struct {
	Outcome  Outcome     `json:"outcome"`
	Route    string      `json:"route"`
	Location string      `json:"location,omitempty"`
	Denial   *DenialView `json:"denial,omitempty"`
}

type RecoveryAction struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

// DenialView is everything the access restricted screen renders.
type DenialView struct {
	Title             string            `json:"title"`
	Message           string            `json:"message"`
	CurrentRole       permission.Role   `json:"currentRole"`
	CurrentRoleLabel  string            `json:"currentRoleLabel"`
	AllowedRoles      []permission.Role `json:"allowedRoles"`
	AllowedRoleLabels []string          `json:"allowedRoleLabels"`
	Actions           []RecoveryAction  `json:"actions"`
	Hint              string            `json:"hint,omitempty"`
}

const (
	deniedTitle   = "Access restricted"
	assistantHint = "Need more access? Ask your firm's administrator to review your permissions."
)

// Recorder receives one call per decision.
type Recorder interface {
	RecordGuardDecision(outcome string)
}

type Options struct {
	// LandingRoute is the default authorized page offered on denial.
	LandingRoute string
	// LoginRoute is where unauthenticated visitors are sent.
	LoginRoute string
	Recorder   Recorder
}

type Guard struct {
	tables  *permission.Tables
	landing string
	login   string
	rec     Recorder
}

func New(tables *permission.Tables, opts Options) *Guard {
	if tables == nil {
		tables = permission.DefaultTables()
	}
	if opts.LandingRoute == "" {
		opts.LandingRoute = "/dashboard"
	}
	if opts.LoginRoute == "" {
		opts.LoginRoute = "/login"
	}
	return &Guard{tables: tables, landing: opts.LandingRoute, login: opts.LoginRoute, rec: opts.Recorder}
}

func (g *Guard) Tables() *permission.Tables {
	return g.tables
}

func (g *Guard) LoginRoute() string {
	return g.login
}

// Evaluate guards a dashboard route for the given session.
func (g *Guard) Evaluate(state session.State, route string) Decision {
	if state.User == nil || !state.IsAuthenticated {
		return g.record(Decision{Outcome: Unauthenticated, Route: route, Location: g.login})
	}

	access := state.Resolver(g.tables).GetPagePermission(route)
	if access.HasAccess {
		return g.record(Decision{Outcome: Authorized, Route: route})
	}
	if access.RedirectTo != "" {
		return g.record(Decision{Outcome: Redirect, Route: route, Location: access.RedirectTo})
	}
	return g.record(Decision{
		Outcome: Denied,
		Route:   route,
		Denial:  g.denialView(state.Role(), access.Message, access.AllowedRoles),
	})
}

// EvaluateRoles guards content restricted to an explicit role list rather
// than a page rule.
func (g *Guard) EvaluateRoles(state session.State, route string, roles []permission.Role) Decision {
	if state.User == nil || !state.IsAuthenticated {
		return g.record(Decision{Outcome: Unauthenticated, Route: route, Location: g.login})
	}
	if state.Resolver(g.tables).HasRole(roles...) {
		return g.record(Decision{Outcome: Authorized, Route: route})
	}
	return g.record(Decision{
		Outcome: Denied,
		Route:   route,
		Denial:  g.denialView(state.Role(), permission.DefaultDenialMessage, roles),
	})
}

func (g *Guard) denialView(role permission.Role, message string, allowed []permission.Role) *DenialView {
	if allowed == nil {
		allowed = []permission.Role{}
	}
	view := &DenialView{
		Title:             deniedTitle,
		Message:           message,
		CurrentRole:       role,
		CurrentRoleLabel:  role.Label(),
		AllowedRoles:      allowed,
		AllowedRoleLabels: permission.Labels(allowed),
		Actions: []RecoveryAction{
			{Kind: "navigate", Label: "Go to dashboard", Href: g.landing},
			{Kind: "back", Label: "Go back"},
		},
	}
	if role == permission.RoleAssistant {
		view.Hint = assistantHint
	}
	return view
}

func (g *Guard) record(d Decision) Decision {
	if g.rec != nil {
		g.rec.RecordGuardDecision(string(d.Outcome))
	}
	return d
}
