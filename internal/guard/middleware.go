package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/session"
	"github.com/frahmantamala/practice-gateway/internal/transport"
)

const APIPrefix = "/api/v1"

// Middleware turns guard decisions into HTTP responses. It expects the
// session to be resolved into the request context already.
type Middleware struct {
	*transport.BaseHandler
	guard *Guard
}

func NewMiddleware(g *Guard, logger *slog.Logger) *Middleware {
	return &Middleware{BaseHandler: transport.NewBaseHandler(logger), guard: g}
}

// RequirePage guards the wrapped handlers with the rule for page.
func (m *Middleware) RequirePage(page string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := m.guard.Evaluate(session.FromContext(r.Context()), page)
			if d.Outcome == Authorized {
				next.ServeHTTP(w, r)
				return
			}
			m.render(w, r, d)
		})
	}
}

// RequireRoute guards each request with the rule for the page its path
// belongs to, see PageOf.
func (m *Middleware) RequireRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := m.guard.Evaluate(session.FromContext(r.Context()), PageOf(r.URL.Path))
		if d.Outcome == Authorized {
			next.ServeHTTP(w, r)
			return
		}
		m.render(w, r, d)
	})
}

// PageOf maps an API path to the dashboard page that owns it:
// /api/v1/processes/42/monitoring belongs to /processes.
func PageOf(path string) string {
	path = strings.TrimPrefix(path, APIPrefix)
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return "/" + path
}

// ServicePages names the dashboard page that owns each upstream service.
// Pass-through calls to a service are allowed exactly when its page is.
var ServicePages = map[string]string{
	"auth":         "/profile",
	"tenant":       "/settings",
	"process":      "/processes",
	"report":       "/reports",
	"search":       "/search",
	"ai":           "/ai",
	"notification": "/notifications",
}

// RequireService guards /proxy/{service}/* with the rule for the page that
// owns the service. Services without a page are refused.
func (m *Middleware) RequireService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := ServicePages[chi.URLParam(r, "service")]
		if !ok {
			m.WriteAppError(w, r, internal.NewNotFoundError("unknown service", "SERVICE_NOT_FOUND"))
			return
		}
		d := m.guard.Evaluate(session.FromContext(r.Context()), page)
		if d.Outcome == Authorized {
			next.ServeHTTP(w, r)
			return
		}
		m.render(w, r, d)
	})
}

// RequireAuthenticated only checks that somebody is signed in.
func (m *Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := session.FromContext(r.Context())
		if st.User == nil || !st.IsAuthenticated {
			m.render(w, r, Decision{Outcome: Unauthenticated, Route: r.URL.Path, Location: m.guard.login})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAction lets the request through only when the role may perform
// action on resource.
func (m *Middleware) RequireAction(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := session.FromContext(r.Context())
			if st.User == nil || !st.IsAuthenticated {
				m.render(w, r, Decision{Outcome: Unauthenticated, Route: r.URL.Path, Location: m.guard.login})
				return
			}
			if !st.Resolver(m.guard.tables).CanPerformAction(resource, action) {
				m.Logger.WarnContext(r.Context(), "access denied: action not permitted",
					"user_id", st.UserID(),
					"role", st.Role(),
					"resource", resource,
					"action", action)
				m.guard.record(Decision{Outcome: Denied})
				m.WriteAppError(w, r, internal.ErrAccessDenied.WithDetails(map[string]string{
					"resource": resource,
					"action":   action,
				}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles restricts the wrapped handlers to an explicit role list.
func (m *Middleware) RequireRoles(roles ...permission.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := m.guard.EvaluateRoles(session.FromContext(r.Context()), r.URL.Path, roles)
			if d.Outcome == Authorized {
				next.ServeHTTP(w, r)
				return
			}
			m.render(w, r, d)
		})
	}
}

// Check answers GET /guard/check?route=/users for the dashboard's client
// side navigation. It always responds 200 with the decision.
func (m *Middleware) Check(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if route == "" {
		m.WriteAppError(w, r, internal.NewValidationFieldError("route", "route is required", internal.ErrCodeValidationFailed))
		return
	}
	m.WriteJSON(w, http.StatusOK, m.guard.Evaluate(session.FromContext(r.Context()), route))
}

func (m *Middleware) render(w http.ResponseWriter, r *http.Request, d Decision) {
	switch d.Outcome {
	case Unauthenticated:
		if transport.WantsHTML(r) {
			http.Redirect(w, r, d.Location, http.StatusFound)
			return
		}
		m.WriteAppError(w, r, internal.ErrSessionRequired.WithDetails(map[string]string{"redirectTo": d.Location}))
	case Redirect:
		if transport.WantsHTML(r) {
			http.Redirect(w, r, d.Location, http.StatusFound)
			return
		}
		m.WriteAppError(w, r, internal.ErrAccessDenied.WithDetails(map[string]string{"redirectTo": d.Location}))
	case Denied:
		st := session.FromContext(r.Context())
		m.Logger.WarnContext(r.Context(), "access denied: page not permitted",
			"user_id", st.UserID(),
			"role", st.Role(),
			"route", d.Route)
		m.WriteAppError(w, r, internal.ErrAccessDenied.WithMessage(d.Denial.Message).WithDetails(d.Denial))
	}
}
