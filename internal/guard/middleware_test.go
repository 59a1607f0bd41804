package guard_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal/guard"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Middleware", func() {
	var (
		mw      *guard.Middleware
		reached bool
		next    http.Handler
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mw = guard.NewMiddleware(guard.New(permission.DefaultTables(), guard.Options{}), slogger)
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(h http.Handler, st *session.State, accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		if st != nil {
			req = req.WithContext(session.WithState(req.Context(), "sid", *st))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	Describe("RequirePage", func() {
		It("redirects browser navigations without a session to /login", func() {
			w := serve(mw.RequirePage("/users")(next), nil, "text/html")
			Expect(w.Code).To(Equal(http.StatusFound))
			Expect(w.Header().Get("Location")).To(Equal("/login"))
			Expect(reached).To(BeFalse())
		})

		It("answers API calls without a session with 401", func() {
			w := serve(mw.RequirePage("/users")(next), nil, "application/json")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(reached).To(BeFalse())
		})

		It("renders the denial view as 403", func() {
			st := signedIn(permission.RoleAssistant)
			w := serve(mw.RequirePage("/users")(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(reached).To(BeFalse())

			var body struct {
				Error struct {
					Code    string           `json:"code"`
					Message string           `json:"message"`
					Details guard.DenialView `json:"details"`
				} `json:"error"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.Error.Code).To(Equal("ACCESS_DENIED"))
			Expect(body.Error.Message).To(Equal("Only administrators can access user management."))
			Expect(body.Error.Details.CurrentRoleLabel).To(Equal("Assistant"))
			Expect(body.Error.Details.AllowedRoles).To(Equal([]permission.Role{permission.RoleAdmin}))
		})

		It("passes authorized requests through", func() {
			st := signedIn(permission.RoleAdmin)
			w := serve(mw.RequirePage("/users")(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(reached).To(BeTrue())
		})
	})

	Describe("RequireAction", func() {
		It("blocks roles outside the action allow-list", func() {
			st := signedIn(permission.RoleLawyer)
			w := serve(mw.RequireAction("processes", "delete")(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(reached).To(BeFalse())
		})

		It("blocks unknown actions for every role", func() {
			st := signedIn(permission.RoleAdmin)
			w := serve(mw.RequireAction("processes", "archive")(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("allows permitted actions", func() {
			st := signedIn(permission.RoleManager)
			w := serve(mw.RequireAction("processes", "delete")(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})
	})

	Describe("RequireRoute", func() {
		It("uses the page the API path belongs to", func() {
			st := signedIn(permission.RoleLawyer)
			w := serve(mw.RequireRoute(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusForbidden))

			st = signedIn(permission.RoleAdmin)
			w = serve(mw.RequireRoute(next), &st, "")
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("maps nested API paths to their page", func() {
			Expect(guard.PageOf("/api/v1/processes/42/monitoring")).To(Equal("/processes"))
			Expect(guard.PageOf("/api/v1/billing")).To(Equal("/billing"))
			Expect(guard.PageOf("/dashboard")).To(Equal("/dashboard"))
		})
	})

	Describe("RequireService", func() {
		proxy := func(service string, st session.State) *httptest.ResponseRecorder {
			r := chi.NewRouter()
			r.With(mw.RequireService).Handle("/proxy/{service}/*", next)
			req := httptest.NewRequest(http.MethodGet, "/proxy/"+service+"/anything", nil)
			req = req.WithContext(session.WithState(req.Context(), "sid", st))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			return w
		}

		It("applies the page rule of the service's page", func() {
			Expect(proxy("report", signedIn(permission.RoleAssistant)).Code).To(Equal(http.StatusForbidden))
			Expect(proxy("tenant", signedIn(permission.RoleLawyer)).Code).To(Equal(http.StatusForbidden))
			Expect(reached).To(BeFalse())

			Expect(proxy("report", signedIn(permission.RoleLawyer)).Code).To(Equal(http.StatusNoContent))
			Expect(reached).To(BeTrue())
		})

		It("refuses services without a page", func() {
			Expect(proxy("datajud", signedIn(permission.RoleAdmin)).Code).To(Equal(http.StatusNotFound))
			Expect(reached).To(BeFalse())
		})
	})

	Describe("Check", func() {
		It("returns the decision for the requested route", func() {
			st := signedIn(permission.RoleManager)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/guard/check?route=/billing", nil)
			req = req.WithContext(session.WithState(req.Context(), "sid", st))
			w := httptest.NewRecorder()

			mw.Check(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var d guard.Decision
			Expect(json.NewDecoder(w.Body).Decode(&d)).To(Succeed())
			Expect(d.Outcome).To(Equal(guard.Denied))
			Expect(d.Denial.CurrentRoleLabel).To(Equal("Manager"))
		})

		It("requires the route parameter", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/guard/check", nil)
			w := httptest.NewRecorder()
			mw.Check(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
