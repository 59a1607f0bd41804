package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/auth"
	"github.com/frahmantamala/practice-gateway/internal/billing"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/guard"
	"github.com/frahmantamala/practice-gateway/internal/notification"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/process"
	"github.com/frahmantamala/practice-gateway/internal/search"
	"github.com/frahmantamala/practice-gateway/internal/session"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	"github.com/frahmantamala/practice-gateway/internal/transport/swagger"
	"github.com/frahmantamala/practice-gateway/internal/usage"
	"github.com/frahmantamala/practice-gateway/internal/user"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

// fakeSessions resolves fixed bearer tokens to signed-in states.
type fakeSessions struct {
	states map[string]session.State
}

func (f *fakeSessions) Login(ctx context.Context, dto auth.LoginDTO) (session.Started, error) {
	return session.Started{}, internal.ErrInvalidCredentials
}

func (f *fakeSessions) Logout(ctx context.Context, sid string) error { return nil }

func (f *fakeSessions) Resolve(ctx context.Context, token string) (string, session.State, error) {
	st, ok := f.states[token]
	if !ok {
		return "", session.State{}, internal.ErrInvalidToken
	}
	return "sid-" + token, st, nil
}

func signedIn(role permission.Role) session.State {
	st, err := session.Login(
		coreUser.User{ID: "u-" + string(role), Name: string(role), Role: role, TenantID: process.DemoTenantID, IsActive: true},
		coreUser.Tenant{ID: process.DemoTenantID, Name: "Demo", Plan: coreUser.PlanProfessional, IsActive: true},
		"upstream-token",
	)
	Expect(err).NotTo(HaveOccurred())
	return st
}

var _ = Describe("RegisterAllRoutes", func() {
	var (
		router  *chi.Mux
		quiet   *slog.Logger
		proxied []string
	)

	BeforeEach(func() {
		quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
		proxied = nil
		mem, err := storage.NewMemory(1000)
		Expect(err).NotTo(HaveOccurred())

		tables := permission.DefaultTables()
		sessions := &fakeSessions{states: map[string]session.State{
			"admin-token":     signedIn(permission.RoleAdmin),
			"assistant-token": signedIn(permission.RoleAssistant),
		}}
		processes := process.NewService(mem, process.DemoSeed, nil, nil, quiet)

		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Health:       NewHealthHandler(nil, mem),
			Auth:         auth.NewHandler(sessions, tables, auth.CookieConfig{}, quiet),
			Guard:        guard.NewMiddleware(guard.New(tables, guard.Options{}), quiet),
			Process:      process.NewHandler(processes, quiet),
			User:         &user.Handler{},
			Billing:      &billing.Handler{},
			Usage:        &usage.Handler{},
			Search:       &search.Handler{},
			Notification: &notification.Handler{},
			Proxy:        http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				proxied = append(proxied, r.URL.Path)
				w.WriteHeader(http.StatusOK)
			}),
		}, RouterOptions{AllowedOrigins: []string{"*"}})
	})

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("documents every API route in the OpenAPI description", func() {
		doc, err := swagger.Load(context.Background(), "../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.BasePath()).To(Equal(guard.APIPrefix))

		var missing []string
		err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, guard.APIPrefix) {
				return nil
			}
			path := strings.TrimPrefix(route, guard.APIPrefix)
			if strings.HasPrefix(path, "/proxy/") {
				path = strings.TrimSuffix(path, "*") + "{path}"
				method = http.MethodGet
			}
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}
			if !doc.Documents(method, path) {
				missing = append(missing, method+" "+path)
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(missing).To(BeEmpty())
	})

	It("serves liveness and health without a session", func() {
		Expect(do(http.MethodGet, "/api/v1/ping", "").Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/api/v1/health", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var body HealthResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Components).To(HaveKey("storage"))
	})

	It("rejects protected routes without a session", func() {
		w := do(http.MethodGet, "/api/v1/processes", "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("/login"))
	})

	It("lets a signed-in member list processes", func() {
		w := do(http.MethodGet, "/api/v1/processes", "assistant-token")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Request-ID")).NotTo(BeEmpty())
	})

	It("refuses actions outside the role", func() {
		w := do(http.MethodDelete, "/api/v1/processes/proc_1", "assistant-token")
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("guards pages the role may not open", func() {
		w := do(http.MethodGet, "/api/v1/users", "assistant-token")
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	Describe("pass-through proxy", func() {
		It("refuses services whose page the role may not open", func() {
			w := do(http.MethodGet, "/api/v1/proxy/report/reports/monthly", "assistant-token")
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(w.Body.String()).To(ContainSubstring("You do not have permission to access reports."))
			Expect(proxied).To(BeEmpty())
		})

		It("forwards services the role may use", func() {
			Expect(do(http.MethodGet, "/api/v1/proxy/process/processes", "assistant-token").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/api/v1/proxy/report/reports/monthly", "admin-token").Code).To(Equal(http.StatusOK))
			Expect(proxied).To(Equal([]string{"/api/v1/proxy/process/processes", "/api/v1/proxy/report/reports/monthly"}))
		})

		It("rejects unknown services before forwarding", func() {
			Expect(do(http.MethodGet, "/api/v1/proxy/billing/anything", "admin-token").Code).To(Equal(http.StatusNotFound))
			Expect(proxied).To(BeEmpty())
		})

		It("requires a session", func() {
			Expect(do(http.MethodGet, "/api/v1/proxy/process/processes", "").Code).To(Equal(http.StatusUnauthorized))
			Expect(proxied).To(BeEmpty())
		})
	})
})
