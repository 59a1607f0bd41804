package guard_test

import (
	"testing"

	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/guard"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGuard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Guard Suite")
}

func signedIn(role permission.Role) session.State {
	st, err := session.Login(
		coreUser.User{ID: "u-" + string(role), Role: role, TenantID: "t1", IsActive: true},
		coreUser.Tenant{ID: "t1", Plan: coreUser.PlanBusiness},
		"upstream-token",
	)
	Expect(err).NotTo(HaveOccurred())
	return st
}

type countingRecorder struct {
	counts map[string]int
}

func (c *countingRecorder) RecordGuardDecision(outcome string) {
	c.counts[outcome]++
}

var _ = Describe("Guard.Evaluate", func() {
	var (
		g   *guard.Guard
		rec *countingRecorder
	)

	BeforeEach(func() {
		rec = &countingRecorder{counts: map[string]int{}}
		g = guard.New(permission.DefaultTables(), guard.Options{Recorder: rec})
	})

	It("sends a signed-out visitor to the login page on every route", func() {
		for _, route := range []string{"/dashboard", "/users", "/unknown"} {
			d := g.Evaluate(session.Initial(), route)
			Expect(d.Outcome).To(Equal(guard.Unauthenticated))
			Expect(d.Location).To(Equal("/login"))
			Expect(d.Denial).To(BeNil())
		}
		Expect(rec.counts["unauthenticated"]).To(Equal(3))
	})

	It("authorizes allowed roles", func() {
		Expect(g.Evaluate(signedIn(permission.RoleAdmin), "/users").Outcome).To(Equal(guard.Authorized))
		Expect(g.Evaluate(signedIn(permission.RoleLawyer), "/reports").Outcome).To(Equal(guard.Authorized))
	})

	It("authorizes routes missing from the page table", func() {
		Expect(g.Evaluate(signedIn(permission.RoleAssistant), "/help").Outcome).To(Equal(guard.Authorized))
	})

	It("builds the denial view for an assistant on /users", func() {
		d := g.Evaluate(signedIn(permission.RoleAssistant), "/users")
		Expect(d.Outcome).To(Equal(guard.Denied))
		Expect(d.Denial).NotTo(BeNil())
		Expect(d.Denial.Message).To(Equal("Only administrators can access user management."))
		Expect(d.Denial.CurrentRole).To(Equal(permission.RoleAssistant))
		Expect(d.Denial.CurrentRoleLabel).To(Equal("Assistant"))
		Expect(d.Denial.AllowedRoles).To(Equal([]permission.Role{permission.RoleAdmin}))
		Expect(d.Denial.AllowedRoleLabels).To(Equal([]string{"Administrator"}))
		Expect(d.Denial.Hint).NotTo(BeEmpty())
		Expect(d.Denial.Actions).To(HaveLen(2))
		Expect(d.Denial.Actions[0].Href).To(Equal("/dashboard"))
		Expect(d.Denial.Actions[1].Kind).To(Equal("back"))
	})

	It("omits the administrator hint for other roles", func() {
		d := g.Evaluate(signedIn(permission.RoleLawyer), "/billing")
		Expect(d.Outcome).To(Equal(guard.Denied))
		Expect(d.Denial.Hint).To(BeEmpty())
	})

	It("redirects when the rule names a target", func() {
		tables := permission.DefaultTables()
		tables.Pages["/billing"] = permission.PageRule{
			AllowedRoles: []permission.Role{permission.RoleAdmin},
			RedirectTo:   "/profile",
		}
		g = guard.New(tables, guard.Options{LandingRoute: "/processes"})

		d := g.Evaluate(signedIn(permission.RoleManager), "/billing")
		Expect(d.Outcome).To(Equal(guard.Redirect))
		Expect(d.Location).To(Equal("/profile"))
	})

	It("uses the configured landing route in recovery actions", func() {
		g = guard.New(permission.DefaultTables(), guard.Options{LandingRoute: "/processes"})
		d := g.Evaluate(signedIn(permission.RoleAssistant), "/settings")
		Expect(d.Denial.Actions[0].Href).To(Equal("/processes"))
	})

	It("guards explicit role lists", func() {
		roles := []permission.Role{permission.RoleAdmin, permission.RoleManager}
		Expect(g.EvaluateRoles(signedIn(permission.RoleManager), "/x", roles).Outcome).To(Equal(guard.Authorized))
		d := g.EvaluateRoles(signedIn(permission.RoleLawyer), "/x", roles)
		Expect(d.Outcome).To(Equal(guard.Denied))
		Expect(d.Denial.AllowedRoleLabels).To(Equal([]string{"Administrator", "Manager"}))
	})
})
