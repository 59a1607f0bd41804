package permission_test

import (
	"os"
	"path/filepath"

	"github.com/frahmantamala/practice-gateway/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Policy file", func() {
	const policy = `
pages:
  /billing:
    allowed_roles: [admin, manager]
    message: Billing is restricted.
    redirect_to: /dashboard
actions:
  billing:
    view: [admin, manager]
`

	It("replaces the built-in tables", func() {
		tables, err := permission.ParsePolicy([]byte(policy))
		Expect(err).NotTo(HaveOccurred())

		manager := permission.NewResolver(tables, permission.RoleManager)
		Expect(manager.CanAccessPage("/billing")).To(BeTrue())
		Expect(manager.CanPerformAction("billing", "view")).To(BeTrue())
		Expect(manager.CanPerformAction("billing", "edit")).To(BeFalse())
		// pages dropped from the policy fall back to default-allow
		Expect(permission.NewResolver(tables, permission.RoleAssistant).CanAccessPage("/users")).To(BeTrue())
	})

	It("loads from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "policy.yml")
		Expect(os.WriteFile(path, []byte(policy), 0o600)).To(Succeed())

		tables, err := permission.LoadPolicyFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(tables.Pages["/billing"].RedirectTo).To(Equal("/dashboard"))
	})

	It("rejects unknown roles", func() {
		_, err := permission.ParsePolicy([]byte("pages:\n  /x:\n    allowed_roles: [owner]\n"))
		Expect(err).To(MatchError(ContainSubstring(`unknown role "owner"`)))
	})

	It("rejects unknown keys", func() {
		_, err := permission.ParsePolicy([]byte("routes: {}\n"))
		Expect(err).To(HaveOccurred())
	})

	It("accepts the built-in tables", func() {
		Expect(permission.DefaultTables().Validate()).To(Succeed())
	})
})
