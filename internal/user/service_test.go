package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/permission"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	"github.com/frahmantamala/practice-gateway/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.EventType())
	return nil
}

type fakeAccounts struct {
	registered map[string]string
	removed    []string
	renamed    [][2]string
}

func (f *fakeAccounts) Register(ctx context.Context, email, password, tenantID, userID string) error {
	f.registered[email] = userID
	return nil
}

func (f *fakeAccounts) Remove(ctx context.Context, email string) error {
	f.removed = append(f.removed, email)
	return nil
}

func (f *fakeAccounts) Rename(ctx context.Context, oldEmail, newEmail string) error {
	f.renamed = append(f.renamed, [2]string{oldEmail, newEmail})
	return nil
}

func tenantByID(id string) *coreUser.Tenant {
	for _, t := range user.DemoTenants() {
		if t.ID == id {
			return &t
		}
	}
	return nil
}

var _ = Describe("CheckQuota", func() {
	It("refuses a starter firm with two active users", func() {
		q := user.CheckQuota(tenantByID(user.DemoTenantSilva), user.DemoSeed(user.DemoTenantSilva))
		Expect(q.CanAdd).To(BeFalse())
		Expect(q.Used).To(Equal(2))
		Expect(q.Limit).To(Equal(2))
		Expect(q.Message).To(Equal("User limit of 2 reached for the Starter plan. Upgrade your plan to add more users."))
	})

	It("ignores inactive members", func() {
		members := user.DemoSeed(user.DemoTenantSilva)
		members[1].IsActive = false
		q := user.CheckQuota(tenantByID(user.DemoTenantSilva), members)
		Expect(q.CanAdd).To(BeTrue())
		Expect(q.Used).To(Equal(1))
		Expect(q.Message).To(BeEmpty())
	})

	It("never limits enterprise firms", func() {
		q := user.CheckQuota(tenantByID(user.DemoTenantBarros), user.DemoSeed(user.DemoTenantBarros))
		Expect(q).To(Equal(user.Quota{CanAdd: true, Used: 1, Limit: user.Unlimited}))
	})

	It("reports an unknown tenant", func() {
		Expect(user.CheckQuota(nil, nil)).To(Equal(user.Quota{CanAdd: false, Limit: 0, Message: "tenant not found"}))
	})

	It("falls back to the starter limit for unknown plans", func() {
		Expect(user.PlanUserLimit("gold")).To(Equal(2))
	})
})

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		kv        storage.KV
		published *recordingPublisher
		accounts  *fakeAccounts
		svc       *user.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem, err := storage.NewMemory(100)
		Expect(err).NotTo(HaveOccurred())
		kv = mem
		published = &recordingPublisher{}
		accounts = &fakeAccounts{registered: map[string]string{}}
		svc = user.NewService(kv, user.DemoSeed, accounts, published, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	newMember := func(email string) user.CreateUserDTO {
		return user.CreateUserDTO{Email: email, Name: "New Member", Role: permission.RoleLawyer}
	}

	Describe("Add", func() {
		It("creates a member within the quota", func() {
			costa := tenantByID(user.DemoTenantCosta)
			dto := newMember("Novo@CostaSantos.com.br")
			dto.Password = "s3cret-pass"

			u, err := svc.Add(ctx, costa, "user_3", dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(HavePrefix("user_"))
			Expect(u.Email).To(Equal("novo@costasantos.com.br"))
			Expect(u.TenantID).To(Equal(user.DemoTenantCosta))
			Expect(u.IsActive).To(BeTrue())
			Expect(accounts.registered).To(HaveKeyWithValue("novo@costasantos.com.br", u.ID))
			Expect(published.types).To(Equal([]string{events.EventTypeUserCreated}))
		})

		It("refuses a new active member past the plan limit", func() {
			_, err := svc.Add(ctx, tenantByID(user.DemoTenantSilva), "user_1", newMember("x@silva.com.br"))

			Expect(errors.Is(err, internal.ErrQuotaExceeded)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Message).To(ContainSubstring("User limit of 2 reached"))

			list, _ := svc.ForTenant(ctx, user.DemoTenantSilva)
			Expect(list).To(HaveLen(2))
		})

		It("lets an inactive member through a full quota", func() {
			inactive := false
			dto := newMember("x@silva.com.br")
			dto.IsActive = &inactive

			u, err := svc.Add(ctx, tenantByID(user.DemoTenantSilva), "user_1", dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())
		})

		It("rejects duplicate emails regardless of case", func() {
			_, err := svc.Add(ctx, tenantByID(user.DemoTenantCosta), "user_3", newMember("ADVOGADO@costasantos.com.br"))
			Expect(errors.Is(err, internal.ErrDuplicateEmail)).To(BeTrue())
		})

		It("requires a known tenant", func() {
			_, err := svc.Add(ctx, nil, "user_3", newMember("a@b.com"))
			Expect(errors.Is(err, internal.ErrTenantNotFound)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		It("changes only the provided fields", func() {
			name := "Pedro Santos"
			u, err := svc.Update(ctx, user.DemoTenantCosta, "user_3", "user_4", user.UpdateUserDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal(name))
			Expect(u.Role).To(Equal(permission.RoleLawyer))
		})

		It("moves the sign-in account along with the email", func() {
			email := "Pedro@CostaSantos.com.br"
			u, err := svc.Update(ctx, user.DemoTenantCosta, "user_3", "user_4", user.UpdateUserDTO{Email: &email})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("pedro@costasantos.com.br"))
			Expect(accounts.renamed).To(Equal([][2]string{{"advogado@costasantos.com.br", "pedro@costasantos.com.br"}}))

			name := "Pedro"
			_, err = svc.Update(ctx, user.DemoTenantCosta, "user_3", "user_4", user.UpdateUserDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts.renamed).To(HaveLen(1))
		})

		It("will not demote the last administrator", func() {
			role := permission.RoleLawyer
			_, err := svc.Update(ctx, user.DemoTenantCosta, "user_3", "user_3", user.UpdateUserDTO{Role: &role})
			Expect(errors.Is(err, internal.ErrLastAdmin)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes another member and their sign-in account", func() {
			u, err := svc.Delete(ctx, user.DemoTenantCosta, "user_3", "user_5")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Maria Santos"))
			Expect(accounts.removed).To(ConsistOf("assistente@costasantos.com.br"))

			_, err = svc.Get(ctx, user.DemoTenantCosta, "user_5")
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})

		It("refuses self deletion", func() {
			_, err := svc.Delete(ctx, user.DemoTenantCosta, "user_4", "user_4")
			Expect(errors.Is(err, internal.ErrSelfModification)).To(BeTrue())
		})

		It("refuses to delete the last administrator", func() {
			_, err := svc.Delete(ctx, user.DemoTenantCosta, "user_4", "user_3")
			Expect(errors.Is(err, internal.ErrLastAdmin)).To(BeTrue())
			Expect(published.types).To(BeEmpty())
		})

		It("reports unknown ids before the other rules", func() {
			_, err := svc.Delete(ctx, user.DemoTenantCosta, "ghost", "ghost")
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("ToggleStatus", func() {
		It("deactivates and reactivates a member", func() {
			u, err := svc.ToggleStatus(ctx, user.DemoTenantCosta, "user_3", "user_4")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())

			active, _ := svc.Active(ctx, user.DemoTenantCosta)
			Expect(active).To(HaveLen(2))

			u, err = svc.ToggleStatus(ctx, user.DemoTenantCosta, "user_3", "user_4")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeTrue())
			Expect(published.types).To(Equal([]string{events.EventTypeUserStatusToggled, events.EventTypeUserStatusToggled}))
		})

		It("refuses to deactivate yourself", func() {
			_, err := svc.ToggleStatus(ctx, user.DemoTenantCosta, "user_4", "user_4")
			Expect(errors.Is(err, internal.ErrSelfModification)).To(BeTrue())
		})

		It("refuses to deactivate the last administrator", func() {
			_, err := svc.ToggleStatus(ctx, user.DemoTenantCosta, "user_4", "user_3")
			Expect(errors.Is(err, internal.ErrLastAdmin)).To(BeTrue())
		})
	})

	It("filters by role", func() {
		admins, err := svc.ByRole(ctx, user.DemoTenantCosta, permission.RoleAdmin)
		Expect(err).NotTo(HaveOccurred())
		Expect(admins).To(HaveLen(1))
		Expect(admins[0].ID).To(Equal("user_3"))
	})

	It("keeps tenants isolated", func() {
		_, err := svc.Get(ctx, user.DemoTenantSilva, "user_3")
		Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
	})

	It("reports the quota of a stored tenant", func() {
		q, err := svc.CheckQuota(ctx, tenantByID(user.DemoTenantCosta))
		Expect(err).NotTo(HaveOccurred())
		Expect(q).To(Equal(user.Quota{CanAdd: true, Used: 3, Limit: 5}))
	})
})

var _ = Describe("Tenants", func() {
	var (
		ctx     context.Context
		tenants *user.Tenants
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem, err := storage.NewMemory(10)
		Expect(err).NotTo(HaveOccurred())
		tenants = user.NewTenants(mem, user.DemoTenants())
	})

	It("serves seeded tenants until one is stored", func() {
		t, err := tenants.Get(ctx, user.DemoTenantCosta)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Plan).To(Equal(coreUser.PlanProfessional))

		t.Plan = coreUser.PlanBusiness
		Expect(tenants.Put(ctx, t)).To(Succeed())

		t, err = tenants.Get(ctx, user.DemoTenantCosta)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Plan).To(Equal(coreUser.PlanBusiness))
	})

	It("rejects unknown plans", func() {
		err := tenants.Put(ctx, coreUser.Tenant{ID: "t", Plan: "gold"})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
	})

	It("reports unknown tenants", func() {
		_, err := tenants.Get(ctx, "missing")
		Expect(errors.Is(err, internal.ErrTenantNotFound)).To(BeTrue())
	})
})
