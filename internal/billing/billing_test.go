package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	"github.com/frahmantamala/practice-gateway/internal/usage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBilling(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Billing Suite")
}

type stubTenants map[string]coreUser.Tenant

func (s stubTenants) Get(ctx context.Context, id string) (coreUser.Tenant, error) {
	t, ok := s[id]
	if !ok {
		return coreUser.Tenant{}, internal.ErrTenantNotFound
	}
	return t, nil
}

type stubCount int

func (c stubCount) Count(ctx context.Context, tenantID string) (int, error)       { return int(c), nil }
func (c stubCount) CountActive(ctx context.Context, tenantID string) (int, error) { return int(c), nil }

type stubUsage usage.Counters

func (u stubUsage) Counters(ctx context.Context, tenantID string) (usage.Counters, error) {
	return usage.Counters(u), nil
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

var _ = Describe("Plans", func() {
	It("caps enterprise DataJud queries while leaving the rest unlimited", func() {
		l := PlanLimits(coreUser.PlanEnterprise)
		Expect(l.Processes).To(Equal(Unlimited))
		Expect(l.Users).To(Equal(Unlimited))
		Expect(l.DatajudQueries).To(Equal(10000))
	})

	It("falls back to starter for unknown plans", func() {
		Expect(PlanLimits("gold")).To(Equal(PlanLimits(coreUser.PlanStarter)))
		Expect(PlanPrice("gold")).To(Equal(99.0))
		Expect(PlanPrice(coreUser.PlanBusiness)).To(Equal(699.0))
	})
})

var _ = Describe("GenerateInvoices", func() {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

	It("covers the last twelve months newest first", func() {
		list := GenerateInvoices(coreUser.PlanProfessional, now)
		Expect(list).To(HaveLen(12))
		Expect(list[0].ID).To(Equal("inv_0"))
		Expect(list[0].Number).To(Equal("INV-2025-03"))
		Expect(list[0].Period).To(Equal("March 2025"))
		Expect(list[0].DueDate).To(Equal(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))
		Expect(list[11].Number).To(Equal("INV-2024-04"))
		for _, inv := range list {
			Expect(inv.Amount).To(Equal(299.0))
		}
	})

	It("marks issued invoices paid two days before their due date", func() {
		inv := GenerateInvoices(coreUser.PlanStarter, now)[1]
		Expect(inv.Status).To(Equal(InvoicePaid))
		Expect(*inv.PaidAt).To(Equal(time.Date(2025, time.February, 8, 0, 0, 0, 0, time.UTC)))
		Expect(inv.DownloadURL).To(Equal("/api/invoices/2025/2"))
	})

	It("leaves an invoice issued exactly now pending", func() {
		first := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		inv := GenerateInvoices(coreUser.PlanStarter, first)[0]
		Expect(inv.Status).To(Equal(InvoicePending))
		Expect(inv.PaidAt).To(BeNil())
		Expect(inv.DownloadURL).To(BeEmpty())
	})
})

var _ = Describe("Service", func() {
	const tenant = "t-1"

	var (
		ctx       context.Context
		svc       *Service
		published *recordingPublisher
		kv        storage.KV
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem, err := storage.NewMemory(100)
		Expect(err).NotTo(HaveOccurred())
		kv = mem
		published = &recordingPublisher{}
		tenants := stubTenants{tenant: {ID: tenant, Plan: coreUser.PlanStarter}}
		svc = NewService(kv, tenants, stubCount(3), stubCount(0),
			stubUsage(usage.Counters{AISummaries: 4, DatajudQueries: 7}), published,
			slog.New(slog.NewTextHandler(io.Discard, nil)))
		svc.now = func() time.Time { return time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC) }
	})

	It("loads invoices, usage and the default payment method", func() {
		o, err := svc.Load(ctx, tenant)
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Invoices).To(HaveLen(12))
		Expect(o.Price).To(Equal(99.0))
		Expect(*o.PaymentMethod).To(Equal(DefaultPaymentMethod()))
		Expect(o.CurrentUsage.Processes).To(Equal(Meter{Used: 3, Limit: 50}))
		Expect(o.CurrentUsage.Users).To(Equal(Meter{Used: 1, Limit: 2}))
		Expect(o.CurrentUsage.AISummaries).To(Equal(Meter{Used: 4, Limit: 10}))
		Expect(o.CurrentUsage.DatajudQueries).To(Equal(Meter{Used: 7, Limit: 100}))

		inv, err := svc.Invoice(ctx, tenant, "inv_3")
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Number).To(Equal("INV-2024-12"))
	})

	It("reports unknown invoices", func() {
		_, err := svc.Invoice(ctx, tenant, "inv_99")
		Expect(errors.Is(err, internal.ErrInvoiceNotFound)).To(BeTrue())
	})

	It("returns zero meters for an unknown tenant", func() {
		u, err := svc.CurrentUsage(ctx, "ghost")
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal(Usage{}))
	})

	It("stores a new payment method and announces it", func() {
		pm, err := svc.UpdatePaymentMethod(ctx, tenant, "user_1", PaymentMethodDTO{Type: PaymentPix})
		Expect(err).NotTo(HaveOccurred())
		Expect(pm.Type).To(Equal(PaymentPix))
		Expect(pm.IsDefault).To(BeTrue())
		Expect(published.types).To(Equal([]string{events.EventTypePaymentMethodUpdated}))

		reopened := NewService(kv, nil, nil, nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		stored, err := reopened.PaymentMethod(ctx, tenant)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Type).To(Equal(PaymentPix))
	})

	It("requires card details and refuses expired cards", func() {
		_, err := svc.UpdatePaymentMethod(ctx, tenant, "user_1", PaymentMethodDTO{Type: PaymentCreditCard})
		Expect(err).To(HaveOccurred())

		_, err = svc.UpdatePaymentMethod(ctx, tenant, "user_1", PaymentMethodDTO{
			Type: PaymentCreditCard, Last4: "1111", Brand: "visa", ExpiryMonth: 2, ExpiryYear: 2025,
		})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		Expect(published.types).To(BeEmpty())
	})

	It("exposes plan limits to usage tracking", func() {
		limit, ok := svc.LimitFor(ctx, tenant, usage.AISummaries)
		Expect(ok).To(BeTrue())
		Expect(limit).To(Equal(10))

		_, ok = svc.LimitFor(ctx, "ghost", usage.AISummaries)
		Expect(ok).To(BeFalse())
	})
})
