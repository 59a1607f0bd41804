package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/common/validation"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	coreUser "github.com/frahmantamala/practice-gateway/internal/core/user"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	"github.com/frahmantamala/practice-gateway/internal/usage"
)

const Namespace = "billing-storage"

type TenantLookup interface {
	Get(ctx context.Context, id string) (coreUser.Tenant, error)
}

type ProcessCounter interface {
	Count(ctx context.Context, tenantID string) (int, error)
}

type MemberCounter interface {
	CountActive(ctx context.Context, tenantID string) (int, error)
}

type UsageReader interface {
	Counters(ctx context.Context, tenantID string) (usage.Counters, error)
}

type Service struct {
	docs      *storage.Tenanted[Document]
	tenants   TenantLookup
	processes ProcessCounter
	members   MemberCounter
	usage     UsageReader
	events    events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(kv storage.KV, tenants TenantLookup, processes ProcessCounter, members MemberCounter, usageReader UsageReader, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		docs:      storage.NewTenanted(kv, Namespace, func(string) Document { return Document{} }),
		tenants:   tenants,
		processes: processes,
		members:   members,
		usage:     usageReader,
		events:    publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Load regenerates the invoice history for the tenant's current plan,
// persists it, and returns the full billing picture.
func (s *Service) Load(ctx context.Context, tenantID string) (Overview, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return Overview{}, err
	}

	invoices := GenerateInvoices(tenant.Plan, s.now())
	doc, err := s.docs.Update(ctx, tenantID, func(d Document) (Document, error) {
		d.Invoices = invoices
		if d.PaymentMethod == nil {
			pm := DefaultPaymentMethod()
			d.PaymentMethod = &pm
		}
		return d, nil
	})
	if err != nil {
		return Overview{}, err
	}

	current, err := s.currentUsage(ctx, tenant)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		Plan:          tenant.Plan,
		Price:         PlanPrice(tenant.Plan),
		Invoices:      doc.Invoices,
		CurrentUsage:  current,
		PaymentMethod: doc.PaymentMethod,
	}, nil
}

// CurrentUsage reports consumption against the tenant's plan. An unknown
// tenant yields all-zero meters.
func (s *Service) CurrentUsage(ctx context.Context, tenantID string) (Usage, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeTenantNotFound {
			return Usage{}, nil
		}
		return Usage{}, err
	}
	return s.currentUsage(ctx, tenant)
}

func (s *Service) currentUsage(ctx context.Context, tenant coreUser.Tenant) (Usage, error) {
	processes, err := s.processes.Count(ctx, tenant.ID)
	if err != nil {
		return Usage{}, err
	}
	members, err := s.members.CountActive(ctx, tenant.ID)
	if err != nil {
		return Usage{}, err
	}
	counters, err := s.usage.Counters(ctx, tenant.ID)
	if err != nil {
		return Usage{}, err
	}
	return ComputeUsage(tenant.Plan, processes, members, counters), nil
}

// Invoices returns the stored history, empty until Load has run.
func (s *Service) Invoices(ctx context.Context, tenantID string) ([]Invoice, error) {
	doc, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if doc.Invoices == nil {
		return []Invoice{}, nil
	}
	return doc.Invoices, nil
}

func (s *Service) Invoice(ctx context.Context, tenantID, id string) (Invoice, error) {
	list, err := s.Invoices(ctx, tenantID)
	if err != nil {
		return Invoice{}, err
	}
	for _, inv := range list {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Invoice{}, internal.ErrInvoiceNotFound
}

func (s *Service) PaymentMethod(ctx context.Context, tenantID string) (PaymentMethod, error) {
	doc, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return PaymentMethod{}, err
	}
	if doc.PaymentMethod == nil {
		return DefaultPaymentMethod(), nil
	}
	return *doc.PaymentMethod, nil
}

func (s *Service) UpdatePaymentMethod(ctx context.Context, tenantID, actorID string, dto PaymentMethodDTO) (PaymentMethod, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return PaymentMethod{}, appErr
	}
	if err := dto.check(s.now()); err != nil {
		return PaymentMethod{}, err
	}

	pm := dto.toPaymentMethod()
	if _, err := s.docs.Update(ctx, tenantID, func(d Document) (Document, error) {
		d.PaymentMethod = &pm
		return d, nil
	}); err != nil {
		return PaymentMethod{}, err
	}

	s.logger.InfoContext(ctx, "payment method updated", "tenant_id", tenantID, "type", pm.Type)
	if s.events != nil {
		evt := events.New(events.EventTypePaymentMethodUpdated, tenantID, actorID, map[string]interface{}{
			"type":  string(pm.Type),
			"last4": pm.Last4,
		})
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.WarnContext(ctx, "failed to publish payment method event", "error", err)
		}
	}
	return pm, nil
}

// LimitFor implements usage.LimitSource.
func (s *Service) LimitFor(ctx context.Context, tenantID string, metric usage.Metric) (int, bool) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return 0, false
	}
	limit := PlanLimits(tenant.Plan).For(metric)
	return limit, limit != Unlimited
}
