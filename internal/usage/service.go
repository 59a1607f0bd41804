package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

// Namespace is the storage namespace of the per-tenant counters.
const Namespace = "usage-tracking"

// LimitSource reports the plan limit of a metric for a tenant; ok is
// false when the plan does not cap it.
type LimitSource interface {
	LimitFor(ctx context.Context, tenantID string, metric Metric) (limit int, ok bool)
}

type Recorder interface {
	RecordUsageIncrement(metric string)
	RecordUsageReset(period string)
}

type Service struct {
	docs     *storage.Tenanted[Counters]
	limits   LimitSource
	events   events.Publisher
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(kv storage.KV, publisher events.Publisher, recorder Recorder, logger *slog.Logger) *Service {
	s := &Service{
		events:   publisher,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
	s.docs = storage.NewTenanted(kv, Namespace, func(string) Counters { return Fresh(s.now()) })
	return s
}

// SetLimitSource enables usage.limit_reached events.
func (s *Service) SetLimitSource(limits LimitSource) {
	s.limits = limits
}

// Increment applies any due reset and then adds amount to metric, so the
// first increment of a new period counts from zero.
func (s *Service) Increment(ctx context.Context, tenantID string, metric Metric, amount int) (Counters, error) {
	if amount <= 0 {
		amount = 1
	}
	var (
		before         int
		daily, monthly bool
	)
	next, err := s.docs.Update(ctx, tenantID, func(c Counters) (Counters, error) {
		c, daily, monthly = c.CheckAndReset(s.now())
		before = c.Get(metric)
		return c.Add(metric, amount), nil
	})
	if err != nil {
		return Counters{}, err
	}
	if daily {
		s.recordReset(ctx, tenantID, "daily")
	}
	if monthly {
		s.recordReset(ctx, tenantID, "monthly")
	}
	if s.recorder != nil {
		s.recorder.RecordUsageIncrement(string(metric))
	}

	if s.limits != nil {
		if limit, ok := s.limits.LimitFor(ctx, tenantID, metric); ok && before < limit && next.Get(metric) >= limit {
			s.logger.InfoContext(ctx, "usage limit reached", "tenant_id", tenantID, "metric", metric, "limit", limit)
			s.publish(ctx, events.NewUsageLimitReachedEvent(tenantID, string(metric), next.Get(metric), limit))
		}
	}
	return next, nil
}

// Counters returns the tenant's counters after applying any due reset.
func (s *Service) Counters(ctx context.Context, tenantID string) (Counters, error) {
	return s.CheckAndReset(ctx, tenantID)
}

// Get is the current value of one metric, reset-checked first.
func (s *Service) Get(ctx context.Context, tenantID string, metric Metric) (int, error) {
	c, err := s.CheckAndReset(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return c.Get(metric), nil
}

var errUnchanged = errors.New("usage: unchanged")

func (s *Service) CheckAndReset(ctx context.Context, tenantID string) (Counters, error) {
	var daily, monthly bool
	c, err := s.docs.Update(ctx, tenantID, func(c Counters) (Counters, error) {
		next, d, m := c.CheckAndReset(s.now())
		if !d && !m {
			return c, errUnchanged
		}
		daily, monthly = d, m
		return next, nil
	})
	if errors.Is(err, errUnchanged) {
		return s.docs.Read(ctx, tenantID)
	}
	if err != nil {
		return Counters{}, err
	}
	if daily {
		s.recordReset(ctx, tenantID, "daily")
	}
	if monthly {
		s.recordReset(ctx, tenantID, "monthly")
	}
	return c, nil
}

func (s *Service) ResetDaily(ctx context.Context, tenantID string) (Counters, error) {
	c, err := s.docs.Update(ctx, tenantID, func(c Counters) (Counters, error) {
		return c.ResetDaily(s.now()), nil
	})
	if err == nil {
		s.recordReset(ctx, tenantID, "daily")
	}
	return c, err
}

func (s *Service) ResetMonthly(ctx context.Context, tenantID string) (Counters, error) {
	c, err := s.docs.Update(ctx, tenantID, func(c Counters) (Counters, error) {
		return c.ResetMonthly(s.now()), nil
	})
	if err == nil {
		s.recordReset(ctx, tenantID, "monthly")
	}
	return c, err
}

// CheckAll runs CheckAndReset for every tenant with stored counters and
// returns how many were visited.
func (s *Service) CheckAll(ctx context.Context) (int, error) {
	tenants, err := s.docs.Tenants(ctx)
	if err != nil {
		return 0, err
	}
	var errs []error
	for _, tid := range tenants {
		if _, err := s.CheckAndReset(ctx, tid); err != nil {
			errs = append(errs, err)
		}
	}
	return len(tenants), errors.Join(errs...)
}

// Subscribe keeps the lifetime totals in step with the domain stores.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeProcessCreated, func(ctx context.Context, e events.Event) error {
		_, err := s.Increment(ctx, e.TenantID(), TotalProcesses, 1)
		return err
	})
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) error {
		_, err := s.Increment(ctx, e.TenantID(), TotalUsers, 1)
		return err
	})
}

func (s *Service) recordReset(ctx context.Context, tenantID, period string) {
	s.logger.InfoContext(ctx, "usage counters reset", "tenant_id", tenantID, "period", period)
	if s.recorder != nil {
		s.recorder.RecordUsageReset(period)
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish usage event", "error", err)
	}
}
