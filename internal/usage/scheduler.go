package usage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the reset check for every tenant on cron schedules, so
// counters roll over even for tenants nobody reads from.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	logger  *slog.Logger
}

func NewScheduler(service *Service, dailySpec, monthlySpec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), service: service, logger: logger}

	if _, err := s.cron.AddFunc(dailySpec, func() { s.run("daily") }); err != nil {
		return nil, fmt.Errorf("schedule daily usage reset %q: %w", dailySpec, err)
	}
	if monthlySpec != "" && monthlySpec != dailySpec {
		if _, err := s.cron.AddFunc(monthlySpec, func() { s.run("monthly") }); err != nil {
			return nil, fmt.Errorf("schedule monthly usage reset %q: %w", monthlySpec, err)
		}
	}
	return s, nil
}

// CheckAndReset is idempotent, so both schedules run the same sweep.
func (s *Scheduler) run(trigger string) {
	ctx := context.Background()
	n, err := s.service.CheckAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "usage reset sweep failed", "trigger", trigger, "tenants", n, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "usage reset sweep completed", "trigger", trigger, "tenants", n)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
