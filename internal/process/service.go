package process

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/common/validation"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

// Namespace is the storage namespace of the per-tenant process lists.
const Namespace = "processes-storage"

// Upstream is the slice of the gateway client the service needs to pull
// processes from the process service.
type Upstream interface {
	Do(ctx context.Context, service, method, path string, body, out any) error
}

type Service struct {
	docs     *storage.Tenanted[[]Process]
	events   events.Publisher
	upstream Upstream
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires the process store. seed provides the initial list for
// tenants with nothing persisted; pass nil to start empty.
func NewService(kv storage.KV, seed func(tenantID string) []Process, publisher events.Publisher, upstream Upstream, logger *slog.Logger) *Service {
	if seed == nil {
		seed = func(string) []Process { return []Process{} }
	}
	return &Service{
		docs:     storage.NewTenanted(kv, Namespace, seed),
		events:   publisher,
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return "proc_" + uuid.NewString() },
	}
}

func (s *Service) Add(ctx context.Context, tenantID, actorID string, dto CreateProcessDTO) (Process, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return Process{}, appErr
	}

	p := dto.toProcess(s.newID(), tenantID, s.now())
	if _, err := s.docs.Update(ctx, tenantID, func(list []Process) ([]Process, error) {
		return add(list, p)
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to add process", "tenant_id", tenantID, "number", p.Number, "error", err)
		return Process{}, err
	}

	s.logger.InfoContext(ctx, "process created", "tenant_id", tenantID, "process_id", p.ID, "number", p.Number)
	s.publish(ctx, events.EventTypeProcessCreated, tenantID, actorID, p)
	return p, nil
}

func (s *Service) Update(ctx context.Context, tenantID, actorID, id string, dto UpdateProcessDTO) (Process, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return Process{}, appErr
	}

	var updated Process
	_, err := s.docs.Update(ctx, tenantID, func(list []Process) ([]Process, error) {
		next, p, err := replace(list, id, func(cur Process) (Process, error) {
			return dto.apply(cur, s.now()), nil
		})
		if err != nil {
			return nil, err
		}
		for _, other := range next {
			if other.ID != p.ID && other.Number == p.Number {
				return nil, internal.ErrDuplicateNumber
			}
		}
		updated = p
		return next, nil
	})
	if err != nil {
		return Process{}, err
	}

	s.logger.InfoContext(ctx, "process updated", "tenant_id", tenantID, "process_id", id)
	s.publish(ctx, events.EventTypeProcessUpdated, tenantID, actorID, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, actorID, id string) (Process, error) {
	var removed Process
	_, err := s.docs.Update(ctx, tenantID, func(list []Process) ([]Process, error) {
		next, p, err := remove(list, id)
		removed = p
		return next, err
	})
	if err != nil {
		return Process{}, err
	}

	s.logger.InfoContext(ctx, "process deleted", "tenant_id", tenantID, "process_id", id, "number", removed.Number)
	s.publish(ctx, events.EventTypeProcessDeleted, tenantID, actorID, removed)
	return removed, nil
}

func (s *Service) ToggleMonitoring(ctx context.Context, tenantID, actorID, id string) (Process, error) {
	var toggled Process
	_, err := s.docs.Update(ctx, tenantID, func(list []Process) ([]Process, error) {
		next, p, err := replace(list, id, func(cur Process) (Process, error) {
			cur.Monitoring = !cur.Monitoring
			cur.UpdatedAt = s.now()
			return cur, nil
		})
		toggled = p
		return next, err
	})
	if err != nil {
		return Process{}, err
	}

	s.logger.InfoContext(ctx, "process monitoring toggled", "tenant_id", tenantID, "process_id", id, "monitoring", toggled.Monitoring)
	s.publish(ctx, events.EventTypeProcessMonitoringToggled, tenantID, actorID, toggled)
	return toggled, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Process, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return Process{}, err
	}
	p, ok := find(list, id)
	if !ok {
		return Process{}, internal.ErrProcessNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, tenantID string, f Filter) ([]Process, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return Apply(list, f), nil
}

// All returns the tenant's processes. The slice is shared; do not modify.
func (s *Service) All(ctx context.Context, tenantID string) ([]Process, error) {
	return s.docs.Read(ctx, tenantID)
}

// Seed persists the tenant's processes, writing the demo set into an
// empty store.
func (s *Service) Seed(ctx context.Context, tenantID string) (int, error) {
	list, err := s.docs.Persist(ctx, tenantID)
	return len(list), err
}

func (s *Service) Count(ctx context.Context, tenantID string) (int, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (s *Service) Stats(ctx context.Context, tenantID string) (Stats, error) {
	list, err := s.docs.Read(ctx, tenantID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list), nil
}

// Sync replaces the tenant's cached list with the process service's view.
// The request carries the caller's session credentials.
func (s *Service) Sync(ctx context.Context, tenantID string) ([]Process, error) {
	if s.upstream == nil {
		return nil, internal.NewExternalError("process service is not configured", nil)
	}
	var remote []Process
	if err := s.upstream.Do(ctx, "process", http.MethodGet, "/api/v1/processes", nil, &remote); err != nil {
		return nil, err
	}

	for i := range remote {
		if remote[i].TenantID == "" {
			remote[i].TenantID = tenantID
		}
		if remote[i].TenantID != tenantID {
			return nil, internal.NewExternalError(
				fmt.Sprintf("process service returned process %s of another tenant", remote[i].ID), nil)
		}
		if remote[i].Tags == nil {
			remote[i].Tags = []string{}
		}
	}

	if _, err := s.docs.Update(ctx, tenantID, func([]Process) ([]Process, error) {
		return remote, nil
	}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "processes synced from upstream", "tenant_id", tenantID, "count", len(remote))
	return remote, nil
}

func (s *Service) publish(ctx context.Context, eventType, tenantID, actorID string, p Process) {
	if s.events == nil {
		return
	}
	evt := events.NewProcessEvent(eventType, tenantID, actorID, p.ID, p.Number, p.Monitoring)
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "failed to publish process event", "event_type", eventType, "error", err)
	}
}
