package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/process"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

const Namespace = "search-storage"

type SavedSearch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	Filters   Filters   `json:"filters"`
	CreatedAt time.Time `json:"createdAt"`
}

// History is the per-tenant search state that survives restarts.
type History struct {
	RecentSearches []string      `json:"recentSearches"`
	SavedSearches  []SavedSearch `json:"savedSearches"`
}

type ProcessSource interface {
	All(ctx context.Context, tenantID string) ([]process.Process, error)
}

type Service struct {
	history   *storage.Tenanted[History]
	processes ProcessSource
	catalog   Catalog
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(kv storage.KV, processes ProcessSource, catalog Catalog, logger *slog.Logger) *Service {
	return &Service{
		history:   storage.NewTenanted[History](kv, Namespace, nil),
		processes: processes,
		catalog:   catalog,
		logger:    logger,
		now:       time.Now,
	}
}

// Search ranks matches for query and remembers it as a recent search.
// Blank queries return nothing and are not remembered.
func (s *Service) Search(ctx context.Context, tenantID, query string, f Filters) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}

	list, err := s.processes.All(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	results := Rank(query, list, s.catalog, f, s.now())

	if _, err := s.history.Update(ctx, tenantID, func(h History) (History, error) {
		h.RecentSearches = PushRecent(h.RecentSearches, query)
		return h, nil
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record recent search", "tenant_id", tenantID, "error", err)
	}

	s.logger.DebugContext(ctx, "search executed", "tenant_id", tenantID, "results", len(results))
	return results, nil
}

func (s *Service) Suggestions(ctx context.Context, tenantID, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	list, err := s.processes.All(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return Suggest(strings.TrimSpace(query), list), nil
}

func (s *Service) Recent(ctx context.Context, tenantID string) ([]string, error) {
	h, err := s.history.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(h.RecentSearches), nil
}

func (s *Service) ClearRecent(ctx context.Context, tenantID string) error {
	_, err := s.history.Update(ctx, tenantID, func(h History) (History, error) {
		h.RecentSearches = nil
		return h, nil
	})
	return err
}

func (s *Service) Saved(ctx context.Context, tenantID string) ([]SavedSearch, error) {
	h, err := s.history.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(h.SavedSearches), nil
}

func (s *Service) Save(ctx context.Context, tenantID string, dto SaveSearchDTO) (SavedSearch, error) {
	now := s.now()
	saved := SavedSearch{
		Name:      strings.TrimSpace(dto.Name),
		Query:     strings.TrimSpace(dto.Query),
		Filters:   dto.Filters,
		CreatedAt: now,
	}
	_, err := s.history.Update(ctx, tenantID, func(h History) (History, error) {
		stamp := now.UnixMilli()
		for slices.ContainsFunc(h.SavedSearches, func(x SavedSearch) bool {
			return x.ID == fmt.Sprintf("search_%d", stamp)
		}) {
			stamp++
		}
		saved.ID = fmt.Sprintf("search_%d", stamp)
		h.SavedSearches = append(slices.Clone(h.SavedSearches), saved)
		return h, nil
	})
	if err != nil {
		return SavedSearch{}, err
	}
	return saved, nil
}

func (s *Service) RemoveSaved(ctx context.Context, tenantID, id string) error {
	_, err := s.history.Update(ctx, tenantID, func(h History) (History, error) {
		idx := slices.IndexFunc(h.SavedSearches, func(x SavedSearch) bool { return x.ID == id })
		if idx < 0 {
			return h, internal.ErrSavedNotFound
		}
		h.SavedSearches = slices.Delete(slices.Clone(h.SavedSearches), idx, idx+1)
		return h, nil
	})
	return err
}
