package notification

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/storage"
)

const Namespace = "notifications-storage"

type Service struct {
	feeds  *storage.Tenanted[Feed]
	logger *slog.Logger
	now    func() time.Time
}

func NewService(kv storage.KV, logger *slog.Logger) *Service {
	return &Service{
		feeds:  storage.NewTenanted[Feed](kv, Namespace, nil),
		logger: logger,
		now:    time.Now,
	}
}

type Summary struct {
	Notifications Feed `json:"notifications"`
	UnreadCount   int  `json:"unreadCount"`
}

func (s *Service) List(ctx context.Context, tenantID string) (Summary, error) {
	feed, err := s.feeds.Read(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	out := slices.Clone(feed)
	if out == nil {
		out = Feed{}
	}
	return Summary{Notifications: out, UnreadCount: feed.Unread()}, nil
}

func (s *Service) Add(ctx context.Context, tenantID string, dto CreateNotificationDTO) (Notification, error) {
	n := dto.toNotification("notif_"+uuid.NewString(), tenantID, s.now())
	if err := s.push(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (s *Service) MarkAsRead(ctx context.Context, tenantID, id string) (Notification, error) {
	var marked Notification
	_, err := s.feeds.Update(ctx, tenantID, func(f Feed) (Feed, error) {
		idx := slices.IndexFunc(f, func(n Notification) bool { return n.ID == id })
		if idx < 0 {
			return f, internal.ErrNotifNotFound
		}
		next := slices.Clone(f)
		if next[idx].ReadAt == nil {
			now := s.now()
			next[idx].ReadAt = &now
		}
		marked = next[idx]
		return next, nil
	})
	return marked, err
}

// MarkAllAsRead reports how many notifications changed state.
func (s *Service) MarkAllAsRead(ctx context.Context, tenantID string) (int, error) {
	changed := 0
	_, err := s.feeds.Update(ctx, tenantID, func(f Feed) (Feed, error) {
		now := s.now()
		next := slices.Clone(f)
		for i := range next {
			if next[i].ReadAt == nil {
				next[i].ReadAt = &now
				changed++
			}
		}
		return next, nil
	})
	return changed, err
}

func (s *Service) Remove(ctx context.Context, tenantID, id string) error {
	_, err := s.feeds.Update(ctx, tenantID, func(f Feed) (Feed, error) {
		idx := slices.IndexFunc(f, func(n Notification) bool { return n.ID == id })
		if idx < 0 {
			return f, internal.ErrNotifNotFound
		}
		return slices.Delete(slices.Clone(f), idx, idx+1), nil
	})
	return err
}

func (s *Service) Clear(ctx context.Context, tenantID string) error {
	_, err := s.feeds.Update(ctx, tenantID, func(Feed) (Feed, error) {
		return Feed{}, nil
	})
	return err
}

// Set replaces the feed wholesale, e.g. after a fetch from the
// notification service.
func (s *Service) Set(ctx context.Context, tenantID string, list []Notification) (Summary, error) {
	next := Normalize(list)
	for i := range next {
		next[i].TenantID = tenantID
	}
	feed, err := s.feeds.Update(ctx, tenantID, func(Feed) (Feed, error) {
		return next, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{Notifications: slices.Clone(feed), UnreadCount: feed.Unread()}, nil
}

// Subscribe records every notifiable domain event in its tenant's feed.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.SubscribeMany(s.handle, events.NotifiableTypes...)
}

func (s *Service) handle(ctx context.Context, e events.Event) error {
	n, ok := FromEvent(e)
	if !ok {
		return nil
	}
	return s.push(ctx, n)
}

func (s *Service) push(ctx context.Context, n Notification) error {
	_, err := s.feeds.Update(ctx, n.TenantID, func(f Feed) (Feed, error) {
		return f.Push(n), nil
	})
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "notification recorded", "tenant_id", n.TenantID, "type", n.Type)
	return nil
}
