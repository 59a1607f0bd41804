package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

var base = time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)

func note(id string, offset time.Duration) Notification {
	return Notification{ID: id, Type: TypeSystem, Title: id, CreatedAt: base.Add(offset)}
}

var _ = Describe("Feed", func() {
	It("prepends and keeps the newest fifty", func() {
		var f Feed
		for i := 0; i < MaxFeed+5; i++ {
			f = f.Push(note(fmt.Sprintf("n%d", i), time.Duration(i)*time.Minute))
		}
		Expect(f).To(HaveLen(MaxFeed))
		Expect(f[0].ID).To(Equal("n54"))
		Expect(f[MaxFeed-1].ID).To(Equal("n5"))
	})

	It("normalizes replacement lists newest first", func() {
		f := Normalize([]Notification{note("old", 0), note("new", time.Hour), note("mid", time.Minute)})
		Expect([]string{f[0].ID, f[1].ID, f[2].ID}).To(Equal([]string{"new", "mid", "old"}))
	})
})

var _ = Describe("FromEvent", func() {
	It("describes process and user events", func() {
		n, ok := FromEvent(events.NewProcessEvent(events.EventTypeProcessMonitoringToggled, "t-1", "u-1", "p-1", "0001", true))
		Expect(ok).To(BeTrue())
		Expect(n.Type).To(Equal(TypeProcessUpdate))
		Expect(n.Message).To(Equal("Monitoring enabled for process 0001."))
		Expect(n.TenantID).To(Equal("t-1"))

		n, ok = FromEvent(events.NewUserEvent(events.EventTypeUserStatusToggled, "t-1", "u-1", "u-2", "Ana", false))
		Expect(ok).To(BeTrue())
		Expect(n.Type).To(Equal(TypeSystem))
		Expect(n.Message).To(Equal("Ana was deactivated."))
	})

	It("raises usage limits as high priority", func() {
		n, ok := FromEvent(events.NewUsageLimitReachedEvent("t-1", "aiSummaries", 10, 10))
		Expect(ok).To(BeTrue())
		Expect(n.Priority).To(Equal(PriorityHigh))
		Expect(n.Data).To(HaveKeyWithValue("metric", "aiSummaries"))
	})

	It("ignores events it has no wording for", func() {
		_, ok := FromEvent(events.NewProcessEvent(events.EventTypeProcessUpdated, "t-1", "u-1", "p-1", "0001", true))
		Expect(ok).To(BeFalse())
		_, ok = FromEvent(events.New(events.EventTypeSessionForcedLogout, "t-1", "u-1", nil))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Service", func() {
	const tenant = "t-1"

	var (
		ctx context.Context
		svc *Service
		kv  storage.KV
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem, err := storage.NewMemory(100)
		Expect(err).NotTo(HaveOccurred())
		kv = mem
		svc = NewService(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
		svc.now = func() time.Time { return base }
	})

	add := func(title string) Notification {
		n, err := svc.Add(ctx, tenant, CreateNotificationDTO{Type: TypeDeadline, Title: title, Message: "due"})
		Expect(err).NotTo(HaveOccurred())
		return n
	}

	It("tracks unread notifications", func() {
		a := add("first")
		add("second")
		Expect(a.Priority).To(Equal(PriorityNormal))

		sum, err := svc.List(ctx, tenant)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.UnreadCount).To(Equal(2))
		Expect(sum.Notifications[0].Title).To(Equal("second"))

		read, err := svc.MarkAsRead(ctx, tenant, a.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*read.ReadAt).To(Equal(base))

		changed, err := svc.MarkAllAsRead(ctx, tenant)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(Equal(1))

		sum, _ = svc.List(ctx, tenant)
		Expect(sum.UnreadCount).To(BeZero())
	})

	It("removes and clears", func() {
		a := add("first")
		add("second")

		Expect(svc.Remove(ctx, tenant, a.ID)).To(Succeed())
		err := svc.Remove(ctx, tenant, a.ID)
		Expect(errors.Is(err, internal.ErrNotifNotFound)).To(BeTrue())

		_, err = svc.MarkAsRead(ctx, tenant, "missing")
		Expect(errors.Is(err, internal.ErrNotifNotFound)).To(BeTrue())

		Expect(svc.Clear(ctx, tenant)).To(Succeed())
		sum, _ := svc.List(ctx, tenant)
		Expect(sum.Notifications).To(BeEmpty())
	})

	It("replaces the feed and stamps the tenant", func() {
		read := base
		list := []Notification{note("a", 0), note("b", time.Hour)}
		list[0].ReadAt = &read
		list[1].TenantID = "t-other"

		sum, err := svc.Set(ctx, tenant, list)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.UnreadCount).To(Equal(1))
		Expect(sum.Notifications[0].ID).To(Equal("b"))
		Expect(sum.Notifications[0].TenantID).To(Equal(tenant))

		reopened := NewService(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
		stored, err := reopened.List(ctx, tenant)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Notifications).To(HaveLen(2))
	})

	It("keeps tenants apart", func() {
		add("mine")
		sum, err := svc.List(ctx, "t-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Notifications).To(BeEmpty())
	})

	It("records notifiable domain events from the bus", func() {
		bus := events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
		svc.Subscribe(bus)

		Expect(bus.Publish(ctx, events.NewUserEvent(events.EventTypeUserCreated, tenant, "u-1", "u-9", "Bruno", true))).To(Succeed())
		Expect(bus.Publish(ctx, events.NewProcessEvent(events.EventTypeProcessUpdated, tenant, "u-1", "p-1", "0001", false))).To(Succeed())
		bus.Wait()

		sum, err := svc.List(ctx, tenant)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Notifications).To(HaveLen(1))
		Expect(sum.Notifications[0].Message).To(Equal("Bruno joined the team."))
	})
})
