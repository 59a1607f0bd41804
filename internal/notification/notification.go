// Package notification keeps each tenant's in-app notification feed.
package notification

import (
	"fmt"
	"slices"
	"time"

	"github.com/frahmantamala/practice-gateway/internal/core/events"
)

type Type string

const (
	TypeProcessUpdate Type = "process_update"
	TypeDeadline      Type = "deadline"
	TypeSystem        Type = "system"
	TypeMarketing     Type = "marketing"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

const MaxFeed = 50

type Notification struct {
	ID        string                 `json:"id"`
	TenantID  string                 `json:"tenantId"`
	UserID    string                 `json:"userId,omitempty"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Priority  Priority               `json:"priority"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

func (n Notification) Read() bool {
	return n.ReadAt != nil
}

// Feed is a tenant's notifications, newest first.
type Feed []Notification

func (f Feed) Unread() int {
	count := 0
	for _, n := range f {
		if !n.Read() {
			count++
		}
	}
	return count
}

// Push prepends n and drops the oldest entries past MaxFeed.
func (f Feed) Push(n Notification) Feed {
	next := make(Feed, 0, min(len(f)+1, MaxFeed))
	next = append(next, n)
	for _, old := range f {
		if len(next) == MaxFeed {
			break
		}
		next = append(next, old)
	}
	return next
}

// Normalize orders a replacement feed newest first and applies the cap.
func Normalize(list []Notification) Feed {
	next := slices.Clone(Feed(list))
	slices.SortStableFunc(next, func(a, b Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(next) > MaxFeed {
		next = next[:MaxFeed]
	}
	return next
}

// FromEvent turns a domain event into a system notification. The second
// result is false for events the feed does not describe.
func FromEvent(e events.Event) (Notification, bool) {
	n := Notification{
		ID:        "notif_" + e.EventID(),
		TenantID:  e.TenantID(),
		Type:      TypeSystem,
		Priority:  PriorityNormal,
		CreatedAt: e.OccurredAt(),
	}
	if data, ok := e.Payload().(map[string]interface{}); ok {
		n.Data = data
	}

	switch ev := e.(type) {
	case *events.ProcessEvent:
		n.Type = TypeProcessUpdate
		switch ev.Type {
		case events.EventTypeProcessCreated:
			n.Title = "Process added"
			n.Message = fmt.Sprintf("Process %s was added.", ev.Number)
		case events.EventTypeProcessDeleted:
			n.Title = "Process removed"
			n.Message = fmt.Sprintf("Process %s was removed.", ev.Number)
		case events.EventTypeProcessMonitoringToggled:
			n.Title = "Monitoring updated"
			state := "disabled"
			if ev.Monitoring {
				state = "enabled"
			}
			n.Message = fmt.Sprintf("Monitoring %s for process %s.", state, ev.Number)
		default:
			return Notification{}, false
		}
	case *events.UserEvent:
		switch ev.Type {
		case events.EventTypeUserCreated:
			n.Title = "User added"
			n.Message = fmt.Sprintf("%s joined the team.", ev.Name)
		case events.EventTypeUserDeleted:
			n.Title = "User removed"
			n.Message = fmt.Sprintf("%s was removed from the team.", ev.Name)
		case events.EventTypeUserStatusToggled:
			n.Title = "User status changed"
			state := "deactivated"
			if ev.IsActive {
				state = "activated"
			}
			n.Message = fmt.Sprintf("%s was %s.", ev.Name, state)
		default:
			return Notification{}, false
		}
	case *events.UsageLimitReachedEvent:
		n.Priority = PriorityHigh
		n.Title = "Usage limit reached"
		n.Message = fmt.Sprintf("%s reached %d of %d for the current period.", ev.Metric, ev.Used, ev.Limit)
	default:
		switch e.EventType() {
		case events.EventTypePaymentMethodUpdated:
			n.Title = "Payment method updated"
			n.Message = "The default payment method was changed."
		default:
			return Notification{}, false
		}
	}
	return n, true
}
