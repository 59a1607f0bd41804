package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeProcessCreated           = "process.created"
	EventTypeProcessUpdated           = "process.updated"
	EventTypeProcessDeleted           = "process.deleted"
	EventTypeProcessMonitoringToggled = "process.monitoring_toggled"

	EventTypeUserCreated       = "user.created"
	EventTypeUserUpdated       = "user.updated"
	EventTypeUserDeleted       = "user.deleted"
	EventTypeUserStatusToggled = "user.status_toggled"

	EventTypePaymentMethodUpdated = "billing.payment_method_updated"
	EventTypeUsageLimitReached    = "usage.limit_reached"

	EventTypeSessionForcedLogout = "session.forced_logout"
)

// NotifiableTypes are the events the notification feed records.
var NotifiableTypes = []string{
	EventTypeProcessCreated,
	EventTypeProcessDeleted,
	EventTypeProcessMonitoringToggled,
	EventTypeUserCreated,
	EventTypeUserDeleted,
	EventTypeUserStatusToggled,
	EventTypePaymentMethodUpdated,
	EventTypeUsageLimitReached,
}

func New(eventType, tenantID, actorID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Tenant:    tenantID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type ProcessEvent struct {
	BaseEvent
	ProcessID  string `json:"process_id"`
	Number     string `json:"number"`
	Monitoring bool   `json:"monitoring"`
}

func NewProcessEvent(eventType, tenantID, actorID, processID, number string, monitoring bool) *ProcessEvent {
	return &ProcessEvent{
		BaseEvent: New(eventType, tenantID, actorID, map[string]interface{}{
			"process_id": processID,
			"number":     number,
			"monitoring": monitoring,
		}),
		ProcessID:  processID,
		Number:     number,
		Monitoring: monitoring,
	}
}

type UserEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func NewUserEvent(eventType, tenantID, actorID, userID, name string, active bool) *UserEvent {
	return &UserEvent{
		BaseEvent: New(eventType, tenantID, actorID, map[string]interface{}{
			"user_id":   userID,
			"name":      name,
			"is_active": active,
		}),
		UserID:   userID,
		Name:     name,
		IsActive: active,
	}
}

type UsageLimitReachedEvent struct {
	BaseEvent
	Metric string `json:"metric"`
	Used   int    `json:"used"`
	Limit  int    `json:"limit"`
}

func NewUsageLimitReachedEvent(tenantID, metric string, used, limit int) *UsageLimitReachedEvent {
	return &UsageLimitReachedEvent{
		BaseEvent: New(EventTypeUsageLimitReached, tenantID, "", map[string]interface{}{
			"metric": metric,
			"used":   used,
			"limit":  limit,
		}),
		Metric: metric,
		Used:   used,
		Limit:  limit,
	}
}
