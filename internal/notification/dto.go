package notification

import "time"

type CreateNotificationDTO struct {
	UserID   string                 `json:"userId"`
	Type     Type                   `json:"type" validate:"required,oneof=process_update deadline system marketing"`
	Title    string                 `json:"title" validate:"required,max=200"`
	Message  string                 `json:"message" validate:"required,max=2000"`
	Priority Priority               `json:"priority" validate:"omitempty,oneof=low normal high critical"`
	Data     map[string]interface{} `json:"data"`
}

func (d CreateNotificationDTO) toNotification(id, tenantID string, now time.Time) Notification {
	priority := d.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return Notification{
		ID:        id,
		TenantID:  tenantID,
		UserID:    d.UserID,
		Type:      d.Type,
		Title:     d.Title,
		Message:   d.Message,
		Data:      d.Data,
		Priority:  priority,
		CreatedAt: now,
	}
}

type SetNotificationsDTO struct {
	Notifications []Notification `json:"notifications" validate:"max=500"`
}
