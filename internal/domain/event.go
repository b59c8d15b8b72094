package domain

import "time"

// EventType names a change fanned out to live streams and the event topic.
type EventType string

const (
	EventNotificationCreated EventType = "notification.created"
	EventNotificationUpdated EventType = "notification.updated"
	EventNotificationDeleted EventType = "notification.deleted"
	EventBroadcastCompleted  EventType = "broadcast.completed"
)

// Event is the payload published after a record mutation or a broadcast.
type Event struct {
	Type           EventType           `json:"type"`
	ParishID       string              `json:"parishId"`
	NotificationID string              `json:"notificationId,omitempty"`
	Notification   *NotificationRecord `json:"notification,omitempty"`
	Report         *BroadcastReport    `json:"report,omitempty"`
	OccurredAt     time.Time           `json:"occurredAt"`
}
