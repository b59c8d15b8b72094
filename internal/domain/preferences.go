package domain

// Frequency is how often a user wants to be notified.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

type NotificationTypes struct {
	Announcements bool `json:"announcements" dynamodbav:"announcements"`
	Events        bool `json:"events" dynamodbav:"events"`
	Alerts        bool `json:"alerts" dynamodbav:"alerts"`
	Updates       bool `json:"updates" dynamodbav:"updates"`
}

// NotificationPreferences is a user's delivery configuration. PK: user_id.
type NotificationPreferences struct {
	PushEnabled           bool              `json:"pushEnabled" dynamodbav:"push_enabled"`
	EmailEnabled          bool              `json:"emailEnabled" dynamodbav:"email_enabled"`
	NotificationTypes     NotificationTypes `json:"notificationTypes" dynamodbav:"notification_types"`
	NotificationFrequency Frequency         `json:"notificationFrequency" dynamodbav:"notification_frequency" validate:"required,oneof=immediate daily weekly"`
}

// DefaultPreferences is the value of a user with no stored record.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		PushEnabled:  false,
		EmailEnabled: true,
		NotificationTypes: NotificationTypes{
			Announcements: true,
			Events:        true,
			Alerts:        true,
			Updates:       false,
		},
		NotificationFrequency: FrequencyImmediate,
	}
}

// AcceptsPush reports whether a push of type t should reach this user.
func (p NotificationPreferences) AcceptsPush(t NotificationType) bool {
	if !p.PushEnabled {
		return false
	}
	switch t {
	case TypeAnnouncement:
		return p.NotificationTypes.Announcements
	case TypeEvent:
		return p.NotificationTypes.Events
	case TypeAlert:
		return p.NotificationTypes.Alerts
	case TypeUpdate:
		return p.NotificationTypes.Updates
	}
	return true
}
