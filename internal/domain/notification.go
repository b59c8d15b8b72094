package domain

import (
	"strings"
	"time"
)

// NotificationType is the category a parish publishes a record under.
type NotificationType string

const (
	TypeAnnouncement NotificationType = "announcement"
	TypeEvent        NotificationType = "event"
	TypeAlert        NotificationType = "alert"
	// TypeUpdate exists only in preference semantics; no record is stored with it.
	TypeUpdate NotificationType = "update"
)

// Stored reports whether t may be persisted on a NotificationRecord.
func (t NotificationType) Stored() bool {
	switch t {
	case TypeAnnouncement, TypeEvent, TypeAlert:
		return true
	}
	return false
}

// BlobPrefix marks an ImageURL that points at a separately stored binary blob.
const BlobPrefix = "blob:"

// NotificationRecord is one piece of broadcastable parish content.
// PK: parish_id, SK: notification_id.
type NotificationRecord struct {
	ID        string           `json:"id" dynamodbav:"notification_id"`
	ParishID  string           `json:"parishId" dynamodbav:"parish_id"`
	Title     string           `json:"title" dynamodbav:"title"`
	Message   string           `json:"message" dynamodbav:"message"`
	Type      NotificationType `json:"type" dynamodbav:"type"`
	Timestamp time.Time        `json:"timestamp" dynamodbav:"timestamp"` // immutable once set
	ImageURL  *string          `json:"imageUrl,omitempty" dynamodbav:"image_url,omitempty"`
	UpdatedAt time.Time        `json:"updated" dynamodbav:"updated_at"`
	// ImageSrc is a fetchable URL for a blob marker, filled on read.
	ImageSrc string `json:"imageSrc,omitempty" dynamodbav:"-"`
}

// BlobKey returns the object key when ImageURL is a blob marker.
func (n *NotificationRecord) BlobKey() (string, bool) {
	if n.ImageURL == nil || !strings.HasPrefix(*n.ImageURL, BlobPrefix) {
		return "", false
	}
	return strings.TrimPrefix(*n.ImageURL, BlobPrefix), true
}

// OwnsBlobKey reports whether key lives under the parish's object prefix.
func OwnsBlobKey(parishID, key string) bool {
	if parishID == "" || strings.Contains(key, "..") {
		return false
	}
	rest, ok := strings.CutPrefix(key, parishID+"/")
	return ok && rest != ""
}

// NotificationInput carries the mutable content fields of a record.
type NotificationInput struct {
	Title    string           `json:"title" validate:"required"`
	Message  string           `json:"message" validate:"required"`
	Type     NotificationType `json:"type" validate:"required,oneof=announcement event alert"`
	ImageURL *string          `json:"imageUrl"`
}

// UserNotification is a record as seen by one follower, with its read flag.
type UserNotification struct {
	NotificationRecord
	Read bool `json:"read"`
}
