package domain

import "time"

// ReadReceipt marks one notification as read by one user.
// PK: user_id, SK: notification_id.
type ReadReceipt struct {
	UserID         string    `json:"userId" dynamodbav:"user_id"`
	NotificationID string    `json:"notificationId" dynamodbav:"notification_id"`
	ReadAt         time.Time `json:"readAt" dynamodbav:"read_at"`
}

type MarkAllReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
