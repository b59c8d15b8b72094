package domain

import "time"

// PushKeys is the subscription-specific encryption material.
type PushKeys struct {
	P256dh string `json:"p256dh" dynamodbav:"p256dh" validate:"required"`
	Auth   string `json:"auth" dynamodbav:"auth" validate:"required"`
}

// PushSubscription is one browser/device endpoint for one user.
// PK: user_id, SK: endpoint.
type PushSubscription struct {
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	Endpoint  string    `json:"endpoint" dynamodbav:"endpoint"`
	Keys      PushKeys  `json:"keys" dynamodbav:"keys"`
	UserAgent string    `json:"userAgent,omitempty" dynamodbav:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type SubscribeRequest struct {
	Endpoint string   `json:"endpoint" validate:"required,url"`
	Keys     PushKeys `json:"keys"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}
