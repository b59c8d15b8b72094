package http

import (
	"context"
	"net/http"

	"github.com/parishpush/internal/domain"
	jwtinfra "github.com/parishpush/internal/infrastructure/jwt"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/parishpush/internal/pkg/metrics"
	"github.com/parishpush/internal/pkg/worker"
	"github.com/parishpush/internal/stream"
)

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Put(ctx context.Context, n *domain.NotificationRecord) error
	Get(ctx context.Context, parishID, notificationID string) (*domain.NotificationRecord, error)
	ListByParish(ctx context.Context, parishID string) ([]domain.NotificationRecord, error)
	// UpdateContent never rewrites the record timestamp.
	UpdateContent(ctx context.Context, parishID, notificationID string, in domain.NotificationInput) error
	Delete(ctx context.Context, parishID, notificationID string) error
}

// PreferenceRepository returns domain.ErrNotFound for users without a stored record.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
	Put(ctx context.Context, userID string, prefs domain.NotificationPreferences) error
}

type SubscriptionRepository interface {
	Put(ctx context.Context, s *domain.PushSubscription) error
	Delete(ctx context.Context, userID, endpoint string) error
	ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
}

type ReceiptRepository interface {
	MarkRead(ctx context.Context, userID, notificationID string) error
	ReadIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// FollowerRepository resolves parish membership in both directions.
type FollowerRepository interface {
	ParishOf(ctx context.Context, userID string) (string, error)
	ListUserIDs(ctx context.Context, parishID string) ([]string, error)
}

type OwnerRepository interface {
	OwnerOf(ctx context.Context, parishID string) (string, error)
}

// BlobStore holds notification images uploaded as data URIs.
type BlobStore interface {
	UploadDataURI(ctx context.Context, prefix, name, dataURI string) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Pusher delivers one encrypted payload to one device.
type Pusher interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error
	PublicKey() string
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationRepo NotificationRepository
	PreferenceRepo   PreferenceRepository
	SubscriptionRepo SubscriptionRepository
	ReceiptRepo      ReceiptRepository
	FollowerRepo     FollowerRepository
	OwnerRepo        OwnerRepository
	Blobs            BlobStore // optional
	Pusher           Pusher
	// Events fans record changes out to stream clients, either the local
	// hub or a cross-instance relay.
	Events EventPublisher
	// Topic receives record and broadcast events for external consumers. Optional.
	Topic          EventPublisher
	Hub            *stream.Hub
	JWTProvider    *jwtinfra.Provider
	Pool           *worker.Pool
	Metrics        *metrics.PushMetrics
	MetricsHandler http.Handler // optional
	Log            *logger.Logger
}
