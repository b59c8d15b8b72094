package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parishpush/internal/domain"
	webpushinfra "github.com/parishpush/internal/infrastructure/webpush"
	"github.com/parishpush/internal/pkg/validate"
)

type Service interface {
	Add(ctx context.Context, userID string, req domain.SubscribeRequest, userAgent string) (*domain.PushSubscription, error)
	Remove(ctx context.Context, userID, endpoint string) error
	ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
}

type subscriptionStore interface {
	Put(ctx context.Context, s *domain.PushSubscription) error
	Delete(ctx context.Context, userID, endpoint string) error
	ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
}

type service struct {
	repo subscriptionStore
	now  func() time.Time
}

func NewService(repo subscriptionStore) Service {
	return &service{repo: repo, now: time.Now}
}

// Add registers a device. Registering the same endpoint again overwrites the
// existing subscription instead of adding a second one.
func (s *service) Add(ctx context.Context, userID string, req domain.SubscribeRequest, userAgent string) (*domain.PushSubscription, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	keys, err := webpushinfra.NormalizeSubscription(req.Endpoint, req.Keys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	sub := &domain.PushSubscription{
		UserID:    userID,
		Endpoint:  strings.TrimSpace(req.Endpoint),
		Keys:      keys,
		UserAgent: userAgent,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Put(ctx, sub); err != nil {
		return nil, fmt.Errorf("store subscription: %w", err)
	}
	return sub, nil
}

// Remove is a no-op when the endpoint is not registered.
func (s *service) Remove(ctx context.Context, userID, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required: %w", domain.ErrBadRequest)
	}
	return s.repo.Delete(ctx, userID, endpoint)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []domain.PushSubscription{}
	}
	return subs, nil
}
