package preference

import (
	"context"
	"errors"
	"fmt"

	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/pkg/validate"
)

type Service interface {
	Get(ctx context.Context, userID string) (domain.NotificationPreferences, error)
	Put(ctx context.Context, userID string, prefs domain.NotificationPreferences) error
}

type preferenceStore interface {
	Get(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
	Put(ctx context.Context, userID string, prefs domain.NotificationPreferences) error
}

type service struct {
	repo preferenceStore
}

func NewService(repo preferenceStore) Service {
	return &service{repo: repo}
}

// Get never reports not-found: a user without a stored record gets the defaults.
func (s *service) Get(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultPreferences(), nil
	}
	if err != nil {
		return domain.NotificationPreferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return *p, nil
}

// Put replaces the stored preferences wholesale.
func (s *service) Put(ctx context.Context, userID string, prefs domain.NotificationPreferences) error {
	if err := validate.Struct(prefs); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	return s.repo.Put(ctx, userID, prefs)
}
