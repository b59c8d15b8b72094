package receipt

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/parishpush/internal/domain"
)

// markAllConcurrency caps parallel receipt writes for one request.
const markAllConcurrency = 8

type Service interface {
	MarkRead(ctx context.Context, userID, notificationID string) error
	// MarkAllRead attempts every id. It returns the ids whose write failed
	// together with the combined error.
	MarkAllRead(ctx context.Context, userID string, notificationIDs []string) ([]string, error)
	ReadIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type receiptStore interface {
	MarkRead(ctx context.Context, userID, notificationID string) error
	ReadIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type service struct {
	repo receiptStore
}

func NewService(repo receiptStore) Service {
	return &service{repo: repo}
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return fmt.Errorf("notification id is required: %w", domain.ErrBadRequest)
	}
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string, notificationIDs []string) ([]string, error) {
	var (
		mu     sync.Mutex
		failed []string
		errs   error
		g      errgroup.Group
	)
	g.SetLimit(markAllConcurrency)
	for _, id := range notificationIDs {
		id := id
		g.Go(func() error {
			if err := s.MarkRead(ctx, userID, id); err != nil {
				mu.Lock()
				failed = append(failed, id)
				errs = multierr.Append(errs, fmt.Errorf("mark %s read: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed, errs
}

func (s *service) ReadIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return s.repo.ReadIDs(ctx, userID)
}

// HasUnread reports whether any of the given notifications is unread.
// It reads nothing from the store.
func HasUnread(notifications []domain.UserNotification) bool {
	for _, n := range notifications {
		if !n.Read {
			return true
		}
	}
	return false
}
