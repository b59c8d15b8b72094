package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/parishpush/internal/domain"
	s3infra "github.com/parishpush/internal/infrastructure/s3"
	"github.com/parishpush/internal/pkg/id"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/parishpush/internal/pkg/validate"
)

type Service interface {
	Create(ctx context.Context, parishID string, in domain.NotificationInput) (*domain.NotificationRecord, error)
	Update(ctx context.Context, parishID, notificationID string, in domain.NotificationInput) (*domain.NotificationRecord, error)
	Delete(ctx context.Context, parishID, notificationID string) error
	ListByParish(ctx context.Context, parishID string) ([]domain.NotificationRecord, error)
	ListForUser(ctx context.Context, userID string) ([]domain.UserNotification, error)
	// ParishOf returns the parish a user follows.
	ParishOf(ctx context.Context, userID string) (string, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.NotificationRecord) error
	Get(ctx context.Context, parishID, notificationID string) (*domain.NotificationRecord, error)
	ListByParish(ctx context.Context, parishID string) ([]domain.NotificationRecord, error)
	UpdateContent(ctx context.Context, parishID, notificationID string, in domain.NotificationInput) error
	Delete(ctx context.Context, parishID, notificationID string) error
}

type followerStore interface {
	ParishOf(ctx context.Context, userID string) (string, error)
}

type receiptReader interface {
	ReadIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type blobStore interface {
	UploadDataURI(ctx context.Context, prefix, name, dataURI string) (string, error)
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher receives record change events.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

type ServiceDeps struct {
	Repo      notificationStore
	Followers followerStore
	Receipts  receiptReader
	Blobs     blobStore // optional; data URIs are rejected without it
	Events    []EventPublisher
	Log       *logger.Logger
}

type service struct {
	repo      notificationStore
	followers followerStore
	receipts  receiptReader
	blobs     blobStore
	events    []EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.Repo,
		followers: deps.Followers,
		receipts:  deps.Receipts,
		blobs:     deps.Blobs,
		events:    deps.Events,
		log:       deps.Log,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, parishID string, in domain.NotificationInput) (*domain.NotificationRecord, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	now := s.now().UTC()
	rec := &domain.NotificationRecord{
		ID:        id.New(),
		ParishID:  parishID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		Timestamp: now,
		UpdatedAt: now,
	}
	img, uploaded, err := s.storeImage(ctx, parishID, rec.ID, in.ImageURL)
	if err != nil {
		return nil, err
	}
	rec.ImageURL = img
	if err := s.repo.Put(ctx, rec); err != nil {
		s.deleteBlob(ctx, parishID, uploaded)
		return nil, fmt.Errorf("store notification: %w", err)
	}
	s.resolveImage(ctx, rec)
	s.publish(ctx, domain.EventNotificationCreated, rec)
	return rec, nil
}

// Update rewrites content fields. The original publish timestamp is kept.
func (s *service) Update(ctx context.Context, parishID, notificationID string, in domain.NotificationInput) (*domain.NotificationRecord, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	existing, err := s.repo.Get(ctx, parishID, notificationID)
	if err != nil {
		return nil, err
	}
	if isBlobMarker(in.ImageURL) && (existing.ImageURL == nil || *in.ImageURL != *existing.ImageURL) {
		return nil, fmt.Errorf("image marker does not belong to this record: %w", domain.ErrBadRequest)
	}
	img, uploaded, err := s.storeImage(ctx, parishID, id.New(), in.ImageURL)
	if err != nil {
		return nil, err
	}
	in.ImageURL = img
	if err := s.repo.UpdateContent(ctx, parishID, notificationID, in); err != nil {
		s.deleteBlob(ctx, parishID, uploaded)
		return nil, err
	}

	if oldKey, ok := existing.BlobKey(); ok && (img == nil || *img != *existing.ImageURL) {
		s.deleteBlob(ctx, parishID, oldKey)
	}

	updated := *existing
	updated.Title = in.Title
	updated.Message = in.Message
	updated.Type = in.Type
	updated.ImageURL = img
	updated.ImageSrc = ""
	updated.UpdatedAt = s.now().UTC()
	s.resolveImage(ctx, &updated)
	s.publish(ctx, domain.EventNotificationUpdated, &updated)
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, parishID, notificationID string) error {
	existing, err := s.repo.Get(ctx, parishID, notificationID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, parishID, notificationID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if key, ok := existing.BlobKey(); ok {
		s.deleteBlob(ctx, parishID, key)
	}
	s.publish(ctx, domain.EventNotificationDeleted, &domain.NotificationRecord{ID: notificationID, ParishID: parishID})
	return nil
}

// ListByParish returns the parish's records, newest first.
func (s *service) ListByParish(ctx context.Context, parishID string) ([]domain.NotificationRecord, error) {
	recs, err := s.repo.ListByParish(ctx, parishID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	for i := range recs {
		s.resolveImage(ctx, &recs[i])
	}
	if recs == nil {
		recs = []domain.NotificationRecord{}
	}
	return recs, nil
}

// ListForUser returns the followed parish's records with read flags.
// A user following no parish gets an empty list.
func (s *service) ListForUser(ctx context.Context, userID string) ([]domain.UserNotification, error) {
	parishID, err := s.followers.ParishOf(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.UserNotification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve followed parish: %w", err)
	}
	recs, err := s.ListByParish(ctx, parishID)
	if err != nil {
		return nil, err
	}
	read, err := s.receipts.ReadIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load read receipts: %w", err)
	}
	out := make([]domain.UserNotification, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.UserNotification{NotificationRecord: r, Read: read[r.ID]})
	}
	return out, nil
}

func (s *service) ParishOf(ctx context.Context, userID string) (string, error) {
	return s.followers.ParishOf(ctx, userID)
}

func isBlobMarker(image *string) bool {
	return image != nil && strings.HasPrefix(*image, domain.BlobPrefix)
}

// storeImage returns the value to persist for image. Data URIs are uploaded
// and the new key is returned as uploaded. Blob markers must name an object
// of the same parish.
func (s *service) storeImage(ctx context.Context, parishID, name string, image *string) (*string, string, error) {
	if image == nil || strings.TrimSpace(*image) == "" {
		return nil, "", nil
	}
	if key, ok := strings.CutPrefix(*image, domain.BlobPrefix); ok {
		if !domain.OwnsBlobKey(parishID, key) {
			return nil, "", fmt.Errorf("image marker belongs to another parish: %w", domain.ErrBadRequest)
		}
		return image, "", nil
	}
	if !strings.HasPrefix(*image, "data:") {
		return image, "", nil
	}
	if s.blobs == nil {
		return nil, "", fmt.Errorf("image uploads are not configured: %w", domain.ErrBadRequest)
	}
	key, err := s.blobs.UploadDataURI(ctx, parishID, name, *image)
	if errors.Is(err, s3infra.ErrNotDataURI) {
		return nil, "", fmt.Errorf("image must be a base64 data URI or URL: %w", domain.ErrBadRequest)
	}
	if err != nil {
		return nil, "", fmt.Errorf("upload image: %w", err)
	}
	marker := domain.BlobPrefix + key
	return &marker, key, nil
}

func (s *service) resolveImage(ctx context.Context, rec *domain.NotificationRecord) {
	key, ok := rec.BlobKey()
	if !ok || s.blobs == nil || !domain.OwnsBlobKey(rec.ParishID, key) {
		return
	}
	url, err := s.blobs.PresignedURL(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "notification: presign image", err)
		return
	}
	rec.ImageSrc = url
}

// deleteBlob removes key when it belongs to parishID. Empty keys are ignored.
func (s *service) deleteBlob(ctx context.Context, parishID, key string) {
	if s.blobs == nil || !domain.OwnsBlobKey(parishID, key) {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "notification: delete image blob", err)
	}
}

func (s *service) publish(ctx context.Context, typ domain.EventType, rec *domain.NotificationRecord) {
	ev := domain.Event{
		Type:           typ,
		ParishID:       rec.ParishID,
		NotificationID: rec.ID,
		OccurredAt:     s.now().UTC(),
	}
	if typ != domain.EventNotificationDeleted {
		ev.Notification = rec
	}
	for _, p := range s.events {
		if err := p.Publish(ctx, ev); err != nil {
			s.log.Warn(ctx, "notification: publish event", err)
		}
	}
}
