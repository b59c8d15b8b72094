package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/parishpush/internal/domain"
	webpushinfra "github.com/parishpush/internal/infrastructure/webpush"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/parishpush/internal/pkg/metrics"
	"github.com/parishpush/internal/pkg/validate"
	"github.com/parishpush/internal/pkg/worker"
)

var (
	ErrMissingFields = fmt.Errorf("missing required fields: %w", domain.ErrBadRequest)
	ErrInvalidType   = fmt.Errorf("invalid notification type: %w", domain.ErrBadRequest)
)

// Skip reasons reported to metrics.
const (
	skipPushDisabled     = "push_disabled"
	skipTypeDisabled     = "type_disabled"
	skipNoSubscriptions  = "no_subscriptions"
	skipResolutionFailed = "resolution_failed"
	skipDeadline         = "deadline"
)

type Broadcaster interface {
	Broadcast(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastReport, error)
}

type audienceResolver interface {
	ListUserIDs(ctx context.Context, parishID string) ([]string, error)
}

type preferenceReader interface {
	Get(ctx context.Context, userID string) (domain.NotificationPreferences, error)
}

type subscriptionRegistry interface {
	ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	Remove(ctx context.Context, userID, endpoint string) error
}

type pusher interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error
}

type imageResolver interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Limits bounds a single broadcast.
type Limits struct {
	MaxInFlight   int64
	DeviceTimeout time.Duration
	Deadline      time.Duration
	PruneExpired  bool
}

type BroadcasterDeps struct {
	Audience      audienceResolver
	Preferences   preferenceReader
	Subscriptions subscriptionRegistry
	Pusher        pusher
	Images        imageResolver  // optional
	Events        eventPublisher // optional
	Encoder       *Encoder
	Pool          *worker.Pool
	Metrics       *metrics.PushMetrics
	Log           *logger.Logger
	Limits        Limits
}

type broadcaster struct {
	deps BroadcasterDeps
	sem  *semaphore.Weighted
}

func NewBroadcaster(deps BroadcasterDeps) Broadcaster {
	if deps.Limits.MaxInFlight <= 0 {
		deps.Limits.MaxInFlight = 1
	}
	return &broadcaster{
		deps: deps,
		sem:  semaphore.NewWeighted(deps.Limits.MaxInFlight),
	}
}

// checkRequired runs the required tags against a whitespace-trimmed copy.
func checkRequired(req domain.BroadcastRequest) error {
	req.ParishID = strings.TrimSpace(req.ParishID)
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	err := validate.Struct(req)
	if validate.MissingRequired(err) {
		return ErrMissingFields
	}
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	return nil
}

// tally accumulates counts from concurrent recipient pipelines.
type tally struct {
	sent    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// Broadcast resolves the audience and delivers to every accepted device.
// Only precondition failures and audience resolution failures are returned;
// per-recipient and per-device problems are counted and logged.
func (b *broadcaster) Broadcast(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastReport, error) {
	if err := checkRequired(req); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = domain.TypeAnnouncement
	}
	if !req.Type.Stored() {
		return nil, ErrInvalidType
	}

	start := time.Now()
	ctx = b.deps.Log.WithParishID(ctx, req.ParishID)
	b.deps.Metrics.IncBroadcast(string(req.Type))

	recipients := req.UserIDs
	if len(recipients) == 0 {
		ids, err := b.deps.Audience.ListUserIDs(ctx, req.ParishID)
		if err != nil {
			return nil, fmt.Errorf("resolve audience: %w", err)
		}
		recipients = ids
	}

	rec := domain.NotificationRecord{
		ParishID: req.ParishID,
		Title:    req.Title,
		Message:  req.Body,
		Type:     req.Type,
	}
	if req.Image != "" {
		img := b.resolveImage(ctx, req.ParishID, req.Image)
		if img != "" {
			rec.ImageURL = &img
		}
	}
	payload, err := b.deps.Encoder.Marshal(rec, req.URL)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	runCtx := ctx
	if b.deps.Limits.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.deps.Limits.Deadline)
		defer cancel()
	}

	var (
		t  tally
		wg sync.WaitGroup
	)
	for _, userID := range recipients {
		userID := userID
		wg.Add(1)
		err := b.deps.Pool.Submit(runCtx, func(ctx context.Context) {
			defer wg.Done()
			b.deliverTo(ctx, userID, req.Type, payload, &t)
		})
		if err != nil {
			wg.Done()
			t.skipped.Add(1)
			b.deps.Metrics.IncSkipped(skipDeadline)
			b.deps.Log.Warn(b.deps.Log.WithUserID(ctx, userID), "broadcast: recipient not scheduled", err)
		}
	}
	wg.Wait()

	report := &domain.BroadcastReport{
		Sent:    int(t.sent.Load()),
		Failed:  int(t.failed.Load()),
		Total:   len(recipients),
		Skipped: int(t.skipped.Load()),
	}
	b.deps.Metrics.ObserveDuration(time.Since(start))
	b.deps.Log.Zerolog(ctx).Info().
		Str("type", string(req.Type)).
		Int("total", report.Total).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("broadcast completed")

	b.publishCompleted(ctx, req.ParishID, report)
	return report, nil
}

// deliverTo runs one recipient's strict pipeline: preferences, then
// subscriptions, then concurrent device dispatch.
func (b *broadcaster) deliverTo(ctx context.Context, userID string, typ domain.NotificationType, payload []byte, t *tally) {
	ctx = b.deps.Log.WithUserID(ctx, userID)

	prefs, err := b.deps.Preferences.Get(ctx, userID)
	if err != nil {
		b.skip(ctx, t, skipResolutionFailed, err)
		return
	}
	if !prefs.PushEnabled {
		b.skip(ctx, t, skipPushDisabled, nil)
		return
	}
	if !prefs.AcceptsPush(typ) {
		b.skip(ctx, t, skipTypeDisabled, nil)
		return
	}

	subs, err := b.deps.Subscriptions.ListByUser(ctx, userID)
	if err != nil {
		b.skip(ctx, t, skipResolutionFailed, err)
		return
	}
	if len(subs) == 0 {
		b.skip(ctx, t, skipNoSubscriptions, nil)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.dispatch(ctx, sub, payload, t)
		}()
	}
	wg.Wait()
}

func (b *broadcaster) dispatch(ctx context.Context, sub domain.PushSubscription, payload []byte, t *tally) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		b.fail(ctx, t, sub, err)
		return
	}
	defer b.sem.Release(1)

	sendCtx := ctx
	if b.deps.Limits.DeviceTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, b.deps.Limits.DeviceTimeout)
		defer cancel()
	}
	err := b.deps.Pusher.Send(sendCtx, sub, payload)
	if err == nil {
		t.sent.Add(1)
		b.deps.Metrics.IncSent()
		return
	}
	b.fail(ctx, t, sub, err)

	if errors.Is(err, webpushinfra.ErrExpiredSubscription) && b.deps.Limits.PruneExpired {
		b.prune(ctx, sub)
	}
}

// prune outlives the broadcast deadline so an expired endpoint found late
// is still removed.
func (b *broadcaster) prune(ctx context.Context, sub domain.PushSubscription) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := b.deps.Subscriptions.Remove(pctx, sub.UserID, sub.Endpoint); err != nil {
		b.deps.Log.Warn(ctx, "broadcast: prune expired subscription", err)
		return
	}
	b.deps.Metrics.IncPruned()
}

func (b *broadcaster) skip(ctx context.Context, t *tally, reason string, err error) {
	t.skipped.Add(1)
	b.deps.Metrics.IncSkipped(reason)
	if err != nil {
		b.deps.Log.Warn(b.deps.Log.WithField(ctx, "reason", reason), "broadcast: recipient skipped", err)
		return
	}
	b.deps.Log.Zerolog(ctx).Debug().Str("reason", reason).Msg("broadcast: recipient skipped")
}

func (b *broadcaster) fail(ctx context.Context, t *tally, sub domain.PushSubscription, err error) {
	t.failed.Add(1)
	b.deps.Metrics.IncFailed()
	b.deps.Log.Warn(b.deps.Log.WithField(ctx, "endpoint", truncateEndpoint(sub.Endpoint)), "broadcast: device delivery failed", err)
}

// resolveImage turns a blob marker into a presigned URL. Unresolvable markers
// and markers of another parish drop the image rather than failing the broadcast.
func (b *broadcaster) resolveImage(ctx context.Context, parishID, image string) string {
	key, ok := strings.CutPrefix(image, domain.BlobPrefix)
	if !ok {
		return image
	}
	if b.deps.Images == nil || !domain.OwnsBlobKey(parishID, key) {
		return ""
	}
	url, err := b.deps.Images.PresignedURL(ctx, key)
	if err != nil {
		b.deps.Log.Warn(ctx, "broadcast: resolve image marker", err)
		return ""
	}
	return url
}

func (b *broadcaster) publishCompleted(ctx context.Context, parishID string, report *domain.BroadcastReport) {
	if b.deps.Events == nil {
		return
	}
	err := b.deps.Events.Publish(context.WithoutCancel(ctx), domain.Event{
		Type:       domain.EventBroadcastCompleted,
		ParishID:   parishID,
		Report:     report,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		b.deps.Log.Warn(ctx, "broadcast: publish completion event", err)
	}
}

// truncateEndpoint keeps only a short prefix of a push endpoint for logs.
func truncateEndpoint(endpoint string) string {
	const limit = 48
	if len(endpoint) <= limit {
		return endpoint
	}
	return endpoint[:limit] + "..."
}
