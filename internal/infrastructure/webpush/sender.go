package webpushinfra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/parishpush/internal/domain"
)

// ErrExpiredSubscription is returned when the push service reports the
// endpoint as gone (404 or 410). The subscription should be removed.
var ErrExpiredSubscription = errors.New("push subscription expired")

// Options holds the process-wide VAPID identity and delivery settings.
type Options struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
	HTTPClient webpush.HTTPClient
}

// Sender delivers encrypted Web Push messages.
type Sender struct {
	opts Options
}

func NewSender(opts Options) (*Sender, error) {
	priv, err := normalizeVAPIDPrivateKey(opts.PrivateKey)
	if err != nil {
		return nil, err
	}
	if _, err := decodeBase64URL(opts.PublicKey); err != nil || opts.PublicKey == "" {
		return nil, fmt.Errorf("invalid VAPID public key")
	}
	opts.PrivateKey = priv
	// webpush-go prefixes mailto: itself for non-https subjects.
	opts.Subject = strings.TrimPrefix(opts.Subject, "mailto:")
	return &Sender{opts: opts}, nil
}

// PublicKey returns the VAPID application server key browsers subscribe with.
func (s *Sender) PublicKey() string {
	return s.opts.PublicKey
}

// Send encrypts payload for sub and posts it to the subscription endpoint.
func (s *Sender) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.opts.HTTPClient,
		Subscriber:      s.opts.Subject,
		TTL:             s.opts.TTL,
		VAPIDPublicKey:  s.opts.PublicKey,
		VAPIDPrivateKey: s.opts.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("send webpush: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrExpiredSubscription
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("webpush returned status %d", resp.StatusCode)
	}
	return nil
}
