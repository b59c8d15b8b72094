package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultChannel = "parishpush:events"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Deliverer receives events relayed from any instance.
type Deliverer interface {
	Deliver(ev domain.Event)
}

// Relay fans events out across instances over redis pub/sub so that every
// instance's stream hub sees every event.
type Relay struct {
	pub     publisher
	raw     *redis.Client
	channel string
	local   Deliverer
	log     *logger.Logger
}

// New parses url, verifies connectivity and returns a Relay delivering to local.
func New(ctx context.Context, url string, local Deliverer, log *logger.Logger) (*Relay, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Relay{pub: raw, raw: raw, channel: defaultChannel, local: local, log: log}, nil
}

// Publish sends ev to every subscribed instance, this one included.
func (r *Relay) Publish(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return r.pub.Publish(ctx, r.channel, data).Err()
}

// Run subscribes to the channel and hands each event to the local hub until
// ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.raw.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) {
	var ev domain.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.log.Warn(ctx, "redis relay: drop malformed event", err)
		return
	}
	r.local.Deliver(ev)
}

func (r *Relay) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}
