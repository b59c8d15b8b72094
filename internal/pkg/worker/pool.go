// Package worker provides the bounded goroutine pool used for broadcast fan-out.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/parishpush/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware unit of work.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
	log  *logger.Logger
}

// New creates a pool of at most size concurrent workers. Submit blocks while
// every worker is busy.
func New(name string, size int, log *logger.Logger) (*Pool, error) {
	p := &Pool{name: name, log: log}
	panicHandler := func(v interface{}) {
		log.Zerolog(context.Background()).Error().
			Str("pool", name).
			Interface("panic", v).
			Msg("worker panic recovered")
	}
	ap, err := ants.NewPool(size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	p.pool = ap
	return p, nil
}

// Submit runs task on a pooled worker. If ctx is already done it returns
// ctx.Err() without submitting; a task dequeued after ctx ends still runs so
// it can account for its own abandonment.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	err := p.pool.Submit(func() { task(ctx) })
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Running returns the number of busy workers.
func (p *Pool) Running() int { return p.pool.Running() }

// Cap returns the pool capacity.
func (p *Pool) Cap() int { return p.pool.Cap() }

// Shutdown waits up to timeout for running tasks, then releases the pool.
func (p *Pool) Shutdown(timeout time.Duration) {
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.log.Warn(context.Background(), "worker pool shutdown timeout: "+p.name, err)
	}
}
