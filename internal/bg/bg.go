// Package bg runs best-effort side-channel writes (profile upserts, memory
// facts, session progress) that must never block or fail the request that
// triggered them.
package bg

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds each detached task.
const DefaultTimeout = 5 * time.Second

// Runner launches detached tasks and remembers them so shutdown can drain them.
type Runner struct {
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a Runner whose tasks log failures to log.
func NewRunner(log *slog.Logger) *Runner {
	return &Runner{log: log, timeout: DefaultTimeout}
}

// Go runs fn on its own goroutine with a fresh context. A returned error is
// logged as a persistence warning and dropped.
func (r *Runner) Go(op string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.log.Warn("persistence warning", "op", op, "error", err)
		}
	}()
}

// Wait blocks until every task started so far has returned or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
