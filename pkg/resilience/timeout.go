package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout runs fn with a context that expires after timeout; a zero
// timeout runs fn directly on ctx. The call returns when the deadline
// passes even if fn is still running, in which case fn's result is
// discarded.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn(deadlineCtx) }()

	select {
	case err := <-result:
		return err
	case <-deadlineCtx.Done():
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: build context ended: %w", name, err)
	}
	return fmt.Errorf("%s: no result within %v: %w", name, timeout, context.DeadlineExceeded)
}
