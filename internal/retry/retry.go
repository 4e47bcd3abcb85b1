// Package retry implements the fixed single-retry policy applied to the
// hosted NLP APIs: one retry after a fixed wait, then propagate. Not
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onemusic/pipeline/internal/core/domain"
)

// Policy wraps an external call site with a bounded retry.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Wait is the fixed pause between tries.
	Wait time.Duration
}

// SingleRetry is the pipeline default: retry exactly once after the given
// wait.
func SingleRetry(wait time.Duration) Policy {
	return Policy{Attempts: 2, Wait: wait}
}

// Do runs fn, retrying only transient rate-limit failures. Any other error
// returns immediately. The wait honors context cancellation.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if sleepErr := sleepWithContext(ctx, p.Wait); sleepErr != nil {
				return sleepErr
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			return err
		}
	}

	return err
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry: wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
