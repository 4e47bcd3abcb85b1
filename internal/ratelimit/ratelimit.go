// Package ratelimit holds the two cooperative throttles the pipeline uses:
// a randomized courtesy delay between scrape calls and a
// latency-proportional pacer for batched object creation.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Throttle sleeps for a random duration within [Min, Max] between external
// calls. It is a fixed-budget courtesy delay, not adaptive backoff.
type Throttle struct {
	Min time.Duration
	Max time.Duration
}

// Wait blocks for the randomized delay, honoring context cancellation.
func (t Throttle) Wait(ctx context.Context) error {
	delay := t.Min
	if t.Max > t.Min {
		// #nosec G404 -- jitter for API courtesy, not security-sensitive
		delay += time.Duration(rand.Int63n(int64(t.Max - t.Min)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("ratelimit: wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Pacer throttles batched object creation toward a target rate. After a
// batch of n objects took the observed duration, Pause returns how long to
// sleep so the average rate approaches TargetPerSecond.
type Pacer struct {
	TargetPerSecond float64
}

// Pause computes the sleep owed after a batch. Zero when the batch already
// ran at or below the target rate, or when no target is configured.
func (p Pacer) Pause(objects int, took time.Duration) time.Duration {
	if p.TargetPerSecond <= 0 || objects <= 0 {
		return 0
	}

	budget := time.Duration(float64(objects) / p.TargetPerSecond * float64(time.Second))
	if took >= budget {
		return 0
	}
	return budget - took
}
