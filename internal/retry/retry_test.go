package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/onemusic/pipeline/internal/core/domain"
)

func TestDoRetriesOnlyRateLimited(t *testing.T) {
	otherErr := errors.New("boom")

	tests := []struct {
		name      string
		results   []error
		wantCalls int
		wantErr   error
	}{
		{
			name:      "success first try",
			results:   []error{nil},
			wantCalls: 1,
		},
		{
			name:      "rate limited then success",
			results:   []error{domain.ErrRateLimited, nil},
			wantCalls: 2,
		},
		{
			name:      "rate limited twice propagates",
			results:   []error{domain.ErrRateLimited, domain.ErrRateLimited},
			wantCalls: 2,
			wantErr:   domain.ErrRateLimited,
		},
		{
			name:      "wrapped rate limit retried",
			results:   []error{fmt.Errorf("api: %w", domain.ErrRateLimited), nil},
			wantCalls: 2,
		},
		{
			name:      "other errors propagate immediately",
			results:   []error{otherErr},
			wantCalls: 1,
			wantErr:   otherErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := SingleRetry(time.Millisecond).Do(context.Background(), func() error {
				result := tt.results[calls]
				calls++
				return result
			})

			if calls != tt.wantCalls {
				t.Fatalf("calls: got %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := SingleRetry(time.Hour).Do(ctx, func() error {
		calls++
		return domain.ErrRateLimited
	})

	if calls != 1 {
		t.Fatalf("calls: got %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
