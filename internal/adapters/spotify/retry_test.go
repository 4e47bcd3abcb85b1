package spotify

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newRetryTestClient(baseURL string, maxRetries int) *Client {
	return &Client{
		httpClient:  http.DefaultClient,
		baseURL:     baseURL,
		maxRetries:  maxRetries,
		baseBackoff: time.Millisecond,
	}
}

func TestDoRequestWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		maxRetries   int
		wantStatus   int
		wantAttempts int
		wantErr      bool
	}{
		{
			name:         "immediate success",
			statuses:     []int{http.StatusOK},
			maxRetries:   3,
			wantStatus:   http.StatusOK,
			wantAttempts: 1,
		},
		{
			name:         "recovers from transient 503s",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
			maxRetries:   3,
			wantStatus:   http.StatusOK,
			wantAttempts: 3,
		},
		{
			name:         "gives up after persistent 429",
			statuses:     []int{http.StatusTooManyRequests},
			maxRetries:   2,
			wantAttempts: 2,
			wantErr:      true,
		},
		{
			name:         "client errors are not retried",
			statuses:     []int{http.StatusBadRequest},
			maxRetries:   3,
			wantStatus:   http.StatusBadRequest,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				status := tt.statuses[len(tt.statuses)-1]
				if attempts < len(tt.statuses) {
					status = tt.statuses[attempts]
				}
				attempts++
				w.WriteHeader(status)
			}))
			defer ts.Close()

			client := newRetryTestClient(ts.URL, tt.maxRetries)

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			if err != nil {
				t.Fatalf("create request: %v", err)
			}

			resp, err := client.doRequestWithRetry(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, want error=%v", err, tt.wantErr)
			}
			if resp != nil {
				defer resp.Body.Close()
				if resp.StatusCode != tt.wantStatus {
					t.Fatalf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
				}
			}
			if attempts != tt.wantAttempts {
				t.Fatalf("attempts: got %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestDoRequestWithRetryHonorsRetryAfter(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := newRetryTestClient(ts.URL, 2)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	resp, err := client.doRequestWithRetry(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if attempts != 2 {
		t.Fatalf("attempts: got %d, want 2", attempts)
	}
}
