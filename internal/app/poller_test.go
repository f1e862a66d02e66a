package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type flakyFeed struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *flakyFeed) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func TestRefresh_CountsConsecutiveFailures(t *testing.T) {
	feed := &flakyFeed{errs: []error{errors.New("offline"), errors.New("offline")}}
	ctx := context.Background()

	failures := refresh(ctx, feed, 0)
	if failures != 1 {
		t.Fatalf("failures after first error = %d, want 1", failures)
	}
	failures = refresh(ctx, feed, failures)
	if failures != 2 {
		t.Fatalf("failures after second error = %d, want 2", failures)
	}
	if failures = refresh(ctx, feed, failures); failures != 0 {
		t.Fatalf("failures after success = %d, want 0", failures)
	}
}

func TestRefresh_CancelledContextKeepsCount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	feed := &flakyFeed{errs: []error{context.Canceled}}
	if got := refresh(ctx, feed, 3); got != 3 {
		t.Fatalf("refresh on cancelled context = %d, want 3", got)
	}
}

func TestStartPoller_RefreshesOnlyWhileSignedIn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := &flakyFeed{}
	var signedIn atomic.Bool
	StartPoller(ctx, feed, signedIn.Load, 5*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	feed.mu.Lock()
	before := feed.calls
	feed.mu.Unlock()
	if before != 0 {
		t.Fatalf("poller refreshed %d times while signed out", before)
	}

	signedIn.Store(true)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		feed.mu.Lock()
		calls := feed.calls
		feed.mu.Unlock()
		if calls > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("poller never refreshed after sign-in")
}

func TestStartPoller_ZeroIntervalDisables(t *testing.T) {
	feed := &flakyFeed{}
	StartPoller(context.Background(), feed, func() bool { return true }, 0)
	time.Sleep(20 * time.Millisecond)
	feed.mu.Lock()
	defer feed.mu.Unlock()
	if feed.calls != 0 {
		t.Fatalf("disabled poller refreshed %d times", feed.calls)
	}
}
