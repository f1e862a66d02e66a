package app

import (
	"context"
	"log"
	"time"
)

const maxBackoff = 30 * time.Second

// feedRefresher is the part of feed.Store the poller drives.
type feedRefresher interface {
	Refresh(ctx context.Context) error
}

// StartPoller launches a background goroutine that refreshes the feed at a
// fixed cadence while signedIn reports true. Consecutive failures back off
// exponentially. A non-positive interval disables polling. It returns
// immediately.
func StartPoller(ctx context.Context, feed feedRefresher, signedIn func() bool, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if signedIn == nil || signedIn() {
				failures = refresh(ctx, feed, failures)
			} else {
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// refresh runs one poll and returns the updated consecutive failure count.
func refresh(ctx context.Context, feed feedRefresher, failures int) int {
	if err := feed.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return failures
		}
		failures++
		log.Printf("feed poll failed (attempt %d), backing off: %v", failures, err)
		return failures
	}
	if failures > 0 {
		log.Printf("feed poll recovered after %d failures", failures)
	}
	return 0
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	if failures > 16 {
		return maxBackoff
	}
	d := base << failures
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
