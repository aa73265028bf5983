package browser

import (
	"context"
	"time"
)

// Page is a single browser tab driven sequentially
type Page interface {
	// Navigate loads url, waits settle and returns what the page shows
	Navigate(ctx context.Context, url string, settle time.Duration) (*Snapshot, error)
	// Snapshot captures the current page without navigating
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Click clicks the first visible element matching t and reports whether
	// anything was clicked
	Click(ctx context.Context, t Target) (bool, error)
}

// Sleep pauses for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
