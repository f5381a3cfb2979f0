package dedup

import (
	"context"
	"fmt"
)

// Deduplicator suppresses repeated deliveries of the same (job, status) pair
// within a short window. It is advisory; the status-filtered record lookup
// is what keeps state transitions single-shot.
type Deduplicator interface {
	// ShouldProcess records the pair and reports whether this is its first
	// sighting within the window.
	ShouldProcess(ctx context.Context, jobID, status string) (bool, error)
	// Release forgets the pair so a provider retry is processed again.
	Release(ctx context.Context, jobID, status string) error
}

// Key is the cache key for a delivery.
func Key(jobID, status string) string {
	return fmt.Sprintf("%s-%s", jobID, status)
}
