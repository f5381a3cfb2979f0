package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduplicator keeps first-seen timestamps in process memory. Expired
// entries are swept on each call; there is no background timer.
type MemoryDeduplicator struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryDeduplicator(window time.Duration) *MemoryDeduplicator {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &MemoryDeduplicator{
		window:  window,
		now:     time.Now,
		entries: map[string]time.Time{},
	}
}

// WithClock replaces the time source; used in tests.
func (d *MemoryDeduplicator) WithClock(now func() time.Time) *MemoryDeduplicator {
	d.now = now
	return d
}

func (d *MemoryDeduplicator) ShouldProcess(_ context.Context, jobID, status string) (bool, error) {
	key := Key(jobID, status)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.sweep(now)
	if _, seen := d.entries[key]; seen {
		return false, nil
	}
	d.entries[key] = now
	return true, nil
}

func (d *MemoryDeduplicator) Release(_ context.Context, jobID, status string) error {
	d.mu.Lock()
	delete(d.entries, Key(jobID, status))
	d.mu.Unlock()
	return nil
}

// Len reports the number of live entries.
func (d *MemoryDeduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *MemoryDeduplicator) sweep(now time.Time) {
	for key, seenAt := range d.entries {
		if now.Sub(seenAt) >= d.window {
			delete(d.entries, key)
		}
	}
}

var _ Deduplicator = (*MemoryDeduplicator)(nil)
