package alerting

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum interval between repeated
// notifications for the same (rule, pool) pair.
const DefaultCooldown = 60 * time.Second

// Deduper suppresses repeat notifications inside a cool-down window.
// Keys are evicted lazily when checked after their deadline, never at
// insert time.
type Deduper struct {
	mu      sync.Mutex
	window  time.Duration
	expires map[dedupeKey]time.Time
	clock   func() time.Time
}

type dedupeKey struct {
	ruleID string
	poolID string
}

// NewDeduper constructs a deduper with the given cool-down window.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Deduper{
		window:  window,
		expires: make(map[dedupeKey]time.Time),
		clock:   time.Now,
	}
}

// TryAcquire reports whether a notification for (ruleID, poolID) may
// fire now, and if so claims the key until the window elapses. A held
// key is not re-insertable until its expiry passes.
func (d *Deduper) TryAcquire(ruleID, poolID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dedupeKey{ruleID: ruleID, poolID: poolID}
	now := d.clock()

	if deadline, held := d.expires[key]; held {
		if now.Before(deadline) {
			return false
		}
		delete(d.expires, key)
	}

	d.expires[key] = now.Add(d.window)
	return true
}

// Len reports the number of keys currently held, sweeping expired ones
// first.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	for key, deadline := range d.expires {
		if !now.Before(deadline) {
			delete(d.expires, key)
		}
	}
	return len(d.expires)
}
