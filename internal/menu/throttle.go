package menu

import (
	"sync"
	"time"
)

// Throttle enforces a minimum interval between repositions. Unlike a
// blocking limiter it never sleeps: callers learn how long to wait and
// schedule a retry themselves.
type Throttle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	next time.Time
}

// NewThrottle builds a throttle. Non-positive intervals always allow.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// Allow reports whether the operation may run now. When it may not, the
// returned duration is the time left until it may.
func (t *Throttle) Allow() (bool, time.Duration) {
	if t == nil || t.interval <= 0 {
		return true, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if wait := t.next.Sub(now); wait > 0 {
		return false, wait
	}
	t.next = now.Add(t.interval)
	return true, 0
}

// Reset clears the pending interval.
func (t *Throttle) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.next = time.Time{}
	t.mu.Unlock()
}
