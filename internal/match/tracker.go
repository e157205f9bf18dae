package match

import (
	"context"
	"sync"
)

// Tracker hands out generation tokens for background fetches. Only the most
// recent generation is current; starting a new one cancels the previous
// fetch's context.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a new generation derived from parent.
func (t *Tracker) Begin(parent context.Context) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.gen++
	t.cancel = cancel
	return ctx, t.gen
}

// Current reports whether gen is still the live generation.
func (t *Tracker) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen != 0 && gen == t.gen && t.cancel != nil
}

// Finish releases the context of gen once its result has been consumed.
func (t *Tracker) Finish(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.cancel == nil {
		return
	}
	t.cancel()
	t.cancel = nil
}

// Invalidate cancels any in-flight fetch and makes every issued token stale.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}

// Generation returns the latest issued token.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}
