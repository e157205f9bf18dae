package backend

import (
	"context"
	"sync"
	"time"

	"github.com/atomicstack/mention-popup/internal/logging"
	"github.com/atomicstack/mention-popup/internal/match"
)

const minFetchGap = 250 * time.Millisecond

// Feed refreshes one collection's static values from a source.
type Feed struct {
	// Collection is the index of the collection in its configuration.
	Collection int
	Trigger    string
	Source     match.Source
	Interval   time.Duration
}

// Event conveys a fresh candidate list or an error from a feed poll.
type Event struct {
	Collection int
	Candidates []match.Candidate
	Err        error
}

// Watcher polls each feed at its interval and publishes events.
type Watcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup
}

// NewWatcher starts one poller per feed. Feeds without a source or with a
// non-positive interval are ignored.
func NewWatcher(feeds []Feed) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, 16),
	}
	for _, feed := range feeds {
		if feed.Source == nil || feed.Interval <= 0 {
			continue
		}
		w.wg.Add(1)
		go w.poll(feed)
	}

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w
}

// Events returns a channel of feed events. It is closed once every poller
// has exited.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. Pollers exit after their current fetch completes;
// use Wait if a clean drain is required (e.g. in tests).
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until all poller goroutines have exited and the events channel
// is closed. Call after Stop when a clean shutdown is required.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) poll(feed Feed) {
	defer w.wg.Done()
	throttle := newThrottle(minFetchGap)

	emit := func() bool {
		if !throttle.wait(w.ctx) {
			return false
		}
		candidates, err := feed.Source.Resolve(w.ctx, "")
		if err != nil && w.ctx.Err() != nil {
			return false
		}
		logging.Trace("backend.feed", map[string]interface{}{
			"collection": feed.Collection,
			"trigger":    feed.Trigger,
			"count":      len(candidates),
			"error":      errString(err),
		})
		evt := Event{Collection: feed.Collection, Candidates: candidates, Err: err}
		select {
		case <-w.ctx.Done():
			return false
		case w.events <- evt:
			return true
		}
	}

	if !emit() {
		return
	}

	ticker := time.NewTicker(feed.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if !emit() {
				return
			}
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
