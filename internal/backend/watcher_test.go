package backend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atomicstack/mention-popup/internal/match"
)

func TestWatcherEmitsImmediatelyAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	src := match.Async(func(ctx context.Context, query string) ([]match.Candidate, error) {
		n := calls.Add(1)
		if query != "" {
			t.Errorf("expected empty query, got %q", query)
		}
		return []match.Candidate{{Key: "s", Value: string(rune('0' + n))}}, nil
	})
	w := NewWatcher([]Feed{{Collection: 2, Trigger: "s:", Source: src, Interval: 10 * time.Millisecond}})
	defer func() {
		w.Stop()
		w.Wait()
	}()

	for i := 0; i < 2; i++ {
		select {
		case evt := <-w.Events():
			if evt.Collection != 2 {
				t.Fatalf("expected collection 2, got %d", evt.Collection)
			}
			if evt.Err != nil || len(evt.Candidates) != 1 {
				t.Fatalf("unexpected event %#v", evt)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestWatcherReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	src := match.Async(func(context.Context, string) ([]match.Candidate, error) {
		return nil, boom
	})
	w := NewWatcher([]Feed{{Source: src, Interval: time.Hour}})
	defer w.Stop()
	select {
	case evt := <-w.Events():
		if !errors.Is(evt.Err, boom) {
			t.Fatalf("expected boom, got %v", evt.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for error event")
	}
}

func TestWatcherSkipsInvalidFeedsAndCloses(t *testing.T) {
	w := NewWatcher([]Feed{{Interval: time.Second}, {Source: &match.Static{}, Interval: 0}})
	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatalf("expected closed channel without pollers")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected events channel to close")
	}
}

func TestWatcherStopClosesEvents(t *testing.T) {
	src := &match.Static{{Key: "a"}}
	w := NewWatcher([]Feed{{Source: src, Interval: time.Hour}})
	<-w.Events()
	w.Stop()
	w.Wait()
	if _, ok := <-w.Events(); ok {
		t.Fatalf("expected events channel to be closed after stop")
	}
}

func TestThrottleSpacesCalls(t *testing.T) {
	th := newThrottle(20 * time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if !th.wait(ctx) {
			t.Fatalf("unexpected cancellation")
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("expected at least 40ms between three calls, got %s", elapsed)
	}
}

func TestThrottleHonoursCancellation(t *testing.T) {
	th := newThrottle(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if !th.wait(ctx) {
		t.Fatalf("expected first slot to be free")
	}
	cancel()
	if th.wait(ctx) {
		t.Fatalf("expected cancelled wait to return false")
	}
}
