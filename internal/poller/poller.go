package poller

import (
	"context"
	"sync/atomic"
	"time"
)

// Terminal statuses reported by the backend.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

const fallbackReason = "Failed to publish post"

// StatusFetcher reads the current status of one post. reason accompanies a
// failed status when the backend supplied one.
type StatusFetcher func(ctx context.Context, postID string) (status string, reason string, err error)

// Callbacks receive the single terminal outcome. At most one of them fires,
// at most once, and none fires after Stop.
type Callbacks struct {
	OnSuccess func()
	OnError   func(reason string)
	OnTimeout func()
}

// Poller watches a publish action until it settles, bounded by a fixed
// attempt budget. One representative post stands in for the whole batch.
type Poller struct {
	fetch       StatusFetcher
	interval    time.Duration
	maxAttempts int
}

// New builds a poller with the default protocol: a check every 2 seconds,
// 5 checks at most.
func New(fetch StatusFetcher) *Poller {
	return &Poller{fetch: fetch, interval: 2 * time.Second, maxAttempts: 5}
}

// NewWithTiming overrides the protocol. Used by config wiring and tests.
func NewWithTiming(fetch StatusFetcher, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Poller{fetch: fetch, interval: interval, maxAttempts: maxAttempts}
}

// Watch is a handle on a running poll loop. Stop sets the cooperative
// cancellation flag: the loop observes it before every check and before
// dispatching any callback, so nothing fires after Stop returns even if a
// check was in flight.
type Watch struct {
	stopped atomic.Bool
	done    chan struct{}
}

func (w *Watch) Stop() {
	w.stopped.Store(true)
}

// Done closes when the loop has exited, whatever the reason.
func (w *Watch) Done() <-chan struct{} {
	return w.done
}

// Go starts the poll loop in a new goroutine and returns its handle.
func (p *Poller) Go(ctx context.Context, postIDs []string, cb Callbacks) *Watch {
	w := &Watch{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		p.run(ctx, w, postIDs, cb)
	}()
	return w
}

// Run polls synchronously in the calling goroutine until a terminal state,
// the attempt budget, or cancellation.
func (p *Poller) Run(ctx context.Context, postIDs []string, cb Callbacks) {
	w := &Watch{done: make(chan struct{})}
	defer close(w.done)
	p.run(ctx, w, postIDs, cb)
}

func (p *Poller) run(ctx context.Context, w *Watch, postIDs []string, cb Callbacks) {
	if len(postIDs) == 0 {
		dispatch(w, cb.OnTimeout)
		return
	}
	postID := postIDs[0]

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if w.stopped.Load() {
			return
		}

		status, reason, err := p.fetch(ctx, postID)
		if err != nil {
			// A failed check takes the timeout path rather than hanging
			// or surfacing a transport error for a post that may well
			// still go out.
			dispatch(w, cb.OnTimeout)
			return
		}

		switch status {
		case StatusSent:
			dispatch(w, cb.OnSuccess)
			return
		case StatusFailed:
			if reason == "" {
				reason = fallbackReason
			}
			dispatchErr(w, cb.OnError, reason)
			return
		}

		timer.Reset(p.interval)
	}

	dispatch(w, cb.OnTimeout)
}

func dispatch(w *Watch, fn func()) {
	if w.stopped.Load() || fn == nil {
		return
	}
	fn()
}

func dispatchErr(w *Watch, fn func(string), reason string) {
	if w.stopped.Load() || fn == nil {
		return
	}
	fn(reason)
}
