package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher replays a fixed status sequence, then repeats the last
// entry. It counts how many checks were made.
type scriptedFetcher struct {
	statuses []string
	reasons  []string
	errs     []error
	calls    int32
}

func (s *scriptedFetcher) fetch(ctx context.Context, postID string) (string, string, error) {
	i := int(atomic.AddInt32(&s.calls, 1)) - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	var reason string
	if i < len(s.reasons) {
		reason = s.reasons[i]
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.statuses[i], reason, err
}

type outcome struct {
	success int32
	errs    int32
	timeout int32
	reason  string
}

func (o *outcome) callbacks() Callbacks {
	return Callbacks{
		OnSuccess: func() { atomic.AddInt32(&o.success, 1) },
		OnError: func(reason string) {
			o.reason = reason
			atomic.AddInt32(&o.errs, 1)
		},
		OnTimeout: func() { atomic.AddInt32(&o.timeout, 1) },
	}
}

func fastPoller(f StatusFetcher) *Poller {
	return NewWithTiming(f, 5*time.Millisecond, 5)
}

func TestAllPendingTimesOutExactlyOnce(t *testing.T) {
	f := &scriptedFetcher{statuses: []string{"pending", "pending", "pending", "pending", "pending"}}
	var o outcome

	fastPoller(f.fetch).Run(context.Background(), []string{"p1"}, o.callbacks())

	assert.Equal(t, int32(1), o.timeout)
	assert.Zero(t, o.success)
	assert.Zero(t, o.errs)
	assert.Equal(t, int32(5), f.calls, "budget is exactly five checks")
}

func TestPendingThenSent(t *testing.T) {
	f := &scriptedFetcher{statuses: []string{"pending", "sent"}}
	var o outcome

	fastPoller(f.fetch).Run(context.Background(), []string{"p1", "p2", "p3"}, o.callbacks())

	assert.Equal(t, int32(1), o.success)
	assert.Zero(t, o.timeout)
	assert.Equal(t, int32(2), f.calls, "no further checks after the terminal state")
}

func TestFailedCarriesBackendReason(t *testing.T) {
	f := &scriptedFetcher{
		statuses: []string{"failed"},
		reasons:  []string{"Twitter token expired"},
	}
	var o outcome

	fastPoller(f.fetch).Run(context.Background(), []string{"p1"}, o.callbacks())

	assert.Equal(t, int32(1), o.errs)
	assert.Equal(t, "Twitter token expired", o.reason)
}

func TestFailedWithoutReasonUsesFallback(t *testing.T) {
	f := &scriptedFetcher{statuses: []string{"failed"}}
	var o outcome

	fastPoller(f.fetch).Run(context.Background(), []string{"p1"}, o.callbacks())

	assert.Equal(t, int32(1), o.errs)
	assert.Equal(t, "Failed to publish post", o.reason)
}

func TestFetchErrorTakesTimeoutPath(t *testing.T) {
	f := &scriptedFetcher{
		statuses: []string{"pending", ""},
		errs:     []error{nil, errors.New("connection reset")},
	}
	var o outcome

	fastPoller(f.fetch).Run(context.Background(), []string{"p1"}, o.callbacks())

	assert.Equal(t, int32(1), o.timeout)
	assert.Zero(t, o.errs, "a check failure is not surfaced as a publish error")
}

func TestStopSuppressesCallbacks(t *testing.T) {
	f := &scriptedFetcher{statuses: []string{"pending", "sent"}}
	var o outcome

	w := NewWithTiming(f.fetch, 20*time.Millisecond, 5).
		Go(context.Background(), []string{"p1"}, o.callbacks())
	w.Stop()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("poll loop did not exit after Stop")
	}
	assert.Zero(t, o.success)
	assert.Zero(t, o.errs)
	assert.Zero(t, o.timeout)
}

func TestContextCancellationStopsLoop(t *testing.T) {
	f := &scriptedFetcher{statuses: []string{"pending"}}
	var o outcome

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWithTiming(f.fetch, 20*time.Millisecond, 5).
		Go(ctx, []string{"p1"}, o.callbacks())
	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("poll loop did not exit after cancellation")
	}
	assert.Zero(t, o.timeout)
}

func TestEmptyBatchTimesOut(t *testing.T) {
	var o outcome
	fastPoller(func(ctx context.Context, id string) (string, string, error) {
		t.Fatal("no check should be made for an empty batch")
		return "", "", nil
	}).Run(context.Background(), nil, o.callbacks())

	require.Equal(t, int32(1), o.timeout)
}
