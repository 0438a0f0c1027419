package crawler

import (
	"context"
	"time"
)

// Clock abstracts time so pacing can be driven by a fake clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After waits for the duration to elapse and then sends the current time
	// on the returned channel.
	After(d time.Duration) <-chan time.Time
}

// SystemClock is a Clock backed by the time package.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// After returns time.After(d).
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Pacer decides how long to wait after each request attempt.
type Pacer interface {
	// Pause blocks until the next request may be issued or ctx is done.
	Pause(ctx context.Context) error
}

// IntervalPacer waits a fixed interval after every attempt.
// There is no growth between attempts: a retry waits exactly as long as a
// first request.
type IntervalPacer struct {
	interval time.Duration
	clock    Clock
}

// NewIntervalPacer returns a pacer that waits interval on clock.
// A nil clock means SystemClock. A non-positive interval never waits.
func NewIntervalPacer(interval time.Duration, clock Clock) *IntervalPacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &IntervalPacer{interval: interval, clock: clock}
}

// NewRatePacer returns a pacer that keeps a single caller at or below
// requestsPerMinute, i.e. it waits 60s/requestsPerMinute after each attempt.
func NewRatePacer(requestsPerMinute int, clock Clock) *IntervalPacer {
	return NewIntervalPacer(IntervalForRate(requestsPerMinute), clock)
}

// IntervalForRate converts a per-minute request rate to the pause between
// requests. Non-positive rates mean no pause.
func IntervalForRate(requestsPerMinute int) time.Duration {
	if requestsPerMinute <= 0 {
		return 0
	}
	return time.Minute / time.Duration(requestsPerMinute)
}

// Interval returns the configured pause.
func (p *IntervalPacer) Interval() time.Duration {
	return p.interval
}

// Pause waits for the interval or until ctx is done.
func (p *IntervalPacer) Pause(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.interval):
		return nil
	}
}
