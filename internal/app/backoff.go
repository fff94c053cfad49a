package app

import (
	"context"
	"math/rand"
	"time"
)

// Accept retry delays. Transient accept errors (EMFILE, ECONNABORTED) are
// retried after a growing pause so the loop does not spin.
const (
	DefaultAcceptBackoffInitial = 5 * time.Millisecond
	DefaultAcceptBackoffMax     = time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Wait pauses for the current backoff duration and increases it.
// It returns false if ctx was cancelled before the pause ended.
func (b *backoff) Wait(ctx context.Context) bool {
	// ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	t := time.NewTimer(time.Duration(float64(b.current) + jitter))
	defer t.Stop()

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *backoff) Current() time.Duration {
	return b.current
}
