package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/carcast/internal/domain"
	"github.com/bft-labs/carcast/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// transitionLog records every state change.
type transitionLog struct {
	mu      sync.Mutex
	states  []State
	reasons []string
}

func (r *transitionLog) OnStateChange(_, current State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, current)
	r.reasons = append(r.reasons, reason)
}

func (r *transitionLog) path() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

// cancelCounter hands out a cancel func and counts its calls.
type cancelCounter struct {
	mu sync.Mutex
	n  int
}

func (c *cancelCounter) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *cancelCounter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newTestLifecycle() (*Lifecycle, *transitionLog) {
	rec := &transitionLog{}
	return NewLifecycle(mockLogger{}, rec), rec
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Crashed", StateCrashed.String())
	assert.Equal(t, "Unknown", State(-1).String())
	assert.Equal(t, "Unknown", State(42).String())
}

func TestLifecycle_StartAndStop(t *testing.T) {
	l, rec := newTestLifecycle()
	cc := &cancelCounter{}

	require.NoError(t, l.Begin(cc.cancel))
	require.NoError(t, l.Ready("listener bound"))
	require.NoError(t, l.BeginStop("Stop() called"))
	assert.Equal(t, 1, cc.calls(), "stop cancels the run")

	assert.False(t, l.AcceptLoopExited(nil), "loop exit during Stop is planned")
	l.Finish(nil)

	assert.Equal(t, StateStopped, l.State())
	assert.Equal(t, []State{StateStarting, StateRunning, StateStopping, StateStopped}, rec.path())
}

func TestLifecycle_BindFailure(t *testing.T) {
	l, rec := newTestLifecycle()
	cc := &cancelCounter{}

	require.NoError(t, l.Begin(cc.cancel))
	l.Fail("bind failed")

	assert.Equal(t, StateCrashed, l.State())
	assert.Equal(t, 1, cc.calls())
	assert.ErrorIs(t, l.BeginStop("Stop() called"), domain.ErrNotRunning)

	// A crashed server may be started again.
	require.NoError(t, l.Begin(func() {}))
	assert.Equal(t, []State{StateStarting, StateCrashed, StateStarting}, rec.path())
}

func TestLifecycle_StopWhileStarting(t *testing.T) {
	l, _ := newTestLifecycle()
	require.NoError(t, l.Begin(func() {}))

	require.NoError(t, l.BeginStop("Stop() during plugin init"))
	assert.Error(t, l.Ready("listener bound"), "a stopping server never becomes ready")
	l.Finish(nil)
	assert.Equal(t, StateStopped, l.State())
}

func TestLifecycle_BeginRejectsActiveRun(t *testing.T) {
	for _, st := range []State{StateStarting, StateRunning, StateStopping} {
		t.Run(st.String(), func(t *testing.T) {
			l, _ := newTestLifecycle()
			require.NoError(t, l.Begin(func() {}))
			switch st {
			case StateRunning:
				require.NoError(t, l.Ready("bound"))
			case StateStopping:
				require.NoError(t, l.BeginStop("stop"))
			}
			assert.ErrorIs(t, l.Begin(func() {}), domain.ErrAlreadyRunning)
		})
	}
}

func TestLifecycle_AcceptLoopExitedOnCancel(t *testing.T) {
	l, rec := newTestLifecycle()
	require.NoError(t, l.Begin(func() {}))
	require.NoError(t, l.Ready("bound"))

	require.True(t, l.AcceptLoopExited(nil))
	assert.Equal(t, StateStopping, l.State())
	assert.ErrorIs(t, l.BeginStop("Stop() called"), domain.ErrNotRunning, "teardown already owned")

	l.Finish(nil)
	assert.Equal(t, StateStopped, l.State())

	rec.mu.Lock()
	assert.Contains(t, rec.reasons, "context cancelled")
	rec.mu.Unlock()
}

func TestLifecycle_AcceptLoopExitedOnError(t *testing.T) {
	l, _ := newTestLifecycle()
	cc := &cancelCounter{}
	require.NoError(t, l.Begin(cc.cancel))
	require.NoError(t, l.Ready("bound"))

	cause := errors.New("accept: use of closed network connection")
	require.True(t, l.AcceptLoopExited(cause))
	assert.Equal(t, 1, cc.calls(), "handlers are cancelled before teardown")

	l.Finish(cause)
	assert.Equal(t, StateCrashed, l.State())
}

func TestLifecycle_FinishOutsideStoppingIsIgnored(t *testing.T) {
	l, rec := newTestLifecycle()
	l.Finish(nil)
	l.Fail("nothing to fail")
	assert.Equal(t, StateStopped, l.State())
	assert.Empty(t, rec.path())
}

func TestLifecycle_WorkersAndWait(t *testing.T) {
	l, _ := newTestLifecycle()
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		l.Go(func() { <-release })
	}
	assert.Equal(t, 3, l.Workers())
	assert.ErrorIs(t, l.WaitWithTimeout(20*time.Millisecond), domain.ErrShutdownTimeout)

	close(release)
	require.NoError(t, l.WaitWithTimeout(time.Second))
	assert.Equal(t, 0, l.Workers())
}

func TestLifecycle_ConcurrentStopAndLoopExit(t *testing.T) {
	for i := 0; i < 50; i++ {
		l, _ := newTestLifecycle()
		require.NoError(t, l.Begin(func() {}))
		require.NoError(t, l.Ready("bound"))

		var wg sync.WaitGroup
		var stopErr error
		var exited bool
		wg.Add(2)
		go func() { defer wg.Done(); stopErr = l.BeginStop("Stop() called") }()
		go func() { defer wg.Done(); exited = l.AcceptLoopExited(context.Canceled) }()
		wg.Wait()

		// Exactly one side owns the teardown.
		assert.NotEqual(t, stopErr == nil, exited)
		assert.Equal(t, StateStopping, l.State())
	}
}
