package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/carcast/internal/domain"
	"github.com/bft-labs/carcast/internal/ports"
)

// ShutdownTimeout is the maximum time Stop waits for the accept loop and
// the connection handlers to exit after cancellation.
const ShutdownTimeout = 10 * time.Second

// State represents the lifecycle state of the server.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

// String returns a human-readable representation of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// next lists the states reachable from each state.
var next = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

func canMove(from, to State) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle drives the server through its states. It owns the cancel
// function of the current run and tracks the accept loop goroutine.
//
//	Stopped -> Starting -> Running -> Stopping -> Stopped
//	              |           |           |
//	              +---------> Crashed <---+
//
// Stopping is entered either by Stop or by the accept loop returning on
// its own; whoever enters it owns the teardown and calls Finish.
type Lifecycle struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	wg      sync.WaitGroup
	workers atomic.Int64

	logger  ports.Logger
	emitter EventEmitter
}

// NewLifecycle creates a lifecycle in StateStopped.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Begin enters StateStarting from Stopped or Crashed and records the cancel
// function of the new run. Fails with ErrAlreadyRunning otherwise.
func (l *Lifecycle) Begin(cancel context.CancelFunc) error {
	l.mu.Lock()
	from := l.state
	if !canMove(from, StateStarting) {
		l.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	l.state = StateStarting
	l.cancel = cancel
	l.mu.Unlock()

	l.emit(from, StateStarting, "start requested")
	return nil
}

// Ready marks a started server as accepting clients.
func (l *Lifecycle) Ready(reason string) error {
	return l.move(StateStarting, StateRunning, reason)
}

// Fail cancels the current run and enters StateCrashed.
func (l *Lifecycle) Fail(reason string) {
	l.mu.Lock()
	from := l.state
	if !canMove(from, StateCrashed) {
		l.mu.Unlock()
		return
	}
	l.state = StateCrashed
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.emit(from, StateCrashed, reason)
}

// BeginStop enters StateStopping from Starting or Running and cancels the
// current run. Fails with ErrNotRunning when there is nothing to stop or a
// teardown is already under way.
func (l *Lifecycle) BeginStop(reason string) error {
	if !l.stop(reason, StateStarting, StateRunning) {
		return domain.ErrNotRunning
	}
	return nil
}

// AcceptLoopExited records that the accept loop returned with err.
// It reports true when the exit was not caused by BeginStop, in which case
// the server has been moved to StateStopping and the caller must tear down
// and call Finish(err).
func (l *Lifecycle) AcceptLoopExited(err error) bool {
	reason := "context cancelled"
	if err != nil {
		reason = fmt.Sprintf("accept loop failed: %v", err)
	}
	return l.stop(reason, StateRunning)
}

// stop moves to StateStopping if the current state is one of from.
func (l *Lifecycle) stop(reason string, from ...State) bool {
	l.mu.Lock()
	cur := l.state
	ok := false
	for _, s := range from {
		if cur == s {
			ok = true
			break
		}
	}
	if !ok {
		l.mu.Unlock()
		return false
	}
	l.state = StateStopping
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.emit(cur, StateStopping, reason)
	return true
}

// Finish ends a teardown: StateStopped when err is nil, StateCrashed otherwise.
func (l *Lifecycle) Finish(err error) {
	if err != nil {
		_ = l.move(StateStopping, StateCrashed, err.Error())
		return
	}
	_ = l.move(StateStopping, StateStopped, "clean shutdown")
}

func (l *Lifecycle) move(from, to State, reason string) error {
	l.mu.Lock()
	if l.state != from {
		cur := l.state
		l.mu.Unlock()
		return fmt.Errorf("lifecycle: cannot move to %s from %s", to, cur)
	}
	l.state = to
	l.mu.Unlock()

	l.emit(from, to, reason)
	return nil
}

func (l *Lifecycle) emit(from, to State, reason string) {
	if l.emitter != nil {
		l.emitter.OnStateChange(from, to, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", from.String()),
		ports.String("to", to.String()),
		ports.String("reason", reason),
	)
}

// Go runs fn as a tracked worker.
func (l *Lifecycle) Go(fn func()) {
	l.workers.Add(1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.workers.Add(-1)
		fn()
	}()
}

// Workers returns the number of workers that have not finished yet.
func (l *Lifecycle) Workers() int {
	return int(l.workers.Load())
}

// WaitWithTimeout waits for all workers to finish.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, abandoning workers",
			ports.Duration("timeout", timeout),
			ports.Int("workers", l.Workers()),
		)
		return domain.ErrShutdownTimeout
	}
}
