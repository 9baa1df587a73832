package app

import (
	"context"
	"sync"
	"time"

	"github.com/inferlab/microbatch/internal/domain"
	"github.com/inferlab/microbatch/internal/ports"
)

// ShutdownTimeout is the maximum time Stop waits for the collector to drain.
const ShutdownTimeout = 30 * time.Second

// State represents the lifecycle state of the batcher.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{"Stopped", "Starting", "Running", "Stopping", "Crashed"}

// String returns a human-readable representation of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// transitions is the batcher's state machine. Each state lists the states it
// may move to and the error reported when asked to go anywhere else: an
// illegal move out of a resting state (Stopped, Crashed) means the batcher is
// not running, one out of an active state means it already is. Crashed is
// re-startable so a batcher can recover after a collector failure.
var transitions = map[State]struct {
	next []State
	err  error
}{
	StateStopped:  {next: []State{StateStarting}, err: domain.ErrNotRunning},
	StateStarting: {next: []State{StateRunning, StateCrashed}, err: domain.ErrAlreadyRunning},
	StateRunning:  {next: []State{StateStopping, StateCrashed}, err: domain.ErrAlreadyRunning},
	StateStopping: {next: []State{StateStopped, StateCrashed}, err: domain.ErrAlreadyRunning},
	StateCrashed:  {next: []State{StateStarting}, err: domain.ErrNotRunning},
}

// EventEmitter is called when the lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle owns the batcher's state machine and the collector goroutine's
// shutdown plumbing: the cancel function for hard stops and the worker count
// Stop uses to observe the drain finishing.
type Lifecycle struct {
	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc

	workers sync.WaitGroup

	logger  ports.Logger
	emitter EventEmitter
}

// NewLifecycle creates a lifecycle manager in StateStopped.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves the machine to next if the transition table allows it.
// The state is unchanged on error. On success the state-change event is
// emitted outside the lock, so emitters may call back into the lifecycle.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	from := l.state

	allowed := false
	for _, s := range transitions[from].next {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		l.mu.Unlock()
		return transitions[from].err
	}

	l.state = next
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(from, next, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", from.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

// CanStart reports whether the machine is at rest and may move toward Running.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStopped || l.state == StateCrashed
}

// CanStop reports whether the machine may begin a draining shutdown.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning
}

// SetCancel stores the cancel function a hard stop will invoke.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel invokes the stored cancel function, if any.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker registers a background goroutine that Stop must wait for.
func (l *Lifecycle) AddWorker() {
	l.workers.Add(1)
}

// WorkerDone marks a registered goroutine as finished.
func (l *Lifecycle) WorkerDone() {
	l.workers.Done()
}

// WaitWithTimeout blocks until every registered goroutine has finished.
// Returns ErrShutdownTimeout if they have not all finished within timeout.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, forcing exit",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
