package microbatch

import (
	"time"

	"github.com/inferlab/microbatch/internal/app"
)

// State is the public lifecycle state of a MicroBatcher.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return convertibleState(s).String()
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BatchDoneEvent describes a successfully dispatched batch.
type BatchDoneEvent struct {
	// Size is the number of requests in the batch.
	Size int

	// QueueWait is how long the oldest request waited before dispatch.
	QueueWait time.Duration

	// ProcessTime is how long the processor took.
	ProcessTime time.Duration
}

// BatchErrorEvent describes a failed batch. Every request in the batch
// received Err.
type BatchErrorEvent struct {
	Err  error
	Size int
}

// EventHandler receives batcher events. Handlers are called synchronously
// from the dispatch goroutine and must not block.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnBatchDone(event BatchDoneEvent)
	OnBatchError(event BatchErrorEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnBatchDone(size int, queueWait, processTime time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchDone(BatchDoneEvent{
		Size:        size,
		QueueWait:   queueWait,
		ProcessTime: processTime,
	})
}

func (e *eventEmitterWrapper) OnBatchError(err error, size int) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchError(BatchErrorEvent{Err: err, Size: size})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

func convertibleState(s State) app.State {
	switch s {
	case StateStopped:
		return app.StateStopped
	case StateStarting:
		return app.StateStarting
	case StateRunning:
		return app.StateRunning
	case StateStopping:
		return app.StateStopping
	case StateCrashed:
		return app.StateCrashed
	default:
		return app.StateStopped
	}
}
