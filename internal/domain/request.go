package domain

import "time"

// Outcome is the terminal value delivered to a request's submitter:
// either a result or an error, never both.
type Outcome[R any] struct {
	Result R
	Err    error
}

// Request represents a single submitted payload awaiting a batched result.
// A request belongs to exactly one batch and is resolved exactly once.
type Request[T, R any] struct {
	// ID is a process-unique sequence number, used for log correlation.
	ID uint64

	// Payload is the opaque unit of work supplied by the submitter.
	Payload T

	// EnqueuedAt is when the request entered the pending queue.
	EnqueuedAt time.Time

	// done carries the single outcome back to the submitter.
	done chan Outcome[R]
}

// NewRequest creates a request for the given payload.
// The outcome channel is buffered so resolution never blocks the dispatch loop.
func NewRequest[T, R any](id uint64, payload T, enqueuedAt time.Time) *Request[T, R] {
	return &Request[T, R]{
		ID:         id,
		Payload:    payload,
		EnqueuedAt: enqueuedAt,
		done:       make(chan Outcome[R], 1),
	}
}

// Resolve delivers the result to the submitter. Calling Resolve more than
// once is a programming error; the channel buffer holds exactly one outcome.
func (r *Request[T, R]) Resolve(result R) {
	r.done <- Outcome[R]{Result: result}
}

// Fail delivers an error to the submitter instead of a result.
func (r *Request[T, R]) Fail(err error) {
	r.done <- Outcome[R]{Err: err}
}

// Done returns the channel the submitter waits on.
func (r *Request[T, R]) Done() <-chan Outcome[R] {
	return r.done
}
