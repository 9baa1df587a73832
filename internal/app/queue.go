package app

import (
	"sync"

	"github.com/inferlab/microbatch/internal/domain"
)

// Queue is the pending queue shared between submitters and the collector.
// All access is guarded by a single mutex to preserve FIFO order and to
// guarantee that no request is lost or duplicated. Enqueue wakes the
// collector through a buffered notify channel so the collector never
// busy-spins on an active queue.
type Queue[T, R any] struct {
	mu        sync.Mutex
	pending   []*domain.Request[T, R]
	accepting bool

	notify chan struct{}
}

// NewQueue creates a queue that is not yet accepting submissions.
func NewQueue[T, R any]() *Queue[T, R] {
	return &Queue[T, R]{
		notify: make(chan struct{}, 1),
	}
}

// Open begins accepting submissions.
func (q *Queue[T, R]) Open() {
	q.mu.Lock()
	q.accepting = true
	q.mu.Unlock()
}

// Close stops accepting submissions. Requests already queued stay queued.
func (q *Queue[T, R]) Close() {
	q.mu.Lock()
	q.accepting = false
	q.mu.Unlock()
}

// Enqueue appends a request in FIFO order and wakes the collector.
// Returns ErrNotAccepting if the queue is closed.
func (q *Queue[T, R]) Enqueue(req *domain.Request[T, R]) error {
	q.mu.Lock()
	if !q.accepting {
		q.mu.Unlock()
		return domain.ErrNotAccepting
	}
	q.pending = append(q.pending, req)
	q.mu.Unlock()

	// Non-blocking: one buffered wakeup is enough.
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// MoveInto transfers queued requests into the batch, oldest first, up to the
// batch's remaining capacity. Returns the number of requests moved.
func (q *Queue[T, R]) MoveInto(batch *domain.Batch[T, R]) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := batch.Remaining()
	if n > len(q.pending) {
		n = len(q.pending)
	}
	for _, req := range q.pending[:n] {
		batch.Add(req)
	}
	// Clear moved slots so the requests can be collected once resolved.
	remaining := copy(q.pending, q.pending[n:])
	for i := remaining; i < len(q.pending); i++ {
		q.pending[i] = nil
	}
	q.pending = q.pending[:remaining]
	return n
}

// FailAll removes every queued request and resolves it with err.
// Used on hard shutdown so no submitter is left waiting forever.
func (q *Queue[T, R]) FailAll(err error) int {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, req := range pending {
		req.Fail(err)
	}
	return len(pending)
}

// Len returns the number of queued requests.
func (q *Queue[T, R]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Notify returns the channel signaled on enqueue.
func (q *Queue[T, R]) Notify() <-chan struct{} {
	return q.notify
}
