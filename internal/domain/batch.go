package domain

import "time"

// Batch is an ordered group of requests dispatched to the processor together.
// It maintains the invariant that Size() never exceeds its capacity.
type Batch[T, R any] struct {
	// Requests holds the batch members in submission order.
	Requests []*Request[T, R]

	// WindowStart is the enqueue time of the first request in the batch.
	// The latency bound is measured from this instant.
	WindowStart time.Time

	capacity int
}

// NewBatch creates an empty batch with the given capacity.
func NewBatch[T, R any](capacity int) *Batch[T, R] {
	return &Batch[T, R]{
		Requests: make([]*Request[T, R], 0, capacity),
		capacity: capacity,
	}
}

// Add appends a request to the batch. The first request fixes the window start.
func (b *Batch[T, R]) Add(req *Request[T, R]) {
	if len(b.Requests) == 0 {
		b.WindowStart = req.EnqueuedAt
	}
	b.Requests = append(b.Requests, req)
}

// Size returns the number of requests in the batch.
func (b *Batch[T, R]) Size() int {
	return len(b.Requests)
}

// Empty returns true if the batch has no requests.
func (b *Batch[T, R]) Empty() bool {
	return len(b.Requests) == 0
}

// Full returns true once the batch has reached its capacity.
func (b *Batch[T, R]) Full() bool {
	return len(b.Requests) >= b.capacity
}

// Remaining returns how many requests the batch can still take.
func (b *Batch[T, R]) Remaining() int {
	return b.capacity - len(b.Requests)
}

// Payloads returns the ordered payload sequence handed to the processor.
func (b *Batch[T, R]) Payloads() []T {
	payloads := make([]T, len(b.Requests))
	for i, req := range b.Requests {
		payloads[i] = req.Payload
	}
	return payloads
}

// Resolve delivers position-aligned results to every request in the batch.
// If the result count does not match the batch size, every request is failed
// with ErrBatchContract instead; no request is ever left hanging.
func (b *Batch[T, R]) Resolve(results []R) {
	if len(results) != len(b.Requests) {
		b.Fail(ErrBatchContract)
		return
	}
	for i, req := range b.Requests {
		req.Resolve(results[i])
	}
}

// Fail delivers the same error to every request in the batch.
func (b *Batch[T, R]) Fail(err error) {
	for _, req := range b.Requests {
		req.Fail(err)
	}
}

// Reset clears the batch for reuse by the next collection window.
func (b *Batch[T, R]) Reset() {
	b.Requests = b.Requests[:0]
	b.WindowStart = time.Time{}
}
