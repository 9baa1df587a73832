package ports

import "context"

// BatchProcessor handles one dispatched batch of payloads.
// It is the single outbound contract of the batching core: the only place
// that should touch an actual inference engine or other batch-amortized
// backend.
type BatchProcessor[T, R any] interface {
	// ProcessBatch processes the ordered payload sequence and returns one
	// result per payload, position-aligned to the input order. Returning a
	// sequence of any other length is a contract violation and fails the
	// whole batch. The batcher imposes no timeout; wrap the processor if
	// one is needed.
	ProcessBatch(ctx context.Context, payloads []T) ([]R, error)
}

// ProcessorFunc adapts a plain function to the BatchProcessor interface.
type ProcessorFunc[T, R any] func(ctx context.Context, payloads []T) ([]R, error)

// ProcessBatch calls f.
func (f ProcessorFunc[T, R]) ProcessBatch(ctx context.Context, payloads []T) ([]R, error) {
	return f(ctx, payloads)
}
