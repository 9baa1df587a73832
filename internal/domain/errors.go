package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the microbatch domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrNotAccepting is returned by Submit when the batcher is not running.
	ErrNotAccepting = errors.New("microbatch: not accepting requests")

	// ErrShuttingDown resolves requests that cannot be drained during shutdown.
	ErrShuttingDown = errors.New("microbatch: shutting down")

	// ErrBatchContract is returned to every request in a batch whose processor
	// produced a result count different from the batch size.
	ErrBatchContract = errors.New("microbatch: processor result count mismatch")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("microbatch: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("microbatch: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("microbatch: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("microbatch: invalid configuration")

	// ErrNilPayload is returned by Submit for a nil payload.
	ErrNilPayload = errors.New("microbatch: nil payload")
)

// BatchError wraps a processor failure. Every request in the affected batch
// receives the same BatchError; no request is retried.
type BatchError struct {
	// Size is the number of requests in the failed batch.
	Size int

	// Err is the error returned by the batch processor.
	Err error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("microbatch: batch of %d failed: %v", e.Size, e.Err)
}

// Unwrap exposes the processor error for errors.Is / errors.As.
func (e *BatchError) Unwrap() error {
	return e.Err
}
