package microbatch

import "github.com/inferlab/microbatch/internal/domain"

// Errors returned by the public API. All are comparable with errors.Is.
var (
	// ErrNotAccepting is returned by Submit before Start or after Stop.
	ErrNotAccepting = domain.ErrNotAccepting

	// ErrShuttingDown resolves requests discarded on hard cancellation.
	ErrShuttingDown = domain.ErrShuttingDown

	// ErrBatchContract is delivered to every request of a batch whose
	// processor returned the wrong number of results.
	ErrBatchContract = domain.ErrBatchContract

	// ErrAlreadyRunning is returned by Start on a running batcher.
	ErrAlreadyRunning = domain.ErrAlreadyRunning

	// ErrNotRunning is returned by Stop on a stopped batcher.
	ErrNotRunning = domain.ErrNotRunning

	// ErrShutdownTimeout is returned by Stop when draining takes too long.
	ErrShutdownTimeout = domain.ErrShutdownTimeout

	// ErrInvalidConfig is returned by New for invalid configuration.
	ErrInvalidConfig = domain.ErrInvalidConfig

	// ErrNilPayload is returned by Submit for a nil payload.
	ErrNilPayload = domain.ErrNilPayload
)

// BatchError wraps the processor failure delivered to every request in the
// affected batch.
type BatchError = domain.BatchError
