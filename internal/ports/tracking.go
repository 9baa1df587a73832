package ports

import (
	"context"
	"time"
)

// BatchMetrics describes one dispatched batch for experiment tracking.
type BatchMetrics struct {
	// Model is the served model name.
	Model string

	// Size is the number of requests in the batch.
	Size int

	// QueueWait is how long the oldest request waited before dispatch.
	QueueWait time.Duration

	// ProcessTime is how long the processor took for the batch.
	ProcessTime time.Duration

	// Failed reports whether the batch resolved with an error.
	Failed bool
}

// ExperimentTracker records serving metrics with an external tracking server.
// One method per external call; implementations must be safe for use from
// the dispatch goroutine and should never block it for long.
type ExperimentTracker interface {
	// LogBatch records the metrics for one dispatched batch.
	LogBatch(ctx context.Context, m BatchMetrics) error
}
