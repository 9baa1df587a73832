package microbatch

import (
	"github.com/inferlab/microbatch/internal/ports"
	"github.com/inferlab/microbatch/pkg/log"
)

// Logger is the structured logging interface used by the batcher.
type Logger = log.Logger

// Option configures optional behavior of a MicroBatcher.
type Option func(*options)

// options holds the optional configuration for a MicroBatcher instance.
type options struct {
	logger       ports.Logger
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:       log.NewNoopLogger(),
		eventHandler: nil,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for batcher events.
// Events are called synchronously from the dispatch goroutine.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
