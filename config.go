package microbatch

import (
	"fmt"
	"time"

	"github.com/inferlab/microbatch/internal/domain"
)

// Default configuration values.
const (
	DefaultMaxBatchSize = 32
	DefaultMaxWait      = 100 * time.Millisecond
	DefaultPollInterval = 10 * time.Millisecond
)

// Config holds the tuning parameters of a MicroBatcher.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// MaxBatchSize is the maximum number of requests per batch.
	MaxBatchSize int

	// MaxWait bounds how long a request waits in the pending queue before
	// its batch is dispatched. Idle periods do not count: the window opens
	// when the first request of a batch arrives.
	MaxWait time.Duration

	// PollInterval is the fallback wake-up period of the collection loop.
	// The loop is normally woken by enqueue signaling; the poll only guards
	// against missed wakeups and idle spins.
	PollInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize: DefaultMaxBatchSize,
		MaxWait:      DefaultMaxWait,
		PollInterval: DefaultPollInterval,
	}
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: max batch size must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("%w: max wait must be positive", domain.ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
