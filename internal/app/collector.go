package app

import (
	"context"
	"fmt"
	"time"

	"github.com/inferlab/microbatch/internal/domain"
	"github.com/inferlab/microbatch/internal/ports"
)

// CollectorConfig contains configuration for the collection loop.
type CollectorConfig struct {
	MaxBatchSize int
	MaxWait      time.Duration
	PollInterval time.Duration
}

// BatchEventEmitter is called after each batch resolves.
type BatchEventEmitter interface {
	OnBatchDone(size int, queueWait, processTime time.Duration)
	OnBatchError(err error, size int)
}

// Collector runs the collection/dispatch loop: it moves requests from the
// pending queue into bounded batches and hands each batch to the processor.
// Batches are strictly sequential; a new batch is never collected while one
// is being processed.
type Collector[T, R any] struct {
	config    CollectorConfig
	queue     *Queue[T, R]
	processor ports.BatchProcessor[T, R]
	logger    ports.Logger
	emitter   BatchEventEmitter
}

// NewCollector creates a collector with the given dependencies.
func NewCollector[T, R any](
	config CollectorConfig,
	queue *Queue[T, R],
	processor ports.BatchProcessor[T, R],
	logger ports.Logger,
	emitter BatchEventEmitter,
) *Collector[T, R] {
	return &Collector[T, R]{
		config:    config,
		queue:     queue,
		processor: processor,
		logger:    logger,
		emitter:   emitter,
	}
}

// Run executes the main collection loop until stop is signaled or the
// context is canceled.
//
// On stop, the queue is drained: everything already submitted is processed
// through final batches before Run returns. On context cancellation, queued
// requests are resolved with ErrShuttingDown instead, since the processor
// can no longer be invoked meaningfully.
func (c *Collector[T, R]) Run(ctx context.Context, stop <-chan struct{}) error {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	batch := domain.NewBatch[T, R](c.config.MaxBatchSize)

	for {
		c.queue.MoveInto(batch)

		if batch.Empty() {
			// Idle: wait for the first request. Idle time does not count
			// toward the latency bound; the window opens on first arrival.
			select {
			case <-ctx.Done():
				return c.abort(ctx)
			case <-stop:
				return c.drain(ctx)
			case <-c.queue.Notify():
			case <-ticker.C:
			}
			continue
		}

		// The window start is fixed at the first request's arrival.
		deadline := batch.WindowStart.Add(c.config.MaxWait)
		c.fill(ctx, stop, batch, deadline, ticker)

		c.dispatch(ctx, batch)
		batch.Reset()
	}
}

// fill tops up the batch until it is full, the window deadline passes, or
// shutdown begins.
func (c *Collector[T, R]) fill(
	ctx context.Context,
	stop <-chan struct{},
	batch *domain.Batch[T, R],
	deadline time.Time,
	ticker *time.Ticker,
) {
	for !batch.Full() {
		wait := time.Until(deadline)
		if wait <= 0 {
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			return
		case <-c.queue.Notify():
		case <-ticker.C:
		}
		timer.Stop()

		c.queue.MoveInto(batch)
	}
}

// dispatch invokes the processor and resolves every request in the batch.
func (c *Collector[T, R]) dispatch(ctx context.Context, batch *domain.Batch[T, R]) {
	if batch.Empty() {
		return
	}

	size := batch.Size()
	queueWait := time.Since(batch.WindowStart)

	start := time.Now()
	results, err := c.process(ctx, batch.Payloads())
	processTime := time.Since(start)

	if err != nil {
		berr := &domain.BatchError{Size: size, Err: err}
		batch.Fail(berr)

		c.logger.Error("batch failed",
			ports.Err(err),
			ports.Int("size", size),
			ports.Duration("process_time", processTime),
		)
		if c.emitter != nil {
			c.emitter.OnBatchError(berr, size)
		}
		return
	}

	if len(results) != size {
		batch.Fail(domain.ErrBatchContract)

		c.logger.Error("batch result count mismatch",
			ports.Int("size", size),
			ports.Int("results", len(results)),
		)
		if c.emitter != nil {
			c.emitter.OnBatchError(domain.ErrBatchContract, size)
		}
		return
	}

	batch.Resolve(results)

	c.logger.Debug("batch dispatched",
		ports.Int("size", size),
		ports.Duration("queue_wait", queueWait),
		ports.Duration("process_time", processTime),
	)
	if c.emitter != nil {
		c.emitter.OnBatchDone(size, queueWait, processTime)
	}
}

// process calls the processor, converting a panic into an error so a
// misbehaving callback cannot leave submitters waiting forever.
func (c *Collector[T, R]) process(ctx context.Context, payloads []T) (results []R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return c.processor.ProcessBatch(ctx, payloads)
}

// drain processes everything already queued through final, size-capped
// batches. The latency bound is irrelevant here; batches go out immediately.
func (c *Collector[T, R]) drain(ctx context.Context) error {
	batch := domain.NewBatch[T, R](c.config.MaxBatchSize)
	drained := 0

	for {
		if c.queue.MoveInto(batch); batch.Empty() {
			if drained > 0 {
				c.logger.Info("drained pending requests", ports.Int("count", drained))
			}
			return nil
		}
		drained += batch.Size()
		c.dispatch(ctx, batch)
		batch.Reset()
	}
}

// abort resolves all queued requests with ErrShuttingDown and returns the
// context error.
func (c *Collector[T, R]) abort(ctx context.Context) error {
	// Close first so a racing Submit gets ErrNotAccepting instead of
	// enqueueing behind the sweep and waiting forever.
	c.queue.Close()
	if n := c.queue.FailAll(domain.ErrShuttingDown); n > 0 {
		c.logger.Warn("discarded pending requests on cancellation",
			ports.Int("count", n),
		)
	}
	return ctx.Err()
}
