package microbatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inferlab/microbatch/internal/app"
	"github.com/inferlab/microbatch/internal/domain"
	"github.com/inferlab/microbatch/internal/ports"
)

// Processor is the user-supplied batch-processing function. It receives the
// ordered payloads of one batch and must return one result per payload,
// position-aligned to the input order. Returning a different count fails the
// whole batch with ErrBatchContract; returning an error fails it with a
// *BatchError wrapping that error. The batcher imposes no timeout on the
// processor and never retries it.
type Processor[T, R any] func(ctx context.Context, payloads []T) ([]R, error)

// MicroBatcher decouples per-item submission from batched processing.
// Use New() to create an instance, then Start() before submitting.
type MicroBatcher[T, R any] struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	queue     *app.Queue[T, R]
	collector *app.Collector[T, R]
	logger    ports.Logger

	seq atomic.Uint64

	mu     sync.Mutex
	stopCh chan struct{}
	cancel context.CancelFunc
}

// New creates a MicroBatcher with the given configuration and processor.
// The instance is created in StateStopped; call Start() to begin collecting.
// Returns an error if the configuration is invalid.
func New[T, R any](cfg Config, process Processor[T, R], opts ...Option) (*MicroBatcher[T, R], error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if process == nil {
		return nil, domain.ErrInvalidConfig
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	lifecycle := app.NewLifecycle(o.logger, emitter)
	queue := app.NewQueue[T, R]()
	collector := app.NewCollector(
		app.CollectorConfig{
			MaxBatchSize: cfg.MaxBatchSize,
			MaxWait:      cfg.MaxWait,
			PollInterval: cfg.PollInterval,
		},
		queue,
		ports.ProcessorFunc[T, R](process),
		o.logger,
		emitter,
	)

	return &MicroBatcher[T, R]{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		queue:     queue,
		collector: collector,
		logger:    o.logger,
	}, nil
}

// Start launches the background collection/dispatch loop. When Start
// returns nil the batcher is Running and accepting submissions.
// Returns ErrAlreadyRunning if the batcher is already started; starting
// twice is a configuration error. The provided context bounds the lifetime
// of the loop: canceling it is a hard stop that discards queued requests
// with ErrShuttingDown. Use Stop() for a draining shutdown.
func (b *MicroBatcher[T, R]) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.stopCh = make(chan struct{})
	b.lifecycle.SetCancel(cancel)

	if err := b.lifecycle.TransitionTo(app.StateRunning, "collector starting"); err != nil {
		cancel()
		return err
	}

	// Open the intake only once the state is Running, so a successful
	// Submit is always paired with a collector that will see the request.
	b.queue.Open()

	stopCh := b.stopCh
	b.lifecycle.AddWorker()
	go func() {
		defer b.lifecycle.WorkerDone()

		err := b.collector.Run(runCtx, stopCh)
		switch {
		case err == nil:
			// Drained; Stop() completes the transition to Stopped.
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Hard cancellation: the collector already closed the intake
			// and failed everything queued. Settle the state machine here,
			// since no Stop() call may ever come.
			if b.lifecycle.TransitionTo(app.StateStopping, "context canceled") == nil {
				_ = b.lifecycle.TransitionTo(app.StateStopped, "context canceled")
			}
		default:
			b.logger.Error("collector error", ports.Err(err))
			_ = b.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Submit enqueues the payload and suspends the caller until its result is
// available. Safe for any number of concurrent callers; a submitter never
// blocks other submitters or the collection loop.
//
// Fails with ErrNotAccepting when the batcher is not running. If ctx is
// canceled while waiting, Submit returns ctx.Err(); the request itself is
// still processed with its batch and its result discarded.
func (b *MicroBatcher[T, R]) Submit(ctx context.Context, payload T) (R, error) {
	var zero R
	if any(payload) == nil {
		return zero, domain.ErrNilPayload
	}

	req := domain.NewRequest[T, R](b.seq.Add(1), payload, time.Now())
	if err := b.queue.Enqueue(req); err != nil {
		return zero, err
	}

	select {
	case out := <-req.Done():
		return out.Result, out.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Stop gracefully shuts down the batcher. New submissions are rejected
// immediately; requests already queued are drained through final batches
// before the state machine reaches Stopped. Waits up to 30 seconds before
// forcing shutdown. Returns nil on graceful shutdown, ErrShutdownTimeout if
// forced, ErrNotRunning if the batcher was not started.
func (b *MicroBatcher[T, R]) Stop() error {
	b.mu.Lock()

	if !b.lifecycle.CanStop() {
		b.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		b.mu.Unlock()
		return err
	}

	// Reject new submissions, then signal the collector to drain.
	b.queue.Close()
	close(b.stopCh)
	cancel := b.cancel
	b.mu.Unlock()

	err := b.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	if cancel != nil {
		cancel()
	}

	if err != nil {
		_ = b.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = b.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (b *MicroBatcher[T, R]) Status() State {
	return convertState(b.lifecycle.State())
}

// Pending returns the number of requests waiting in the pending queue.
func (b *MicroBatcher[T, R]) Pending() int {
	return b.queue.Len()
}
