package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inferlab/microbatch/internal/domain"
	"github.com/inferlab/microbatch/internal/ports"
)

type recordingEmitter struct {
	mu     sync.Mutex
	done   []int
	errors []error
}

func (e *recordingEmitter) OnBatchDone(size int, queueWait, processTime time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = append(e.done, size)
}

func (e *recordingEmitter) OnBatchError(err error, size int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors = append(e.errors, err)
}

func (e *recordingEmitter) DoneSizes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int{}, e.done...)
}

func (e *recordingEmitter) Errors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error{}, e.errors...)
}

func collectorUnderTest(
	t *testing.T,
	cfg CollectorConfig,
	process func(ctx context.Context, payloads []string) ([]string, error),
) (*Collector[string, string], *Queue[string, string], *recordingEmitter) {
	t.Helper()
	q := NewQueue[string, string]()
	q.Open()
	emitter := &recordingEmitter{}
	c := NewCollector[string, string](
		cfg,
		q,
		ports.ProcessorFunc[string, string](process),
		&mockLogger{},
		emitter,
	)
	return c, q, emitter
}

func runCollector(c *Collector[string, string], ctx context.Context, stop <-chan struct{}) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, stop) }()
	return errCh
}

func TestCollector_SizeTrigger(t *testing.T) {
	echo := func(ctx context.Context, payloads []string) ([]string, error) {
		return append([]string{}, payloads...), nil
	}
	cfg := CollectorConfig{MaxBatchSize: 3, MaxWait: 5 * time.Second, PollInterval: 10 * time.Millisecond}
	c, q, emitter := collectorUnderTest(t, cfg, echo)

	stop := make(chan struct{})
	errCh := runCollector(c, context.Background(), stop)

	reqs := make([]*domain.Request[string, string], 3)
	for i := range reqs {
		reqs[i] = newQueueRequest(uint64(i + 1))
		if err := q.Enqueue(reqs[i]); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	// The full batch must go out long before the 5s window would expire.
	for i, r := range reqs {
		select {
		case out := <-r.Done():
			if out.Err != nil {
				t.Errorf("request %d: err = %v", i, out.Err)
			}
		case <-time.After(time.Second):
			t.Fatalf("request %d not resolved before deadline", i)
		}
	}

	if sizes := emitter.DoneSizes(); len(sizes) != 1 || sizes[0] != 3 {
		t.Errorf("done sizes = %v, want [3]", sizes)
	}

	close(stop)
	if err := <-errCh; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestCollector_DeadlineTrigger(t *testing.T) {
	echo := func(ctx context.Context, payloads []string) ([]string, error) {
		return append([]string{}, payloads...), nil
	}
	cfg := CollectorConfig{MaxBatchSize: 100, MaxWait: 50 * time.Millisecond, PollInterval: 10 * time.Millisecond}
	c, q, emitter := collectorUnderTest(t, cfg, echo)

	stop := make(chan struct{})
	errCh := runCollector(c, context.Background(), stop)

	req := newQueueRequest(1)
	enqueued := time.Now()
	if err := q.Enqueue(req); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case out := <-req.Done():
		if out.Err != nil {
			t.Errorf("err = %v", out.Err)
		}
		if elapsed := time.Since(enqueued); elapsed > time.Second {
			t.Errorf("partial batch took %v, want roughly the 50ms window", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("partial batch never dispatched")
	}

	if sizes := emitter.DoneSizes(); len(sizes) != 1 || sizes[0] != 1 {
		t.Errorf("done sizes = %v, want [1]", sizes)
	}

	close(stop)
	<-errCh
}

func TestCollector_ProcessorError(t *testing.T) {
	boom := errors.New("runtime down")
	fail := func(ctx context.Context, payloads []string) ([]string, error) {
		return nil, boom
	}
	cfg := CollectorConfig{MaxBatchSize: 2, MaxWait: 20 * time.Millisecond, PollInterval: 5 * time.Millisecond}
	c, q, emitter := collectorUnderTest(t, cfg, fail)

	stop := make(chan struct{})
	errCh := runCollector(c, context.Background(), stop)

	req := newQueueRequest(1)
	if err := q.Enqueue(req); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case out := <-req.Done():
		if !errors.Is(out.Err, boom) {
			t.Errorf("err = %v, want wrapped boom", out.Err)
		}
		var berr *domain.BatchError
		if !errors.As(out.Err, &berr) {
			t.Errorf("err = %v, want *BatchError", out.Err)
		} else if berr.Size != 1 {
			t.Errorf("BatchError.Size = %d, want 1", berr.Size)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failed batch never resolved")
	}

	if errs := emitter.Errors(); len(errs) != 1 {
		t.Errorf("got %d error events, want 1", len(errs))
	}

	close(stop)
	<-errCh
}

func TestCollector_StrictlySequential(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	slow := func(ctx context.Context, payloads []string) ([]string, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return append([]string{}, payloads...), nil
	}
	cfg := CollectorConfig{MaxBatchSize: 2, MaxWait: 5 * time.Millisecond, PollInterval: 2 * time.Millisecond}
	c, q, _ := collectorUnderTest(t, cfg, slow)

	stop := make(chan struct{})
	errCh := runCollector(c, context.Background(), stop)

	const n = 8
	reqs := make([]*domain.Request[string, string], n)
	for i := range reqs {
		reqs[i] = newQueueRequest(uint64(i + 1))
		if err := q.Enqueue(reqs[i]); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	for i, r := range reqs {
		select {
		case <-r.Done():
		case <-time.After(5 * time.Second):
			t.Fatalf("request %d not resolved", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if peak != 1 {
		t.Errorf("peak concurrent batches = %d, want 1", peak)
	}

	close(stop)
	<-errCh
}

func TestCollector_StopDrainsQueue(t *testing.T) {
	echo := func(ctx context.Context, payloads []string) ([]string, error) {
		return append([]string{}, payloads...), nil
	}
	// Long window so nothing dispatches on its own.
	cfg := CollectorConfig{MaxBatchSize: 2, MaxWait: time.Minute, PollInterval: 5 * time.Millisecond}
	c, q, emitter := collectorUnderTest(t, cfg, echo)

	stop := make(chan struct{})
	errCh := runCollector(c, context.Background(), stop)

	const n = 5
	reqs := make([]*domain.Request[string, string], n)
	for i := range reqs {
		reqs[i] = newQueueRequest(uint64(i + 1))
		if err := q.Enqueue(reqs[i]); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	close(stop)

	if err := <-errCh; err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	for i, r := range reqs {
		select {
		case out := <-r.Done():
			if out.Err != nil {
				t.Errorf("request %d: err = %v, want drained result", i, out.Err)
			}
		default:
			t.Fatalf("request %d not resolved after drain", i)
		}
	}

	// Five requests with a cap of two means at least three final batches.
	if sizes := emitter.DoneSizes(); len(sizes) < 3 {
		t.Errorf("done sizes = %v, want >= 3 batches", sizes)
	}
}

func TestCollector_ContextCancelAborts(t *testing.T) {
	echo := func(ctx context.Context, payloads []string) ([]string, error) {
		return append([]string{}, payloads...), nil
	}
	cfg := CollectorConfig{MaxBatchSize: 10, MaxWait: time.Minute, PollInterval: 5 * time.Millisecond}
	c, q, _ := collectorUnderTest(t, cfg, echo)

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})

	// Cancel while idle, before anything is queued, then check that a
	// late request queued just before the abort sweep still resolves.
	req := newQueueRequest(1)
	if err := q.Enqueue(req); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	// Drain the wakeup so Run starts from the idle select.
	errCh := runCollector(c, ctx, stop)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}

	// Whatever was still queued at cancellation must be resolved, and the
	// queue must no longer accept work.
	select {
	case out := <-req.Done():
		if out.Err != nil && !errors.Is(out.Err, domain.ErrShuttingDown) {
			t.Errorf("err = %v, want nil or ErrShuttingDown", out.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("request left unresolved after cancellation")
	}
	if err := q.Enqueue(newQueueRequest(2)); !errors.Is(err, domain.ErrNotAccepting) {
		t.Errorf("Enqueue() after abort = %v, want ErrNotAccepting", err)
	}
}
