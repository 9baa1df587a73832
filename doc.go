// Package microbatch collects individually submitted work items into
// bounded-size, bounded-latency batches and dispatches each batch to a
// user-supplied processor, returning each item's result to its original
// caller.
//
// The trade is a small, bounded latency for the throughput gains of
// batch-amortized work, such as shared model-inference overhead. A batch is
// dispatched as soon as it reaches MaxBatchSize, or once MaxWait has elapsed
// since the first request of the window arrived, whichever comes first. A
// single queued request still goes out when the window closes: the latency
// bound takes priority over batch-size optimization.
//
// Example usage:
//
//	cfg := microbatch.DefaultConfig()
//	cfg.MaxBatchSize = 16
//	cfg.MaxWait = 50 * time.Millisecond
//
//	mb, err := microbatch.New(cfg, func(ctx context.Context, inputs []string) ([]string, error) {
//	    return model.Predict(ctx, inputs)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := mb.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer mb.Stop()
//
//	out, err := mb.Submit(ctx, "the input")
//
// Submit may be called from any number of goroutines; each caller is
// suspended on a channel until its own result is ready. Batches are strictly
// sequential: the loop never collects a new batch while one is processing,
// bounding resource usage to one in-flight processor call.
//
// Stop drains: requests already submitted are processed through final
// batches before the batcher reports Stopped. New submissions after Stop
// fail with ErrNotAccepting.
package microbatch
