// Package async runs background tasks detached from the request that
// started them.
//
// Paste creation returns before AI metadata is generated; the generation
// runs on a Runner so it survives the request and is drained on shutdown:
//
//	runner := async.NewRunner(async.WithTaskTimeout(30*time.Second), async.WithLogger(log))
//	runner.Go("summarize", func(ctx context.Context) error {
//		return svc.generateMetadata(ctx, id)
//	})
//
//	// on shutdown
//	_ = runner.Shutdown(shutdownCtx)
//
// Go returns a Future for callers (mostly tests) that need to Await the
// outcome. Panics inside tasks are recovered and reported as errors.
package async
