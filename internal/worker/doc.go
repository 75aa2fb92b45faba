// Package worker provides a goroutine pool for concurrent job execution.
//
// The Pool manages a fixed number of worker goroutines that process jobs
// from a shared bounded queue. It supports graceful shutdown and context
// cancellation.
//
// # Basic Usage
//
//	pool := worker.NewPool(20) // 20 workers
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	// Submit jobs; Submit blocks while the queue is full
//	for i := 0; i < 10000; i++ {
//	    pool.Submit(func() {
//	        // issue one request
//	    })
//	}
//
// # Queue Sizing
//
// Use NewPoolWithQueue for an explicit queue size:
//
//	pool := worker.NewPoolWithQueue(20, 500)
//
// # Graceful Shutdown
//
// Stop() waits for in-flight jobs to complete before returning.
// The context passed to Start() can be used to cancel waiting jobs.
package worker
