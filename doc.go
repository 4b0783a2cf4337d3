// Package blockpool provides a bounded, blocking-aware worker pool for Go.
//
// A pool runs submitted tasks on at most capacity concurrently working
// goroutines. A task that is about to wait on something slow can hand its
// slot to queued work with Block; when the wait is over it gets a slot back
// ahead of every task that was merely queued.
//
// # Quick Start
//
// Run a pool until all work is done:
//
//	err := blockpool.Run(ctx, 4, func(ctx context.Context, p *blockpool.Pool) error {
//		for _, url := range urls {
//			p.Submit(func(ctx context.Context) error {
//				body, err := blockpool.Block(ctx, func(ctx context.Context) ([]byte, error) {
//					return fetch(ctx, url)
//				})
//				if err != nil {
//					return err
//				}
//				return parse(body)
//			})
//		}
//		return nil
//	})
//
// # Key Concepts
//
// Run: Starts a pool, runs the init function as its first task and returns
// once no task is working, blocked or queued. The first failing task ends the
// run; its error is returned and every other worker's context is cancelled.
//
// Submit: Queues a task in FIFO order. It never blocks and never returns the
// task's result. Tasks usually submit further tasks through the Pool they
// were given or through Submit on their context.
//
// Block: Runs a blocking action off the pool's capacity. While a worker is
// blocked it is not counted against the capacity, so the pool can start
// other work.
//
// # Failure Semantics
//
// A task fails by returning an error or by panicking. Panics are reported as
// *PanicError and carry the recovered value and stack. Later failures are
// discarded. Cancelling the context passed to Run interrupts the run and Run
// returns ctx.Err().
//
// For more details, see https://github.com/Swind/go-block-pool
package blockpool
