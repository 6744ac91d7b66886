package commbus

import (
	"context"
	"runtime"
	"sync"
)

// MultiThreadedExecutor dispatches to a fixed worker pool. A subscriber in
// a MutuallyExclusive callback group runs inline on the dispatcher
// goroutine under that group's exclMu — cheaper than scheduling, and it
// is what actually makes "one at a time per group" true, since only the
// dispatcher ever processes subscribers from a mutually-exclusive group.
// A subscriber in a Reentrant group is submitted to the pool and may run
// concurrently with other reentrant work.
type MultiThreadedExecutor struct {
	*ExecutorBase
	pool    chan func()
	workers int
	wg      sync.WaitGroup
}

// NewMultiThreadedExecutor constructs a pool of workers workers (or
// GOMAXPROCS if workers <= 0).
func NewMultiThreadedExecutor(logger Logger, workers int) *MultiThreadedExecutor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	e := &MultiThreadedExecutor{
		ExecutorBase: newExecutorBase(logger),
		pool:         make(chan func(), workers*4),
		workers:      workers,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// worker dispatches submitted callbacks until the executor's context is
// cancelled, then drains whatever is already queued before exiting. The
// pool channel is never closed, so a submit racing shutdown can never
// panic on a send to a closed channel.
func (e *MultiThreadedExecutor) worker() {
	defer e.wg.Done()
	for {
		select {
		case fn := <-e.pool:
			fn()
		case <-e.ctx.Done():
			for {
				select {
				case fn := <-e.pool:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Spin blocks, dispatching ready subscribers according to their callback
// group's type, until Stop is called or ctx is done.
func (e *MultiThreadedExecutor) Spin(ctx context.Context) {
	e.ExecutorBase.Spin(ctx, e.handle)
}

// SpinSome runs one non-blocking turn over whatever is currently ready.
func (e *MultiThreadedExecutor) SpinSome() {
	e.ExecutorBase.SpinSome(e.handle)
}

func (e *MultiThreadedExecutor) handle(s scheduledSubscriber) {
	group := s.CallbackGroup()
	if group.Type() == MutuallyExclusive {
		group.exclMu.Lock()
		s.TakeAll()
		group.exclMu.Unlock()
		return
	}
	// A submit that would block past shutdown falls back to running
	// inline rather than blocking forever with no worker left to receive.
	select {
	case e.pool <- func() { s.TakeAll() }:
	case <-e.ctx.Done():
		s.TakeAll()
	}
}

// Stop signals the spin loop to end and waits for workers to drain
// whatever was already submitted before returning.
func (e *MultiThreadedExecutor) Stop() {
	e.ExecutorBase.Stop()
	e.wg.Wait()
}
