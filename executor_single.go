package commbus

import "context"

// SingleThreadedExecutor runs every ready subscriber's callback on the
// caller's own goroutine via TakeAll. A slow callback naturally
// back-pressures: new messages accumulate in the subscriber's queue and
// its re-notify keeps it in the ready queue until drained.
type SingleThreadedExecutor struct {
	*ExecutorBase
}

// NewSingleThreadedExecutor constructs a SingleThreadedExecutor.
func NewSingleThreadedExecutor(logger Logger) *SingleThreadedExecutor {
	return &SingleThreadedExecutor{ExecutorBase: newExecutorBase(logger)}
}

// Spin blocks, running ready subscribers' callbacks until Stop is called
// or ctx is done.
func (e *SingleThreadedExecutor) Spin(ctx context.Context) {
	e.ExecutorBase.Spin(ctx, func(s scheduledSubscriber) { s.TakeAll() })
}

// SpinSome runs one non-blocking turn over whatever is currently ready.
func (e *SingleThreadedExecutor) SpinSome() {
	e.ExecutorBase.SpinSome(func(s scheduledSubscriber) { s.TakeAll() })
}
