package commbus

import "context"

// readyQueueCapacity bounds the executor's MPMC ready queue. It is sized
// generously since the channel only ever holds subscriber references, not
// messages — the bound exists to make a buggy producer surface as a log
// warning rather than unbounded memory growth.
const readyQueueCapacity = 1 << 16

// ExecutorBase is the shared machinery every executor policy embeds: a
// ready queue of subscribers with pending work. The buffered channel
// itself is both the queue and the blocking signal — a receive blocks
// until a subscriber is enqueued or the executor's context is done, so
// no separate counting primitive is needed to wake a waiter.
type ExecutorBase struct {
	logger Logger
	ready  chan scheduledSubscriber
	kick   chan struct{}

	spinning spinFlag

	ctx    context.Context
	cancel context.CancelFunc

	nodes nodeSet
}

func newExecutorBase(logger Logger) *ExecutorBase {
	if logger == nil {
		logger = NewNoopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExecutorBase{
		logger: logger,
		ready:  make(chan scheduledSubscriber, readyQueueCapacity),
		kick:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddNode registers n with this executor, binding its default callback
// group so the group's notifications reach this executor's ready queue.
func (e *ExecutorBase) AddNode(n *Node) {
	e.nodes.add(n)
	n.DefaultCallbackGroup().BindExecutor(e)
}

// RemoveNode unregisters n.
func (e *ExecutorBase) RemoveNode(n *Node) {
	e.nodes.remove(n)
}

func (e *ExecutorBase) enqueueReady(s scheduledSubscriber) {
	select {
	case e.ready <- s:
	default:
		e.logger.Warn("executor ready queue full, dropping wakeup")
	}
}

// mergedContext returns a context cancelled when either ctx or the
// executor's own Stop fires.
func (e *ExecutorBase) mergedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	merged, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-e.ctx.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged, cancel
}

// waitOneReady blocks until a subscriber is ready, ctx is done, or the
// executor is kicked. A nil, nil return means a kick with nothing to
// dequeue yet — the caller should loop.
func (e *ExecutorBase) waitOneReady(ctx context.Context) (scheduledSubscriber, error) {
	select {
	case s := <-e.ready:
		return s, nil
	case <-e.kick:
		return nil, nil
	case <-ctx.Done():
		return nil, ErrShutdown
	}
}

// tryDequeue makes one non-blocking attempt to pull a ready subscriber,
// for spin_some-style turns.
func (e *ExecutorBase) tryDequeue() (scheduledSubscriber, bool) {
	select {
	case s := <-e.ready:
		return s, true
	default:
		return nil, false
	}
}

// Spin runs handle for each ready subscriber until Stop is called or ctx
// is done.
func (e *ExecutorBase) Spin(ctx context.Context, handle func(scheduledSubscriber)) {
	merged, cancel := e.mergedContext(ctx)
	defer cancel()
	e.spinning.start()
	defer e.spinning.stop()
	for e.spinning.isSet() {
		s, err := e.waitOneReady(merged)
		if err != nil {
			return
		}
		if s == nil {
			continue
		}
		handle(s)
	}
}

// SpinSome runs one non-blocking turn over whatever is currently ready.
func (e *ExecutorBase) SpinSome(handle func(scheduledSubscriber)) {
	for {
		s, ok := e.tryDequeue()
		if !ok {
			return
		}
		handle(s)
	}
}

// Stop signals spinning to end; cancelling the executor's context wakes
// any blocked waiter in waitOneReady. Idempotent; in-flight callbacks run
// to completion.
func (e *ExecutorBase) Stop() {
	if e.spinning.markStopped() {
		e.cancel()
	}
}

// Wakeup nudges a blocked waiter to re-check its own condition without
// enqueuing any subscriber.
func (e *ExecutorBase) Wakeup() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}
