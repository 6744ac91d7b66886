package commbus

import (
	"context"
	"time"
)

// seqWaitQuantum bounds how long the sequence-ordered executor blocks on
// the ready queue when it has a gap at next_seq and nothing to drain,
// giving Stop a bounded cooperative-shutdown latency.
const seqWaitQuantum = 50 * time.Millisecond

// SeqOrderedExecutor enforces strict global order by sequence_stamp
// across every subscriber bound to it, via a ReorderBuffer fed by bounded
// per-subscriber drains. Its core loop is "execute-first, drain-on-gap":
// run everything already contiguous, and only pull more off the ready
// queue when the stream is blocked on a gap at next_seq.
type SeqOrderedExecutor struct {
	*ExecutorBase
	buffer   *ReorderBuffer
	maxDrain int
}

// NewSeqOrderedExecutor constructs a sequence-ordered executor. A zero
// ringCapacity defaults to DefaultRingCapacity; a zero or negative maxDrain
// defaults to MaxDrainPerSubscriber.
func NewSeqOrderedExecutor(logger Logger, ringCapacity uint64, maxDrain int) *SeqOrderedExecutor {
	if ringCapacity == 0 {
		ringCapacity = DefaultRingCapacity
	}
	if maxDrain <= 0 {
		maxDrain = MaxDrainPerSubscriber
	}
	return &SeqOrderedExecutor{
		ExecutorBase: newExecutorBase(logger),
		buffer:       NewReorderBuffer(ringCapacity),
		maxDrain:     maxDrain,
	}
}

// Spin runs the execute-first, drain-on-gap loop until Stop is called or
// ctx is done.
func (e *SeqOrderedExecutor) Spin(ctx context.Context) {
	merged, cancel := e.mergedContext(ctx)
	defer cancel()
	e.spinning.start()
	defer e.spinning.stop()
	for e.spinning.isSet() {
		if e.executeConsecutive() > 0 {
			continue
		}
		if e.drainOneReady() {
			if e.executeConsecutive() > 0 {
				continue
			}
		}
		waitCtx, wcancel := context.WithTimeout(merged, seqWaitQuantum)
		s, err := e.waitOneReady(waitCtx)
		wcancel()
		if err != nil && merged.Err() != nil {
			return
		}
		if s != nil {
			e.drainInto(s)
		}
	}
}

// SpinSome runs one non-blocking turn: drain whatever is ready, then
// execute everything now contiguous.
func (e *SeqOrderedExecutor) SpinSome() {
	for {
		s, ok := e.tryDequeue()
		if !ok {
			break
		}
		e.drainInto(s)
	}
	e.executeConsecutive()
}

func (e *SeqOrderedExecutor) executeConsecutive() int {
	n := 0
	for {
		entry, ok := e.buffer.TryPopNext()
		if !ok {
			break
		}
		entry.Invoke()
		n++
	}
	return n
}

func (e *SeqOrderedExecutor) drainOneReady() bool {
	s, ok := e.tryDequeue()
	if !ok {
		return false
	}
	return e.drainInto(s)
}

func (e *SeqOrderedExecutor) drainInto(s scheduledSubscriber) bool {
	entries, err := s.DrainExecSome(e.maxDrain)
	if err != nil {
		e.logger.Warn("sequence-ordered drain failed", "error", err)
		return false
	}
	for _, en := range entries {
		e.buffer.Put(en)
	}
	return len(entries) > 0
}

// Stats returns the reorder buffer's diagnostics counters.
func (e *SeqOrderedExecutor) Stats() ReorderBufferStats { return e.buffer.Stats() }

// ResetStats zeroes the reorder buffer's diagnostics counters.
func (e *SeqOrderedExecutor) ResetStats() { e.buffer.ResetStats() }

// PendingSize reports the reorder buffer's ring occupancy.
func (e *SeqOrderedExecutor) PendingSize() int { return e.buffer.PendingSize() }

// FallbackSize reports the reorder buffer's fallback map occupancy.
func (e *SeqOrderedExecutor) FallbackSize() int { return e.buffer.FallbackSize() }
