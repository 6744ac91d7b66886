package commbus

import (
	"container/heap"
	"context"
	"math"
	"sync"
)

type timeHeapItem struct {
	ts    int64
	entry ExecEntry
}

type timeHeap []timeHeapItem

func (h timeHeap) Len() int            { return len(h) }
func (h timeHeap) Less(i, j int) bool  { return h[i].ts < h[j].ts }
func (h timeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timeHeap) Push(x any)         { *h = append(*h, x.(timeHeapItem)) }
func (h *timeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TimeOrderedExecutor releases stamped messages in non-decreasing
// timestamp order, holding each back until the running high-water mark
// minus timeOffset has reached it — absorbing up to timeOffset of
// jitter between producers. An offset of zero releases everything
// immediately in heap order with no jitter absorption.
type TimeOrderedExecutor struct {
	*ExecutorBase
	timeOffset int64

	mu               sync.Mutex
	heap             timeHeap
	maxTimestampSeen int64
}

// NewTimeOrderedExecutor constructs a time-ordered executor with the given
// bounded-lateness offset, in nanoseconds.
func NewTimeOrderedExecutor(logger Logger, timeOffsetNS int64) *TimeOrderedExecutor {
	return &TimeOrderedExecutor{ExecutorBase: newExecutorBase(logger), timeOffset: timeOffsetNS}
}

// Spin blocks, releasing stamped messages in timestamp order as their
// watermark clears, until Stop is called or ctx is done.
func (e *TimeOrderedExecutor) Spin(ctx context.Context) {
	e.ExecutorBase.Spin(ctx, e.handle)
}

// SpinSome runs one non-blocking turn, then releases whatever has cleared
// the cutoff.
func (e *TimeOrderedExecutor) SpinSome() {
	e.ExecutorBase.SpinSome(e.handle)
	e.processReadyEntries()
}

func (e *TimeOrderedExecutor) handle(s scheduledSubscriber) {
	entries, err := s.DrainAllStamped()
	if err != nil {
		e.logger.Warn("time-ordered drain failed", "error", err)
		return
	}
	e.mu.Lock()
	for _, en := range entries {
		heap.Push(&e.heap, timeHeapItem{ts: en.TSNano, entry: en})
		if en.TSNano > e.maxTimestampSeen {
			e.maxTimestampSeen = en.TSNano
		}
	}
	e.mu.Unlock()
	e.processReadyEntries()
}

func (e *TimeOrderedExecutor) processReadyEntries() {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := int64(math.MaxInt64)
	if e.timeOffset != 0 {
		cutoff = e.maxTimestampSeen - e.timeOffset
		if cutoff < 0 {
			cutoff = 0
		}
	}
	for len(e.heap) > 0 && e.heap[0].ts <= cutoff {
		item := heap.Pop(&e.heap).(timeHeapItem)
		item.entry.Invoke()
	}
}
