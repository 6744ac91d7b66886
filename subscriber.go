package commbus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// boundedQueue is a mutex-protected bounded deque of OrderedItem[T] with a
// drop-oldest overflow policy. Plain Go channels cannot implement
// drop-oldest atomically (there is no peek-and-replace), so this uses a
// slice under a mutex instead — push and drainAll are O(1) amortised,
// drainSome copies the items it leaves behind, and the critical section is
// short enough that this is not a meaningful bottleneck relative to
// running the user callback.
type boundedQueue[T any] struct {
	mu       sync.Mutex
	items    []OrderedItem[T]
	capacity int
	overflow atomic.Uint64
}

func newBoundedQueue[T any](capacity int) *boundedQueue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &boundedQueue[T]{items: make([]OrderedItem[T], 0, capacity), capacity: capacity}
}

func (q *boundedQueue[T]) push(item OrderedItem[T]) (overflowed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.overflow.Add(1)
		overflowed = true
	}
	q.items = append(q.items, item)
	return overflowed
}

func (q *boundedQueue[T]) drainAll() []OrderedItem[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]OrderedItem[T], 0, q.capacity)
	return out
}

func (q *boundedQueue[T]) drainSome(max int) []OrderedItem[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := append([]OrderedItem[T](nil), q.items[:n]...)
	remaining := copy(q.items, q.items[n:])
	q.items = q.items[:remaining]
	return out
}

func (q *boundedQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Subscriber is the typed receive end of a topic. Each arrival is stamped
// with a sequence number (its own monotonic counter, or the message's
// embedded timestamp for Stamped types), pushed into a bounded queue, and
// the subscriber is marked ready at most once per drain.
type Subscriber[T any] struct {
	id    uint64
	uuid  string
	node  *Node
	topic *TopicHandle[T]
	group *CallbackGroup

	callback func(*T)
	queue    *boundedQueue[T]
	seq      atomic.Uint64

	ready  atomic.Bool
	closed atomic.Bool
	logger Logger
}

// NewSubscriber resolves (or creates) the named topic in node's domain and
// binds a callback to it, scheduled under group (the node's default group
// if group is nil). queueCapacity bounds the subscriber's own queue;
// overflow drops the oldest entry.
func NewSubscriber[T any](node *Node, topicName string, queueCapacity int, group *CallbackGroup, callback func(*T)) (*Subscriber[T], error) {
	th, err := CreateOrGetTopic[T](node.domain, topicName)
	if err != nil {
		return nil, err
	}
	if group == nil {
		group = node.DefaultCallbackGroup()
	}
	s := &Subscriber[T]{
		uuid:     uuid.New().String(),
		node:     node,
		topic:    th,
		group:    group,
		callback: callback,
		queue:    newBoundedQueue[T](queueCapacity),
		logger:   node.logger,
	}
	s.id = node.registerSubscriber(s)
	group.addSubscriber(s)
	th.Topic().AddSubscriber(s)
	emitEvent(context.Background(), node.domain.observer, EventTypeSubscriptionCreated, "subscriber", topicName)
	return s, nil
}

// ID returns the subscriber's id within its owning node.
func (s *Subscriber[T]) ID() uint64 { return s.id }

// TopicName returns the name of the bound topic.
func (s *Subscriber[T]) TopicName() string { return s.topic.Topic().Name() }

// CallbackGroup returns the group this subscriber is scheduled under.
func (s *Subscriber[T]) CallbackGroup() *CallbackGroup { return s.group }

// MarkReady attempts the false->true ready transition, returning true iff
// this call performed it (at-most-one notification in flight).
func (s *Subscriber[T]) MarkReady() bool { return s.ready.CompareAndSwap(false, true) }

// ClearReady resets the ready flag.
func (s *Subscriber[T]) ClearReady() { s.ready.Store(false) }

// HasPending reports whether any items remain queued.
func (s *Subscriber[T]) HasPending() bool { return s.queue.len() > 0 }

func (s *Subscriber[T]) enqueue(msg *T) {
	var stamp uint64
	if st, ok := any(msg).(Stamped); ok {
		stamp = uint64(st.TimestampNS())
	} else {
		stamp = s.seq.Add(1) - 1
	}
	if s.queue.push(OrderedItem[T]{Seq: stamp, Msg: msg}) {
		s.logger.Warn("subscriber queue overflow", "subscriber", s.uuid, "topic", s.TopicName())
	}
	if s.MarkReady() {
		s.group.notify(s)
	}
}

// TakeAll pops every currently queued item, clears ready, then
// synchronously invokes the callback for each popped item. If items
// arrived meanwhile, it re-notifies so the executor sees this subscriber
// again.
func (s *Subscriber[T]) TakeAll() {
	items := s.queue.drainAll()
	s.ClearReady()
	for _, it := range items {
		s.callback(it.Msg)
	}
	if s.HasPending() && s.MarkReady() {
		s.group.notify(s)
	}
}

// DrainExecSome moves up to max items into type-erased ExecEntry values
// for an ordered executor to buffer and invoke later, clears ready, and
// re-notifies if items remain.
func (s *Subscriber[T]) DrainExecSome(max int) ([]ExecEntry, error) {
	items := s.queue.drainSome(max)
	s.ClearReady()
	if s.HasPending() && s.MarkReady() {
		s.group.notify(s)
	}
	out := make([]ExecEntry, len(items))
	for i, it := range items {
		it := it
		out[i] = ExecEntry{Seq: it.Seq, Invoke: func() { s.callback(it.Msg) }}
	}
	return out, nil
}

// DrainAllStamped is like TakeAll's drain but produces ExecEntry values
// carrying the embedded timestamp, for the time-ordered executor. Fails
// with ErrNotStamped if T does not implement Stamped.
func (s *Subscriber[T]) DrainAllStamped() ([]ExecEntry, error) {
	var zero T
	if _, ok := any(&zero).(Stamped); !ok {
		return nil, ErrNotStamped
	}
	items := s.queue.drainAll()
	s.ClearReady()
	if s.HasPending() && s.MarkReady() {
		s.group.notify(s)
	}
	out := make([]ExecEntry, len(items))
	for i, it := range items {
		it := it
		out[i] = ExecEntry{Seq: it.Seq, TSNano: int64(it.Seq), Invoke: func() { s.callback(it.Msg) }}
	}
	return out, nil
}

// Stop tears the subscriber down: removes it from its topic, callback
// group, and node, in that order, before its queue is dropped. A
// Subscriber has no receive loop of its own, so there is nothing to join;
// inbound network traffic reaches it through a Publisher, and that loop
// is stopped by the transport bridge's Close. Idempotent.
func (s *Subscriber[T]) Stop() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.topic.Topic().RemoveSubscriber(s)
	s.group.removeSubscriber(s)
	s.node.removeSubscriber(s.id)
	s.topic.Drop()
	emitEvent(context.Background(), s.node.domain.observer, EventTypeSubscriptionRemoved, "subscriber", s.TopicName())
}
