package commbus

import (
	"reflect"
	"sync/atomic"
)

// topicHolder is the type-erased face every Topic[T] presents to the
// Domain's topic registry, the same role TopicBase plays for the
// template-instantiated Topic<T> in the source this design is based on.
type topicHolder interface {
	Name() string
	TypeTag() reflect.Type
	publisherCount() int32
	addPublisher() int32
	removePublisher() int32
}

type subList[T any] struct {
	subs []*Subscriber[T]
}

// Topic is the per-name, per-type meeting point. Its subscriber set is
// held behind a single atomic pointer to an immutable slice: publish reads
// one pointer and walks an array that can never be mutated underneath it;
// add/remove build a new array and CAS the pointer, retrying on races.
// This gives wait-free fan-out at the cost of one CAS retry loop for
// writers, which are rare relative to publishes.
type Topic[T any] struct {
	name    string
	typeTag reflect.Type
	id      uint64

	pubs atomic.Int32
	subs atomic.Pointer[subList[T]]
}

func newTopic[T any](name string, id uint64) *Topic[T] {
	t := &Topic[T]{name: name, id: id, typeTag: reflect.TypeOf((*T)(nil)).Elem()}
	t.subs.Store(&subList[T]{})
	return t
}

func (t *Topic[T]) Name() string            { return t.name }
func (t *Topic[T]) TypeTag() reflect.Type   { return t.typeTag }
func (t *Topic[T]) ID() uint64              { return t.id }
func (t *Topic[T]) publisherCount() int32   { return t.pubs.Load() }
func (t *Topic[T]) addPublisher() int32     { return t.pubs.Add(1) }
func (t *Topic[T]) removePublisher() int32  { return t.pubs.Add(-1) }

// AddSubscriber installs sub into the current subscriber snapshot.
func (t *Topic[T]) AddSubscriber(sub *Subscriber[T]) {
	for {
		old := t.subs.Load()
		next := make([]*Subscriber[T], len(old.subs), len(old.subs)+1)
		copy(next, old.subs)
		next = append(next, sub)
		if t.subs.CompareAndSwap(old, &subList[T]{subs: next}) {
			return
		}
	}
}

// RemoveSubscriber drops sub from the current subscriber snapshot. A no-op
// if sub is not present (already removed by a racing call).
func (t *Topic[T]) RemoveSubscriber(sub *Subscriber[T]) {
	for {
		old := t.subs.Load()
		idx := -1
		for i, s := range old.subs {
			if s == sub {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		next := make([]*Subscriber[T], 0, len(old.subs)-1)
		next = append(next, old.subs[:idx]...)
		next = append(next, old.subs[idx+1:]...)
		if t.subs.CompareAndSwap(old, &subList[T]{subs: next}) {
			return
		}
	}
}

// Fanout delivers msg to every subscriber in the snapshot observed at the
// time of the call. A subscriber added concurrently either observes this
// message or does not, but the snapshot itself is never torn.
func (t *Topic[T]) Fanout(msg *T) error {
	list := t.subs.Load()
	for _, s := range list.subs {
		s.enqueue(msg)
	}
	return nil
}

// SubscriberCount reports the size of the current subscriber snapshot.
func (t *Topic[T]) SubscriberCount() int {
	return len(t.subs.Load().subs)
}
