package commbus

// Stamped is the capability a message type may expose: a nanosecond
// timestamp used by the time-ordered executor instead of arrival order.
// Messages that do not implement it can still be sequence-ordered, just
// not time-ordered.
type Stamped interface {
	TimestampNS() int64
}

// OrderedItem pairs a sequence stamp with the shared message it orders.
// The stamp is either the subscriber's own monotonic counter, or — for
// types implementing Stamped — the message's embedded timestamp.
type OrderedItem[T any] struct {
	Seq uint64
	Msg *T
}

// ExecEntry is a type-erased, ready-to-invoke drain entry: a sequence
// number (and, when known, a nanosecond timestamp) paired with a closure
// that runs the subscriber's callback. Ordered executors operate on
// ExecEntry so neither the reorder buffer nor the time heap needs to know
// the underlying message type.
type ExecEntry struct {
	Seq    uint64
	TSNano int64
	Invoke func()
}
