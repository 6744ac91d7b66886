package commbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// TopicHandle is the typed face a caller holds onto a Topic[T] registered
// in a Domain's type-erased topic registry: a Handle[topicHolder] plus the
// type-asserted *Topic[T], so callers never juggle the interface directly.
type TopicHandle[T any] struct {
	handle *Handle[topicHolder]
	topic  *Topic[T]
}

// Topic returns the underlying typed topic.
func (h *TopicHandle[T]) Topic() *Topic[T] { return h.topic }

// Index returns the registry slot index backing this topic.
func (h *TopicHandle[T]) Index() uint64 { return h.handle.Index() }

// Clone returns a new handle to the same topic, incrementing its refcount.
func (h *TopicHandle[T]) Clone() *TopicHandle[T] {
	return &TopicHandle[T]{handle: h.handle.Clone(), topic: h.topic}
}

// Drop releases this handle's reference; the topic is destroyed once the
// last publisher, subscriber, and external handle has dropped.
func (h *TopicHandle[T]) Drop() {
	if h == nil {
		return
	}
	h.handle.Drop()
}

// Domain is a top-level namespace owning a node registry and a queryable
// topic registry. One process-wide default Domain (id 0) is lazily built;
// additional domains may be constructed for tests or multi-tenant hosts.
type Domain struct {
	id       uint64
	nodes    *Registry[Node]
	topics   *QueryableRegistry[topicHolder]
	topicSeq atomic.Uint64
	logger   Logger
	observer Observer
}

var (
	domainSeq         atomic.Uint64
	defaultDomainOnce sync.Once
	defaultDomain     *Domain
)

// DefaultDomain returns the process-wide default Domain, constructing it on
// first use.
func DefaultDomain() *Domain {
	defaultDomainOnce.Do(func() {
		defaultDomain = NewDomain(NewNoopLogger())
		defaultDomain.id = 0
	})
	return defaultDomain
}

// NewDomain constructs a fresh Domain with its own node and topic
// registries.
func NewDomain(logger Logger) *Domain {
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &Domain{
		id:     domainSeq.Add(1),
		nodes:  NewRegistry[Node](),
		topics: NewQueryableRegistry[topicHolder](),
		logger: logger,
	}
}

// ID returns the domain's stable identifier.
func (d *Domain) ID() uint64 { return d.id }

// SetObserver wires a lifecycle-event Observer; pass nil to detach one.
func (d *Domain) SetObserver(obs Observer) { d.observer = obs }

func (d *Domain) nextTopicID() uint64 { return d.topicSeq.Add(1) - 1 }

// CreateOrGetTopic resolves a topic by name, creating it if absent. A
// second call with the same name but a different T fails with
// ErrTypeMismatch, leaving the existing topic (and its refcount)
// untouched.
func CreateOrGetTopic[T any](d *Domain, name string) (*TopicHandle[T], error) {
	h, created, err := d.topics.Emplace(name, func() (topicHolder, error) {
		return newTopic[T](name, d.nextTopicID()), nil
	})
	if err != nil {
		return nil, err
	}
	holder := *h.Get()
	topic, ok := holder.(*Topic[T])
	if !ok {
		h.Drop()
		return nil, ErrTypeMismatch
	}
	if created {
		emitEvent(context.Background(), d.observer, EventTypeTopicCreated, "domain", name)
	}
	return &TopicHandle[T]{handle: h, topic: topic}, nil
}

// TopicExists reports whether name currently resolves to a live topic.
func (d *Domain) TopicExists(name string) bool {
	return d.topics.Contains(name)
}

// AssignNode always creates a fresh Node and returns a handle to it.
func (d *Domain) AssignNode(name string, kind NodeKind) *Handle[Node] {
	h := d.nodes.Emplace(newNode(name, d, kind))
	h.Get().init()
	h.Get().selfHandle = h
	emitEvent(context.Background(), d.observer, EventTypeNodeCreated, "domain", name)
	return h
}
