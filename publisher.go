package commbus

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Publisher is the typed send end of a topic. Publish performs a
// synchronous fan-out into every currently registered subscriber's queue;
// there is no internal buffering.
type Publisher[T any] struct {
	id    uint64
	uuid  string
	node  *Node
	topic *TopicHandle[T]

	closed atomic.Bool
}

// NewPublisher resolves (or creates) the named topic in node's domain and
// returns a bound publisher. Fails with ErrTypeMismatch if the topic
// already exists with a different message type.
func NewPublisher[T any](node *Node, topicName string) (*Publisher[T], error) {
	th, err := CreateOrGetTopic[T](node.domain, topicName)
	if err != nil {
		return nil, err
	}
	th.Topic().addPublisher()
	p := &Publisher[T]{uuid: uuid.New().String(), node: node, topic: th}
	p.id = node.registerPublisher(p)
	return p, nil
}

// ID returns the publisher's id within its owning node.
func (p *Publisher[T]) ID() uint64 { return p.id }

// TopicName returns the name of the bound topic.
func (p *Publisher[T]) TopicName() string { return p.topic.Topic().Name() }

// Publish constructs a shared message from value and fans it out.
// Returns ErrTopicClosed if the publisher has already been closed.
func (p *Publisher[T]) Publish(value T) error {
	if p.closed.Load() {
		return ErrTopicClosed
	}
	return p.topic.Topic().Fanout(&value)
}

// PublishShared fans out an already-constructed shared message, letting
// callers avoid a copy when they already hold a *T they will not mutate
// further.
func (p *Publisher[T]) PublishShared(msg *T) error {
	if p.closed.Load() {
		return ErrTopicClosed
	}
	return p.topic.Topic().Fanout(msg)
}

// Close detaches the publisher from its topic and node. Idempotent.
func (p *Publisher[T]) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.topic.Topic().removePublisher()
	p.node.removePublisher(p.id)
	p.topic.Drop()
}
