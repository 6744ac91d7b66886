// Package transport provides the cross-process adapter named by the
// core's external-transport contract: a receive loop that deserialises
// frames and feeds them into the same Publisher/Subscriber surface an
// intraprocess producer or consumer would use, plus the mirror path that
// republishes local traffic onto the wire. Discovery of the peer endpoint
// is intentionally out of scope here — callers supply a channel name,
// which is the deterministic default naming scheme the contract allows.
package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lux-commbus/commbus"
)

// RedisBridge carries messages of type T between a Redis pub/sub channel
// and a local topic. It satisfies commbus.TransportBinding so an
// interprocess Node can hold one via BindTransport.
type RedisBridge[T any] struct {
	client  *redis.Client
	channel string
	logger  commbus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBridge constructs a bridge over channel using client. logger may
// be nil, defaulting to a no-op logger.
func NewRedisBridge[T any](client *redis.Client, channel string, logger commbus.Logger) *RedisBridge[T] {
	if logger == nil {
		logger = commbus.NewNoopLogger()
	}
	return &RedisBridge[T]{client: client, channel: channel, logger: logger}
}

// BridgeInbound starts a receive loop that deserialises JSON frames off
// the Redis channel and publishes each into localPub, exactly the
// enqueue(stamp, msg) step an intraprocess subscriber performs on fan-out
// — here the "subscriber" is the network socket and the decoded value is
// handed onward through the ordinary Publish path, so the rest of the core
// (topic fan-out, sequencing, ready-queue notification) is unaware this
// message crossed a process boundary.
func (b *RedisBridge[T]) BridgeInbound(ctx context.Context, localPub *commbus.Publisher[T]) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	ch := pubsub.Channel()

	ctx2, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()
		for {
			select {
			case <-ctx2.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var value T
				if err := json.Unmarshal([]byte(msg.Payload), &value); err != nil {
					b.logger.Error("failed to decode inbound frame", "error", err, "channel", b.channel)
					continue
				}
				if err := localPub.Publish(value); err != nil {
					b.logger.Warn("failed to deliver inbound frame", "error", err, "channel", b.channel)
				}
			}
		}
	}()
}

// BridgeOutbound subscribes to topicName on node and republishes every
// observed message as a JSON frame on the Redis channel.
func (b *RedisBridge[T]) BridgeOutbound(node *commbus.Node, topicName string, queueCapacity int) (*commbus.Subscriber[T], error) {
	return commbus.NewSubscriber[T](node, topicName, queueCapacity, nil, func(msg *T) {
		data, err := json.Marshal(msg)
		if err != nil {
			b.logger.Error("failed to encode outbound frame", "error", err)
			return
		}
		if err := b.client.Publish(context.Background(), b.channel, data).Err(); err != nil {
			b.logger.Error("failed to publish outbound frame", "error", err, "channel", b.channel)
		}
	})
}

// Close stops the inbound receive loop, if started, and closes the Redis
// client. Idempotent.
func (b *RedisBridge[T]) Close() error {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	return b.client.Close()
}
