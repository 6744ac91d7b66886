package commbus

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
)

// Lifecycle event types, CloudEvents reverse-domain notation.
const (
	EventTypeTopicCreated        = "dev.commbus.topic.created"
	EventTypeTopicClosed         = "dev.commbus.topic.closed"
	EventTypeNodeCreated         = "dev.commbus.node.created"
	EventTypeNodeClosed          = "dev.commbus.node.closed"
	EventTypeSubscriptionCreated = "dev.commbus.subscription.created"
	EventTypeSubscriptionRemoved = "dev.commbus.subscription.removed"
	EventTypeExecutorStarted     = "dev.commbus.executor.started"
	EventTypeExecutorStopped     = "dev.commbus.executor.stopped"
)

// Observer receives lifecycle events emitted by domains (topic and node
// created), nodes (node closed) and subscribers (subscription created and
// removed). EventTypeTopicClosed, EventTypeExecutorStarted and
// EventTypeExecutorStopped are defined but not emitted. Hosts can wire
// this to logging, metrics, or an external bus.
type Observer interface {
	Observe(ctx context.Context, ev event.Event)
}

type observerFunc func(ctx context.Context, ev event.Event)

func (f observerFunc) Observe(ctx context.Context, ev event.Event) { f(ctx, ev) }

// NewLoggingObserver logs every lifecycle event at debug level.
func NewLoggingObserver(logger Logger) Observer {
	return observerFunc(func(_ context.Context, ev event.Event) {
		logger.Debug("lifecycle event", "type", ev.Type(), "source", ev.Source(), "subject", ev.Subject())
	})
}

func emitEvent(ctx context.Context, obs Observer, eventType, source, subject string) {
	if obs == nil {
		return
	}
	ev := cloudevents.NewEvent()
	ev.SetType(eventType)
	ev.SetSource(source)
	ev.SetSubject(subject)
	ev.SetTime(time.Now())
	ev.SetID(subject + ":" + eventType + ":" + ev.Time().Format("20060102T150405.000000000"))
	obs.Observe(ctx, ev)
}
