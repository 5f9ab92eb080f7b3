// Package events carries pipeline domain events between modules in one
// process. Cross-process delivery is layered on top by subscribers such as
// the NATS forwarder.
package events

import (
	"context"
	"time"
)

// Event is a pipeline fact, such as a status change or a rescoring run.
type Event interface {
	// EventName is the subscription key, e.g. "pipeline.lead.status_changed".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event in UTC. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to one event. A returned error is logged by Publish and
// joined into the result of PublishSync.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to the handlers subscribed to their name.
type Bus interface {
	// Publish returns immediately; each handler runs on its own goroutine
	// with the caller's values but not its cancellation. InMemoryBus.Wait
	// drains them on shutdown.
	Publish(ctx context.Context, event Event)

	// PublishSync runs handlers in subscription order on the caller's
	// goroutine and returns their errors joined.
	PublishSync(ctx context.Context, event Event) error

	Subscribe(eventName string, handler Handler)
}
