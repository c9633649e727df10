// Package events carries the console's in-process event bus. Modules
// announce what happened (session opened, cases refreshed, call ended)
// and stay decoupled from whoever reacts.
package events

import (
	"context"
	"time"
)

// Event is implemented by everything published on the bus.
type Event interface {
	// EventName returns the routing key handlers subscribe under.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all console events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to one event type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to subscribed handlers.
type Bus interface {
	// Publish fans the event out asynchronously. Handler errors are
	// logged, never returned to the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync runs every handler before returning, collecting
	// their errors. Used where ordering matters, such as stopping the
	// case poller before a logout completes.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, as returned
	// by Event.EventName().
	Subscribe(eventName string, handler Handler)
}
