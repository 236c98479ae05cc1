// Package eventbus publishes and consumes project events over watermill.
package eventbus

import (
	"context"

	"github.com/dukex/voltgraph/pkg/events"
)

// Event is a notification about one project.
type Event interface {
	GetType() events.EventType
	GetProjectID() string
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a decoded event as a pointer to its events type.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// PublishProjectEvent keys event by its project, so a partitioned transport
// delivers the events of one project in order.
func PublishProjectEvent(ctx context.Context, publisher EventPublisher, event Event) error {
	return publisher.Publish(ctx, event.GetProjectID(), event)
}
