package shared

import "context"

// EventHandler consumes published events. An empty EventTypes subscribes
// to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services publish through
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is a publisher with subscriptions and a lifecycle
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventSource is an aggregate holding events raised since it was loaded
type EventSource interface {
	PullDomainEvents() []DomainEvent
}

// PublishPending drains each source and publishes its events. The buffers
// are cleared even when publisher is nil or fails, so an event is never
// published twice. The first publish error is returned.
func PublishPending(ctx context.Context, publisher EventPublisher, sources ...EventSource) error {
	var firstErr error
	for _, src := range sources {
		events := src.PullDomainEvents()
		if publisher == nil || len(events) == 0 {
			continue
		}
		if err := publisher.Publish(ctx, events...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
