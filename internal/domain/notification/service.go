package notification

import (
	"context"
)

// Publisher delivers lifecycle events to in-process subscribers
type Publisher interface {
	// Publish queues the event; delivery happens on background workers
	Publish(ctx context.Context, event Event) error

	// Subscribe streams events for a topic until ctx is done or cleanup is called
	Subscribe(ctx context.Context, topic string) (<-chan Event, func())

	// Stop drains the queue and stops the workers
	Stop()
}
