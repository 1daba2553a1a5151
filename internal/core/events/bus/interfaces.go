package bus

import "time"

// EventBus fans galaxy events out to in-process subscribers. Publish runs
// every handler registered for event.Type() on the calling goroutine, which
// is the simulation loop, and joins their errors.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// GetMetrics snapshots the delivery counters.
	GetMetrics() EventBusMetrics
}

// Event is a published message. Data carries the payload, e.g. a step or
// merge record.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type EventHandler func(event Event) error

// A Subscription binds one handler to one event type until cancelled.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel is idempotent.
	Cancel() error
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
