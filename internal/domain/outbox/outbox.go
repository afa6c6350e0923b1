package outbox

import "context"

// Event is a fact that already happened, named like "meal.served".
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of the in-process event fan-out.
type Bus interface {
	Publisher
	Subscriber
}
