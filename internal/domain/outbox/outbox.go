package outbox

import "context"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Keyed events carry the aggregate they belong to, used as partition key by brokers.
type Keyed interface {
	AggregateID() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// KeyOf returns the aggregate id of e, or "" when e is not Keyed.
func KeyOf(e Event) string {
	if k, ok := e.(Keyed); ok {
		return k.AggregateID()
	}
	return ""
}
