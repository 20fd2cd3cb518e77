package ports

import "github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"

// Handler receives events for a subscribed category.
type Handler func(domain.Event)

// Subscription is a live attachment of a Handler to an event category.
type Subscription interface {
	// Release detaches the handler. No further invocations start after Release returns,
	// although one already in flight may still complete.
	Release()
}

// EventSource delivers engine events to subscribed handlers.
type EventSource interface {
	Subscribe(category domain.EventCategory, handler Handler) Subscription
}
