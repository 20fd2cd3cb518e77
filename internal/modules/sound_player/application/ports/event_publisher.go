package ports

import "github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"

// EventPublisher is implemented by the transport engines emit events into.
type EventPublisher interface {
	// Emit queues an event for delivery. It never blocks.
	Emit(event domain.Event)
}
