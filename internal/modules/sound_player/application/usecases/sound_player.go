package usecases

import (
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// SoundPlayer is the surface exposed to the host: every playback command plus
// the managed and raw event registrations.
type SoundPlayer struct {
	*Forwarder
	*Broker
}

// NewSoundPlayer creates a SoundPlayer over the given engine and event source.
func NewSoundPlayer(
	engine ports.Engine,
	source ports.EventSource,
	platform domain.Platform,
) *SoundPlayer {
	return &SoundPlayer{
		Forwarder: NewForwarder(engine, platform),
		Broker:    NewBroker(source),
	}
}

// AddEventListener subscribes handler to any event category.
// The returned subscription is not released by Unmount.
func (p *SoundPlayer) AddEventListener(
	category domain.EventCategory,
	handler ports.Handler,
) ports.Subscription {
	return p.RegisterRaw(category, handler)
}

// Unmount releases every managed subscription.
func (p *SoundPlayer) Unmount() {
	p.UnregisterAll()
}
