package usecases

import (
	"log/slog"
	"sync"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// Broker keeps at most one live subscription per managed event category.
// Registering again for a category releases the previous subscription before
// attaching the new handler. Raw subscriptions bypass the broker entirely.
type Broker struct {
	source ports.EventSource

	mu    sync.Mutex
	slots map[domain.EventCategory]ports.Subscription
}

// NewBroker creates a Broker with an empty registry.
func NewBroker(source ports.EventSource) *Broker {
	return &Broker{
		source: source,
		slots:  make(map[domain.EventCategory]ports.Subscription, len(domain.ManagedCategories())),
	}
}

// Register attaches handler to a managed category, replacing any previous handler.
func (b *Broker) Register(category domain.EventCategory, handler ports.Handler) {
	if !category.IsManaged() {
		slog.Warn("ignoring registration for unmanaged event category", "category", category)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseLocked(category)
	b.slots[category] = b.source.Subscribe(category, handler)

	slog.Debug("registered event handler", "category", category)
}

// Unregister releases the subscription held for category, if any.
func (b *Broker) Unregister(category domain.EventCategory) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseLocked(category)
}

// RegisterRaw attaches handler to any category without registry bookkeeping.
// The caller owns the returned subscription and must release it.
func (b *Broker) RegisterRaw(category domain.EventCategory, handler ports.Handler) ports.Subscription {
	return b.source.Subscribe(category, handler)
}

// UnregisterAll releases every managed subscription. Safe to call repeatedly.
func (b *Broker) UnregisterAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, category := range domain.ManagedCategories() {
		b.releaseLocked(category)
	}
}

// IsRegistered reports whether a managed category currently has a live subscription.
func (b *Broker) IsRegistered(category domain.EventCategory) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.slots[category]
	return ok
}

// OnFinishedPlaying registers callback for FinishedPlaying events.
func (b *Broker) OnFinishedPlaying(callback func(success bool)) {
	b.Register(domain.FinishedPlaying, successHandler(callback))
}

// OnFinishedLoading registers callback for FinishedLoading events.
func (b *Broker) OnFinishedLoading(callback func(success bool)) {
	b.Register(domain.FinishedLoading, successHandler(callback))
}

// OnAudioInterrupt registers callback for AudioInterrupt events.
func (b *Broker) OnAudioInterrupt(callback func(success bool)) {
	b.Register(domain.AudioInterrupt, successHandler(callback))
}

// releaseLocked releases and clears the slot for category. b.mu must be held.
func (b *Broker) releaseLocked(category domain.EventCategory) {
	sub, ok := b.slots[category]
	if !ok {
		return
	}
	delete(b.slots, category)
	sub.Release()

	slog.Debug("released event handler", "category", category)
}

func successHandler(callback func(success bool)) ports.Handler {
	return func(event domain.Event) {
		callback(event.Success)
	}
}
