package infrastructure

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

// Compile-time checks that Emitter implements ports interfaces.
var (
	_ ports.EventSource    = (*Emitter)(nil)
	_ ports.EventPublisher = (*Emitter)(nil)
)

type listener struct {
	id      uuid.UUID
	handler ports.Handler
}

// Emitter is an in-process event source. Events are queued on a single buffered
// channel and delivered by one dispatcher goroutine, so handlers observe them in
// emission order.
type Emitter struct {
	events chan domain.Event

	listeners map[domain.EventCategory][]listener

	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewEmitter creates an Emitter with the given buffer size and starts its dispatcher.
func NewEmitter(bufferSize int) *Emitter {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	e := &Emitter{
		events:    make(chan domain.Event, bufferSize),
		listeners: make(map[domain.EventCategory][]listener),
	}

	e.wg.Add(1)
	go e.dispatch()

	return e
}

func (e *Emitter) dispatch() {
	defer e.wg.Done()
	for event := range e.events {
		e.mu.RLock()
		listeners := e.listeners[event.Category]
		e.mu.RUnlock()

		for _, l := range listeners {
			if !e.isSubscribed(event.Category, l.id) {
				continue
			}
			l.handler(event)
		}
	}
}

// isSubscribed reports whether the listener is still attached. Checked per
// handler so that a release made by an earlier handler takes effect immediately.
func (e *Emitter) isSubscribed(category domain.EventCategory, id uuid.UUID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, l := range e.listeners[category] {
		if l.id == id {
			return true
		}
	}
	return false
}

// Emit queues an event for delivery.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (e *Emitter) Emit(event domain.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		slog.Warn("attempted to emit on closed emitter", "category", event.Category)
		return
	}

	select {
	case e.events <- event:
		slog.Debug("emitted event", "category", event.Category, "success", event.Success)
	default:
		slog.Warn("event buffer full, dropping event", "category", event.Category)
	}
}

// Subscribe attaches handler to category and returns its subscription.
func (e *Emitter) Subscribe(category domain.EventCategory, handler ports.Handler) ports.Subscription {
	id := uuid.New()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Copy on write so the dispatcher can iterate a snapshot without holding the lock
	current := e.listeners[category]
	next := make([]listener, len(current), len(current)+1)
	copy(next, current)
	e.listeners[category] = append(next, listener{id: id, handler: handler})

	return &emitterSubscription{emitter: e, category: category, id: id}
}

func (e *Emitter) listenerCount(category domain.EventCategory) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[category])
}

func (e *Emitter) remove(category domain.EventCategory, id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.listeners[category]
	next := make([]listener, 0, len(current))
	for _, l := range current {
		if l.id != id {
			next = append(next, l)
		}
	}

	if len(next) == 0 {
		delete(e.listeners, category)
		return
	}
	e.listeners[category] = next
}

// Close stops the dispatcher after draining queued events.
// After calling Close, emitting will no longer deliver events.
//
// Close waits for the dispatcher, so a handler must not call it directly:
// that deadlocks. A handler that needs to close the emitter runs Close in
// its own goroutine.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.events)
	e.mu.Unlock()

	// Wait for the dispatcher to finish
	e.wg.Wait()

	slog.Debug("event emitter closed")
}

// emitterSubscription detaches one handler from an Emitter.
type emitterSubscription struct {
	emitter  *Emitter
	category domain.EventCategory
	id       uuid.UUID
	once     sync.Once
}

// Release detaches the handler. Calling it more than once has no effect.
func (s *emitterSubscription) Release() {
	s.once.Do(func() {
		s.emitter.remove(s.category, s.id)
	})
}
