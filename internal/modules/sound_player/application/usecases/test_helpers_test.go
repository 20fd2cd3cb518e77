package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// fakeSubscription is a handle produced by fakeEventSource.
type fakeSubscription struct {
	source   *fakeEventSource
	id       int
	category domain.EventCategory
	handler  ports.Handler
	releases int
}

func (s *fakeSubscription) Release() {
	s.releases++
	s.source.log = append(s.source.log, fmt.Sprintf("release:%d", s.id))
}

func (s *fakeSubscription) live() bool {
	return s.releases == 0
}

// fakeEventSource is a synchronous test double for ports.EventSource.
type fakeEventSource struct {
	subs []*fakeSubscription
	// log records "subscribe:<id>" and "release:<id>" in call order.
	log []string
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{}
}

func (f *fakeEventSource) Subscribe(category domain.EventCategory, handler ports.Handler) ports.Subscription {
	sub := &fakeSubscription{
		source:   f,
		id:       len(f.subs) + 1,
		category: category,
		handler:  handler,
	}
	f.subs = append(f.subs, sub)
	f.log = append(f.log, fmt.Sprintf("subscribe:%d", sub.id))
	return sub
}

// emit delivers an event to every live subscription of its category.
func (f *fakeEventSource) emit(event domain.Event) {
	for _, sub := range f.subs {
		if sub.category == event.Category && sub.live() {
			sub.handler(event)
		}
	}
}

// live returns the live subscriptions for category.
func (f *fakeEventSource) live(category domain.EventCategory) []*fakeSubscription {
	var result []*fakeSubscription
	for _, sub := range f.subs {
		if sub.category == category && sub.live() {
			result = append(result, sub)
		}
	}
	return result
}

// totalReleases returns the number of Release calls across all subscriptions.
func (f *fakeEventSource) totalReleases() int {
	total := 0
	for _, sub := range f.subs {
		total += sub.releases
	}
	return total
}

// callRecorder counts callback invocations and remembers the last value.
type callRecorder struct {
	calls int
	last  bool
}

func (c *callRecorder) callback(success bool) {
	c.calls++
	c.last = success
}

// engineCall is a single recorded engine invocation.
type engineCall struct {
	method string
	args   []any
}

// recordingEngine is a test double for ports.Engine.
type recordingEngine struct {
	calls   []engineCall
	info    domain.PlaybackInfo
	infoErr error
}

func (e *recordingEngine) record(method string, args ...any) {
	e.calls = append(e.calls, engineCall{method: method, args: args})
}

func (e *recordingEngine) PlaySoundFile(name, fileType string) {
	e.record("PlaySoundFile", name, fileType)
}

func (e *recordingEngine) PlaySoundFileWithDelay(name, fileType string, delay time.Duration) {
	e.record("PlaySoundFileWithDelay", name, fileType, delay)
}

func (e *recordingEngine) LoadSoundFile(name, fileType string) {
	e.record("LoadSoundFile", name, fileType)
}

func (e *recordingEngine) SetNumberOfLoops(loops int) { e.record("SetNumberOfLoops", loops) }
func (e *recordingEngine) PlayURL(url string)         { e.record("PlayURL", url) }
func (e *recordingEngine) LoadURL(url string)         { e.record("LoadURL", url) }
func (e *recordingEngine) StartSession()              { e.record("StartSession") }
func (e *recordingEngine) Resume()                    { e.record("Resume") }
func (e *recordingEngine) Pause()                     { e.record("Pause") }
func (e *recordingEngine) Stop()                      { e.record("Stop") }
func (e *recordingEngine) Seek(position time.Duration) {
	e.record("Seek", position)
}
func (e *recordingEngine) SetVolume(volume float64) { e.record("SetVolume", volume) }
func (e *recordingEngine) SetSpeaker(on bool)       { e.record("SetSpeaker", on) }
func (e *recordingEngine) SetMixAudio(on bool)      { e.record("SetMixAudio", on) }

func (e *recordingEngine) GetInfo(_ context.Context) (domain.PlaybackInfo, error) {
	e.record("GetInfo")
	return e.info, e.infoErr
}

var _ ports.Engine = (*recordingEngine)(nil)
