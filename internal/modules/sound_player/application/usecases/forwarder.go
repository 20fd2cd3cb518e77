package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// Forwarder maps each playback command onto one engine call.
type Forwarder struct {
	engine   ports.Engine
	platform domain.Platform
}

// NewForwarder creates a Forwarder for the given engine and platform.
func NewForwarder(engine ports.Engine, platform domain.Platform) *Forwarder {
	return &Forwarder{
		engine:   engine,
		platform: platform,
	}
}

// Platform returns the platform the forwarder was configured for.
func (f *Forwarder) Platform() domain.Platform {
	return f.platform
}

// PlaySoundFile plays a bundled sound.
func (f *Forwarder) PlaySoundFile(name, fileType string) {
	f.engine.PlaySoundFile(name, fileType)
}

// PlaySoundFileWithDelay plays a bundled sound after delay.
func (f *Forwarder) PlaySoundFileWithDelay(name, fileType string, delay time.Duration) {
	f.engine.PlaySoundFileWithDelay(name, fileType, delay)
}

// LoadSoundFile loads a bundled sound without playing it.
func (f *Forwarder) LoadSoundFile(name, fileType string) {
	f.engine.LoadSoundFile(name, fileType)
}

// SetNumberOfLoops sets the loop count for the next sound.
func (f *Forwarder) SetNumberOfLoops(loops int) {
	f.engine.SetNumberOfLoops(loops)
}

// PlayURL plays a remote sound.
func (f *Forwarder) PlayURL(url string) {
	f.engine.PlayURL(url)
}

// LoadURL loads a remote sound without playing it.
func (f *Forwarder) LoadURL(url string) {
	f.engine.LoadURL(url)
}

// StartSession prepares the engine's audio session.
func (f *Forwarder) StartSession() {
	f.engine.StartSession()
}

// Play starts or resumes playback. The engine has a single implementation for both,
// so Play is an alias of Resume.
func (f *Forwarder) Play() {
	f.engine.Resume()
}

// Resume resumes playback.
func (f *Forwarder) Resume() {
	f.engine.Resume()
}

// Pause pauses playback.
func (f *Forwarder) Pause() {
	f.engine.Pause()
}

// Stop stops playback.
func (f *Forwarder) Stop() {
	f.engine.Stop()
}

// Seek moves the playback position.
func (f *Forwarder) Seek(position time.Duration) {
	f.engine.Seek(position)
}

// SetVolume sets the volume in the range [0, 1].
func (f *Forwarder) SetVolume(volume float64) {
	f.engine.SetVolume(volume)
}

// SetSpeaker routes output to the loudspeaker.
func (f *Forwarder) SetSpeaker(on bool) {
	f.engine.SetSpeaker(on)
}

// SetMixAudio toggles mixing with other audio. On platforms without support it
// only logs that the call has no effect.
func (f *Forwarder) SetMixAudio(on bool) {
	if !f.platform.SupportsMixAudio() {
		slog.Info("setMixAudio is not implemented on this platform",
			"platform", f.platform,
			"on", on,
		)
		return
	}
	f.engine.SetMixAudio(on)
}

// GetInfo returns the engine's playback info, propagating any failure unchanged.
func (f *Forwarder) GetInfo(ctx context.Context) (domain.PlaybackInfo, error) {
	return f.engine.GetInfo(ctx)
}
