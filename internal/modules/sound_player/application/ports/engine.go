package ports

import (
	"context"
	"time"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// Engine is the audio engine the sound player forwards commands to.
// Commands are fire-and-forget: failures are reported through events or logs.
type Engine interface {
	// PlaySoundFile loads and plays a bundled sound.
	PlaySoundFile(name, fileType string)

	// PlaySoundFileWithDelay loads a bundled sound and plays it after delay.
	PlaySoundFileWithDelay(name, fileType string, delay time.Duration)

	// LoadSoundFile loads a bundled sound without playing it.
	LoadSoundFile(name, fileType string)

	// SetNumberOfLoops sets how many extra times the next sound repeats. Negative loops forever.
	SetNumberOfLoops(loops int)

	// PlayURL loads and plays a remote sound.
	PlayURL(url string)

	// LoadURL loads a remote sound without playing it.
	LoadURL(url string)

	// StartSession prepares the engine's audio session.
	StartSession()

	// Resume starts a loaded sound or resumes a paused one.
	Resume()

	// Pause pauses playback.
	Pause()

	// Stop stops playback.
	Stop()

	// Seek moves the playback position.
	Seek(position time.Duration)

	// SetVolume sets the volume in the range [0, 1].
	SetVolume(volume float64)

	// SetSpeaker routes output to the loudspeaker when on.
	SetSpeaker(on bool)

	// SetMixAudio controls whether playback mixes with other audio.
	SetMixAudio(on bool)

	// GetInfo returns the position of the current sound.
	GetInfo(ctx context.Context) (domain.PlaybackInfo, error)
}
