package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

const (
	// speakerSampleRate is the output rate; sounds at other rates are resampled.
	speakerSampleRate = beep.SampleRate(44100)

	// defaultURLType is used when a URL path has no recognizable extension.
	defaultURLType = "mp3"

	resampleQuality = 4
	urlRetryMax     = 3
)

var _ ports.Engine = (*LocalEngine)(nil)

// speakerInit initializes the process-wide speaker once.
var speakerInit = sync.OnceValue(func() error {
	return speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
})

// localSound is a decoded sound, either waiting to start or handed to the speaker.
type localSound struct {
	label    string
	streamer beep.StreamSeekCloser
	format   beep.Format

	// Set once the sound is handed to the speaker. Guarded by speaker.Lock.
	ctrl   *beep.Ctrl
	volume *effects.Volume

	finished atomic.Bool
}

func (s *localSound) close() {
	if err := s.streamer.Close(); err != nil {
		slog.Debug("failed to close sound", "sound", s.label, "error", err)
	}
}

// LocalEngine plays sounds on the host's audio device.
type LocalEngine struct {
	publisher  ports.EventPublisher
	soundDir   string
	httpClient *retryablehttp.Client
	queue      *commandQueue

	mu      sync.Mutex
	pending *localSound
	// active is the most recently started sound; playing holds every sound
	// handed to the speaker that has not been closed yet, active included.
	active   *localSound
	playing  []*localSound
	loops    int
	level    float64
	mixAudio bool
}

// NewLocalEngine creates a LocalEngine reading sound files from soundDir.
func NewLocalEngine(publisher ports.EventPublisher, soundDir string) *LocalEngine {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = urlRetryMax
	httpClient.Logger = slog.Default()

	return &LocalEngine{
		publisher:  publisher,
		soundDir:   soundDir,
		httpClient: httpClient,
		queue:      newCommandQueue("local", defaultCommandBufferSize, defaultCommandTimeout),
		level:      1,
		mixAudio:   true,
	}
}

// PlaySoundFile loads a sound file and starts it.
func (e *LocalEngine) PlaySoundFile(name, fileType string) {
	e.queue.enqueue("playSoundFile", func(ctx context.Context) error {
		sound, err := e.loadFile(name, fileType)
		if err != nil {
			return err
		}
		return e.start(sound)
	})
}

// PlaySoundFileWithDelay loads a sound file and starts it once delay has elapsed.
func (e *LocalEngine) PlaySoundFileWithDelay(name, fileType string, delay time.Duration) {
	e.queue.enqueue("playSoundFileWithDelay", func(ctx context.Context) error {
		sound, err := e.loadFile(name, fileType)
		if err != nil {
			return err
		}

		time.AfterFunc(delay, func() {
			e.queue.enqueue("startDelayed", func(ctx context.Context) error {
				return e.start(sound)
			})
		})
		return nil
	})
}

// LoadSoundFile loads a sound file without starting it.
func (e *LocalEngine) LoadSoundFile(name, fileType string) {
	e.queue.enqueue("loadSoundFile", func(ctx context.Context) error {
		_, err := e.loadFile(name, fileType)
		return err
	})
}

// SetNumberOfLoops sets how many extra times the next started sound repeats.
func (e *LocalEngine) SetNumberOfLoops(loops int) {
	e.queue.enqueue("setNumberOfLoops", func(ctx context.Context) error {
		e.mu.Lock()
		e.loops = loops
		e.mu.Unlock()
		return nil
	})
}

// PlayURL fetches a remote sound and starts it.
func (e *LocalEngine) PlayURL(rawURL string) {
	e.queue.enqueue("playUrl", func(ctx context.Context) error {
		sound, err := e.loadURL(ctx, rawURL)
		if err != nil {
			return err
		}
		return e.start(sound)
	})
}

// LoadURL fetches a remote sound without starting it.
func (e *LocalEngine) LoadURL(rawURL string) {
	e.queue.enqueue("loadUrl", func(ctx context.Context) error {
		_, err := e.loadURL(ctx, rawURL)
		return err
	})
}

// StartSession opens the audio device.
func (e *LocalEngine) StartSession() {
	e.queue.enqueue("startSession", func(ctx context.Context) error {
		if err := speakerInit(); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		return nil
	})
}

// Resume starts the loaded sound, or unpauses the active one.
func (e *LocalEngine) Resume() {
	e.queue.enqueue("resume", func(ctx context.Context) error {
		e.mu.Lock()
		pending, active := e.pending, e.active
		e.mu.Unlock()

		if pending != nil {
			return e.start(pending)
		}
		if active == nil {
			return ErrNothingLoaded
		}

		speaker.Lock()
		active.ctrl.Paused = false
		speaker.Unlock()
		return nil
	})
}

// Pause pauses the active sound.
func (e *LocalEngine) Pause() {
	e.queue.enqueue("pause", func(ctx context.Context) error {
		e.mu.Lock()
		active := e.active
		e.mu.Unlock()

		if active == nil {
			return ErrNothingLoaded
		}

		speaker.Lock()
		active.ctrl.Paused = true
		speaker.Unlock()
		return nil
	})
}

// Stop silences every sound and discards the loaded one.
func (e *LocalEngine) Stop() {
	e.queue.enqueue("stop", func(ctx context.Context) error {
		e.stopAll()
		return nil
	})
}

// Seek moves the current sound to position.
func (e *LocalEngine) Seek(position time.Duration) {
	e.queue.enqueue("seek", func(ctx context.Context) error {
		sound := e.current()
		if sound == nil {
			return ErrNothingLoaded
		}

		speaker.Lock()
		defer speaker.Unlock()

		n := sound.format.SampleRate.N(position)
		n = max(0, min(n, sound.streamer.Len()-1))
		if err := sound.streamer.Seek(n); err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
		return nil
	})
}

// SetVolume sets the playback level (0.0 to 1.0) of current and future sounds.
func (e *LocalEngine) SetVolume(level float64) {
	e.queue.enqueue("setVolume", func(ctx context.Context) error {
		level = clampLevel(level)

		e.mu.Lock()
		e.level = level
		active := e.active
		e.mu.Unlock()

		if active != nil {
			speaker.Lock()
			active.volume.Volume = levelToVolume(level)
			active.volume.Silent = level <= 0
			speaker.Unlock()
		}
		return nil
	})
}

// SetSpeaker has no desktop equivalent.
func (e *LocalEngine) SetSpeaker(on bool) {
	slog.Info("speaker routing has no effect on the local engine", "on", on)
}

// SetMixAudio controls whether a new sound plays over the active one or interrupts it.
func (e *LocalEngine) SetMixAudio(on bool) {
	e.queue.enqueue("setMixAudio", func(ctx context.Context) error {
		e.mu.Lock()
		e.mixAudio = on
		e.mu.Unlock()
		return nil
	})
}

// GetInfo reports the position and length of the current sound.
func (e *LocalEngine) GetInfo(ctx context.Context) (domain.PlaybackInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlaybackInfo{}, err
	}

	sound := e.current()
	if sound == nil {
		return domain.PlaybackInfo{}, ErrNothingLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	return domain.PlaybackInfo{
		CurrentTime: sound.format.SampleRate.D(sound.streamer.Position()),
		Duration:    sound.format.SampleRate.D(sound.streamer.Len()),
	}, nil
}

// Close stops playback and shuts down the command worker.
func (e *LocalEngine) Close() {
	e.queue.close()
	e.stopAll()
}

func (e *LocalEngine) current() *localSound {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending != nil {
		return e.pending
	}
	if e.active != nil && !e.active.finished.Load() {
		return e.active
	}
	return nil
}

func (e *LocalEngine) loadFile(name, fileType string) (*localSound, error) {
	file := domain.SoundFile{Name: name, Type: fileType}
	failed := domain.Event{
		Category: domain.FinishedLoadingFile,
		Name:     name,
		Type:     fileType,
	}

	f, err := os.Open(soundPath(e.soundDir, file))
	if err != nil {
		e.emitLoaded(failed)
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}

	streamer, format, err := decode(f, fileType)
	if err != nil {
		f.Close()
		e.emitLoaded(failed)
		return nil, fmt.Errorf("failed to decode sound file: %w", err)
	}

	sound := &localSound{label: file.FileName(), streamer: streamer, format: format}
	e.setPending(sound)

	loaded := failed
	loaded.Success = true
	e.emitLoaded(loaded)

	slog.Info("loaded sound file", "file", file.FileName(), "length", format.SampleRate.D(streamer.Len()))

	return sound, nil
}

func (e *LocalEngine) loadURL(ctx context.Context, rawURL string) (*localSound, error) {
	failed := domain.Event{Category: domain.FinishedLoadingURL, URL: rawURL}

	data, err := e.fetch(ctx, rawURL)
	if err != nil {
		e.emitLoaded(failed)
		return nil, err
	}

	streamer, format, err := decode(nopSeekCloser{bytes.NewReader(data)}, urlType(rawURL))
	if err != nil {
		e.emitLoaded(failed)
		return nil, fmt.Errorf("failed to decode url: %w", err)
	}

	sound := &localSound{label: rawURL, streamer: streamer, format: format}
	e.setPending(sound)

	loaded := failed
	loaded.Success = true
	e.emitLoaded(loaded)

	slog.Info("loaded sound url", "url", rawURL, "length", format.SampleRate.D(streamer.Len()))

	return sound, nil
}

func (e *LocalEngine) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch url: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// emitLoaded publishes the generic loading event followed by its source-specific variant.
func (e *LocalEngine) emitLoaded(variant domain.Event) {
	e.publisher.Emit(domain.NewEvent(domain.FinishedLoading, variant.Success))
	e.publisher.Emit(variant)
}

func (e *LocalEngine) setPending(sound *localSound) {
	e.mu.Lock()
	previous := e.pending
	e.pending = sound
	e.mu.Unlock()

	if previous != nil {
		previous.close()
	}
}

// start hands sound to the speaker. Sounds that are no longer pending are ignored.
func (e *LocalEngine) start(sound *localSound) error {
	if err := speakerInit(); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	e.mu.Lock()
	if e.pending != sound {
		e.mu.Unlock()
		return nil
	}
	e.pending = nil
	keep, retired, interrupted := retire(e.playing, e.mixAudio)
	e.playing = append(keep, sound)
	e.active = sound
	loops, level := e.loops, e.level
	e.mu.Unlock()

	var streamer beep.Streamer = beep.Loop(domain.PlayCount(loops), sound.streamer)
	if sound.format.SampleRate != speakerSampleRate {
		streamer = beep.Resample(resampleQuality, sound.format.SampleRate, speakerSampleRate, streamer)
	}

	speaker.Lock()
	sound.ctrl = &beep.Ctrl{Streamer: streamer}
	sound.volume = &effects.Volume{
		Streamer: sound.ctrl,
		Base:     2,
		Volume:   levelToVolume(level),
		Silent:   level <= 0,
	}
	speaker.Unlock()

	if interrupted {
		speaker.Clear()
	}
	for _, old := range retired {
		old.close()
	}
	if interrupted {
		e.publisher.Emit(domain.NewEvent(domain.AudioInterrupt, true))
		slog.Info("interrupted sound", "by", sound.label)
	}

	// The callback runs under the speaker lock and must not touch e.mu.
	speaker.Play(beep.Seq(sound.volume, beep.Callback(func() {
		sound.finished.Store(true)
		e.publisher.Emit(domain.NewEvent(domain.FinishedPlaying, true))
	})))

	slog.Info("started sound", "sound", sound.label, "loops", loops)

	return nil
}

func (e *LocalEngine) stopAll() {
	e.mu.Lock()
	pending, playing := e.pending, e.playing
	e.pending, e.active, e.playing = nil, nil, nil
	e.mu.Unlock()

	speaker.Clear()

	if pending != nil {
		pending.close()
	}
	for _, sound := range playing {
		sound.close()
	}
}

// retire decides which sounds on the speaker survive the start of another.
// Finished sounds are always retired. Without mixing every sound is retired,
// and interrupted reports whether one of them was still audible.
func retire(playing []*localSound, mix bool) (keep, retired []*localSound, interrupted bool) {
	for _, sound := range playing {
		switch {
		case sound.finished.Load():
			retired = append(retired, sound)
		case !mix:
			retired = append(retired, sound)
			interrupted = true
		default:
			keep = append(keep, sound)
		}
	}
	return keep, retired, interrupted
}

// soundPath resolves a sound file inside dir. Directory components in the name are dropped.
func soundPath(dir string, file domain.SoundFile) string {
	return filepath.Join(dir, filepath.Base(file.FileName()))
}

// urlType guesses the encoding of a remote sound from its path.
func urlType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultURLType
	}

	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	if ext == "" {
		return defaultURLType
	}
	return strings.ToLower(ext)
}

func decode(rc io.ReadSeekCloser, fileType string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "mp3":
		return mp3.Decode(rc)
	case "wav":
		return wav.Decode(rc)
	case "flac":
		return flac.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileType)
	}
}

func clampLevel(level float64) float64 {
	if math.IsNaN(level) || level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

// levelToVolume converts a 0.0-1.0 level to beep's base-2 Volume.
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// nopSeekCloser keeps an in-memory reader seekable for the decoders.
type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
