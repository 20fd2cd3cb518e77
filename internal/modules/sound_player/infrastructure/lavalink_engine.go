package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// Ensure LavalinkEngine implements port interfaces.
var (
	_ ports.Engine          = (*LavalinkEngine)(nil)
	_ ports.VoiceConnection = (*LavalinkEngine)(nil)
)

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	GuildID  snowflake.ID
	SoundDir string
}

// voiceHandshake collects the two gateway events Lavalink needs before it can connect.
// Forwarding them separately causes "partial voice state" errors when they arrive out of order.
type voiceHandshake struct {
	mu sync.Mutex

	hasState  bool
	channelID *snowflake.ID
	sessionID string

	hasServer bool
	token     string
	endpoint  string

	// Closed once both events arrived, if a join is waiting.
	ready chan struct{}
}

func (h *voiceHandshake) expect() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = make(chan struct{})
	return h.ready
}

func (h *voiceHandshake) setState(channelID *snowflake.ID, sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasState = true
	h.channelID = channelID
	h.sessionID = sessionID
	return h.completeLocked()
}

func (h *voiceHandshake) setServer(token, endpoint string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasServer = true
	h.token = token
	h.endpoint = endpoint
	return h.completeLocked()
}

func (h *voiceHandshake) completeLocked() bool {
	if !h.hasState || !h.hasServer {
		return false
	}
	if h.ready != nil {
		close(h.ready)
		h.ready = nil
	}
	return true
}

// take returns the collected data and resets the handshake.
func (h *voiceHandshake) take() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channelID, sessionID, token, endpoint = h.channelID, h.sessionID, h.token, h.endpoint
	h.hasState, h.hasServer = false, false
	h.channelID, h.sessionID, h.token, h.endpoint = nil, "", "", ""
	return
}

func (h *voiceHandshake) reset() {
	h.take()
}

// LavalinkEngine plays sounds through a Lavalink node into one guild's voice channel.
type LavalinkEngine struct {
	link      disgolink.Client
	session   *discordgo.Session
	botID     snowflake.ID
	guildID   snowflake.ID
	soundDir  string
	publisher ports.EventPublisher
	queue     *commandQueue

	mu      sync.Mutex
	pending *lavalink.Track
	loops   int
	loop    trackLoop

	voice voiceHandshake
}

// NewLavalinkEngine connects to the configured Lavalink node.
// The session must be open so the bot's user ID is known.
func NewLavalinkEngine(
	session *discordgo.Session,
	publisher ports.EventPublisher,
	config LavalinkConfig,
) (*LavalinkEngine, error) {
	if session.State == nil || session.State.User == nil {
		return nil, errors.New("discord session is not open")
	}

	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	engine := &LavalinkEngine{
		session:   session,
		botID:     botID,
		guildID:   config.GuildID,
		soundDir:  config.SoundDir,
		publisher: publisher,
		queue:     newCommandQueue("lavalink", defaultCommandBufferSize, defaultCommandTimeout),
	}

	engine.link = disgolink.New(botID,
		disgolink.WithListenerFunc(engine.onTrackStart),
		disgolink.WithListenerFunc(engine.onTrackEnd),
		disgolink.WithListenerFunc(engine.onTrackException),
		disgolink.WithListenerFunc(engine.onTrackStuck),
	)

	ctx, cancel := context.WithTimeout(context.Background(), voiceConnectionTimeout)
	defer cancel()

	node, err := engine.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		engine.queue.close()
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink",
		"node", node.Config().Name,
		"address", config.Address,
		"guild", config.GuildID,
	)

	return engine, nil
}

// PlaySoundFile loads a sound file from the node's filesystem and plays it.
func (e *LavalinkEngine) PlaySoundFile(name, fileType string) {
	e.queue.enqueue("playSoundFile", func(ctx context.Context) error {
		track, err := e.loadFile(ctx, name, fileType)
		if err != nil {
			return err
		}
		return e.start(ctx, track)
	})
}

// PlaySoundFileWithDelay loads a sound file and plays it once delay has elapsed.
func (e *LavalinkEngine) PlaySoundFileWithDelay(name, fileType string, delay time.Duration) {
	e.queue.enqueue("playSoundFileWithDelay", func(ctx context.Context) error {
		track, err := e.loadFile(ctx, name, fileType)
		if err != nil {
			return err
		}

		time.AfterFunc(delay, func() {
			e.queue.enqueue("startDelayed", func(ctx context.Context) error {
				return e.start(ctx, track)
			})
		})
		return nil
	})
}

// LoadSoundFile resolves a sound file without playing it.
func (e *LavalinkEngine) LoadSoundFile(name, fileType string) {
	e.queue.enqueue("loadSoundFile", func(ctx context.Context) error {
		_, err := e.loadFile(ctx, name, fileType)
		return err
	})
}

// SetNumberOfLoops sets how many extra times a track repeats.
func (e *LavalinkEngine) SetNumberOfLoops(loops int) {
	e.queue.enqueue("setNumberOfLoops", func(ctx context.Context) error {
		e.mu.Lock()
		e.loops = loops
		e.loop.setLoops(loops)
		e.mu.Unlock()
		return nil
	})
}

// PlayURL resolves a URL and plays it.
func (e *LavalinkEngine) PlayURL(rawURL string) {
	e.queue.enqueue("playUrl", func(ctx context.Context) error {
		track, err := e.loadURL(ctx, rawURL)
		if err != nil {
			return err
		}
		return e.start(ctx, track)
	})
}

// LoadURL resolves a URL without playing it.
func (e *LavalinkEngine) LoadURL(rawURL string) {
	e.queue.enqueue("loadUrl", func(ctx context.Context) error {
		_, err := e.loadURL(ctx, rawURL)
		return err
	})
}

// StartSession has no Lavalink equivalent; the voice connection plays that role.
func (e *LavalinkEngine) StartSession() {
	slog.Debug("audio session is managed by the voice connection", "guild", e.guildID)
}

// Resume plays the loaded track, or unpauses the current one.
func (e *LavalinkEngine) Resume() {
	e.queue.enqueue("resume", func(ctx context.Context) error {
		e.mu.Lock()
		pending := e.pending
		e.mu.Unlock()

		if pending != nil {
			return e.start(ctx, *pending)
		}

		if err := e.link.Player(e.guildID).Update(ctx, lavalink.WithPaused(false)); err != nil {
			return fmt.Errorf("failed to resume playback: %w", err)
		}
		return nil
	})
}

// Pause pauses the current track.
func (e *LavalinkEngine) Pause() {
	e.queue.enqueue("pause", func(ctx context.Context) error {
		if err := e.link.Player(e.guildID).Update(ctx, lavalink.WithPaused(true)); err != nil {
			return fmt.Errorf("failed to pause playback: %w", err)
		}
		return nil
	})
}

// Stop stops the current track and discards the loaded one.
func (e *LavalinkEngine) Stop() {
	e.queue.enqueue("stop", func(ctx context.Context) error {
		e.mu.Lock()
		e.pending = nil
		e.loop.clear()
		e.mu.Unlock()

		if err := e.link.Player(e.guildID).Update(ctx, lavalink.WithNullTrack()); err != nil {
			return fmt.Errorf("failed to stop playback: %w", err)
		}
		return nil
	})
}

// Seek moves the current track to position.
func (e *LavalinkEngine) Seek(position time.Duration) {
	e.queue.enqueue("seek", func(ctx context.Context) error {
		err := e.link.Player(e.guildID).Update(ctx, lavalink.WithPosition(toLavalinkDuration(position)))
		if err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
		return nil
	})
}

// SetVolume sets the player volume from a 0.0-1.0 level.
func (e *LavalinkEngine) SetVolume(level float64) {
	e.queue.enqueue("setVolume", func(ctx context.Context) error {
		if err := e.link.Player(e.guildID).Update(ctx, lavalink.WithVolume(toLavalinkVolume(level))); err != nil {
			return fmt.Errorf("failed to set volume: %w", err)
		}
		return nil
	})
}

// SetSpeaker has no effect; output goes to the voice channel.
func (e *LavalinkEngine) SetSpeaker(on bool) {
	slog.Info("speaker routing has no effect on the lavalink engine", "on", on)
}

// SetMixAudio has no effect; a Lavalink player plays one track at a time.
func (e *LavalinkEngine) SetMixAudio(on bool) {
	slog.Info("mixing has no effect on the lavalink engine", "on", on)
}

// GetInfo reports the player's position and the length of its track.
func (e *LavalinkEngine) GetInfo(ctx context.Context) (domain.PlaybackInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlaybackInfo{}, err
	}

	e.mu.Lock()
	pending := e.pending
	e.mu.Unlock()

	if pending != nil {
		return domain.PlaybackInfo{Duration: fromLavalinkDuration(pending.Info.Length)}, nil
	}

	player := e.link.ExistingPlayer(e.guildID)
	if player == nil {
		return domain.PlaybackInfo{}, ErrNoPlayer
	}

	track := player.Track()
	if track == nil {
		return domain.PlaybackInfo{}, ErrNothingLoaded
	}

	return domain.PlaybackInfo{
		CurrentTime: fromLavalinkDuration(player.Position()),
		Duration:    fromLavalinkDuration(track.Info.Length),
	}, nil
}

// Close shuts down the command worker and the Lavalink connection.
func (e *LavalinkEngine) Close() {
	e.queue.close()
	e.link.Close()
}

// JoinChannel connects to a voice channel.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (e *LavalinkEngine) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	if guildID != e.guildID {
		return fmt.Errorf("engine is bound to guild %s, not %s", e.guildID, guildID)
	}

	ready := e.voice.expect()

	err := e.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return errors.New("timeout waiting for voice connection")
	}
}

// LeaveChannel destroys the player and disconnects from voice.
func (e *LavalinkEngine) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	if player := e.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	e.mu.Lock()
	e.pending = nil
	e.loop.clear()
	e.mu.Unlock()

	if err := e.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (e *LavalinkEngine) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != e.botID.String() || event.GuildID != e.guildID.String() {
		return
	}

	// Disconnects are forwarded immediately; no server update follows.
	if event.ChannelID == "" {
		e.link.OnVoiceStateUpdate(context.Background(), e.guildID, nil, event.SessionID)
		e.voice.reset()
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	if e.voice.setState(&channelID, event.SessionID) {
		e.forwardVoice()
	}
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (e *LavalinkEngine) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	if event.GuildID != e.guildID.String() {
		return
	}

	if e.voice.setServer(event.Token, event.Endpoint) {
		e.forwardVoice()
	}
}

func (e *LavalinkEngine) forwardVoice() {
	channelID, sessionID, token, endpoint := e.voice.take()

	slog.Debug("forwarding voice events to Lavalink",
		"guild", e.guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	e.link.OnVoiceStateUpdate(context.Background(), e.guildID, channelID, sessionID)
	e.link.OnVoiceServerUpdate(context.Background(), e.guildID, token, endpoint)
}

func (e *LavalinkEngine) loadFile(ctx context.Context, name, fileType string) (lavalink.Track, error) {
	failed := domain.Event{
		Category: domain.FinishedLoadingFile,
		Name:     name,
		Type:     fileType,
	}

	identifier, err := filepath.Abs(soundPath(e.soundDir, domain.SoundFile{Name: name, Type: fileType}))
	if err != nil {
		e.emitLoaded(failed)
		return lavalink.Track{}, fmt.Errorf("failed to resolve sound path: %w", err)
	}

	track, err := e.load(ctx, identifier)
	if err != nil {
		e.emitLoaded(failed)
		return lavalink.Track{}, err
	}

	loaded := failed
	loaded.Success = true
	e.emitLoaded(loaded)
	return track, nil
}

func (e *LavalinkEngine) loadURL(ctx context.Context, rawURL string) (lavalink.Track, error) {
	event := domain.Event{Category: domain.FinishedLoadingURL, URL: rawURL}

	track, err := e.load(ctx, rawURL)
	if err != nil {
		e.emitLoaded(event)
		return lavalink.Track{}, err
	}

	event.Success = true
	e.emitLoaded(event)
	return track, nil
}

// load resolves identifier on the best node and keeps the result as the loaded track.
func (e *LavalinkEngine) load(ctx context.Context, identifier string) (lavalink.Track, error) {
	node := e.link.BestNode()
	if node == nil {
		return lavalink.Track{}, ErrNoNode
	}

	result, err := node.LoadTracks(ctx, identifier)
	if err != nil {
		return lavalink.Track{}, fmt.Errorf("failed to load tracks: %w", err)
	}

	track, err := firstTrack(result)
	if err != nil {
		return lavalink.Track{}, err
	}

	e.mu.Lock()
	e.pending = &track
	e.mu.Unlock()

	slog.Info("loaded track",
		"identifier", identifier,
		"length", fromLavalinkDuration(track.Info.Length),
	)

	return track, nil
}

func (e *LavalinkEngine) emitLoaded(variant domain.Event) {
	e.publisher.Emit(domain.NewEvent(domain.FinishedLoading, variant.Success))
	e.publisher.Emit(variant)
}

// start plays track if it is still the loaded one.
func (e *LavalinkEngine) start(ctx context.Context, track lavalink.Track) error {
	e.mu.Lock()
	if e.pending == nil || e.pending.Encoded != track.Encoded {
		e.mu.Unlock()
		return nil
	}
	e.pending = nil
	e.loop.begin(track, e.loops)
	e.mu.Unlock()

	return e.play(ctx, track)
}

func (e *LavalinkEngine) play(ctx context.Context, track lavalink.Track) error {
	player := e.link.Player(e.guildID)

	// Use WithEncodedTrack to avoid userData:null issue
	err := player.Update(ctx, lavalink.WithEncodedTrack(track.Encoded), lavalink.WithPaused(false))
	if err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return nil
}

// nextLoop reports whether the current track should play again, consuming one play.
func (e *LavalinkEngine) nextLoop() (lavalink.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loop.next()
}

// trackLoop counts the plays left for the track being played.
type trackLoop struct {
	current *lavalink.Track
	// Plays left for current, or domain.InfiniteLoops.
	remaining int
}

func (l *trackLoop) begin(track lavalink.Track, loops int) {
	l.current = &track
	l.remaining = domain.PlayCount(loops)
}

// setLoops restarts the count for the current track. No-op when idle.
func (l *trackLoop) setLoops(loops int) {
	if l.current != nil {
		l.remaining = domain.PlayCount(loops)
	}
}

func (l *trackLoop) clear() {
	l.current = nil
	l.remaining = 0
}

// next returns the track to replay after one play finished, if any.
func (l *trackLoop) next() (lavalink.Track, bool) {
	if l.current == nil {
		return lavalink.Track{}, false
	}

	switch {
	case l.remaining == domain.InfiniteLoops:
		return *l.current, true
	case l.remaining > 1:
		l.remaining--
		return *l.current, true
	default:
		l.clear()
		return lavalink.Track{}, false
	}
}

func (e *LavalinkEngine) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (e *LavalinkEngine) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	if player.GuildID() != e.guildID {
		return
	}

	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if event.Reason == lavalink.TrackEndReasonFinished {
		if track, ok := e.nextLoop(); ok {
			e.queue.enqueue("loop", func(ctx context.Context) error {
				return e.play(ctx, track)
			})
			return
		}
	}

	if result, ok := endReasonEvent(event.Reason); ok {
		e.publisher.Emit(result)
	}
}

func (e *LavalinkEngine) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (e *LavalinkEngine) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	if player.GuildID() != e.guildID {
		return
	}

	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
	e.publisher.Emit(domain.NewEvent(domain.AudioInterrupt, false))
}

// endReasonEvent maps a track end to the event it produces, if any.
// Stopped and cleaned up tracks end silently.
func endReasonEvent(reason lavalink.TrackEndReason) (domain.Event, bool) {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.NewEvent(domain.FinishedPlaying, true), true
	case lavalink.TrackEndReasonLoadFailed:
		return domain.NewEvent(domain.FinishedPlaying, false), true
	case lavalink.TrackEndReasonReplaced:
		return domain.NewEvent(domain.AudioInterrupt, true), true
	default:
		return domain.Event{}, false
	}
}

// firstTrack picks the playable track out of a load result.
func firstTrack(result *lavalink.LoadResult) (lavalink.Track, error) {
	if result == nil {
		return lavalink.Track{}, ErrNothingLoaded
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			return data.Tracks[0], nil
		}
	case lavalink.Search:
		if len(data) > 0 {
			return data[0], nil
		}
	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("failed to load track: %s", data.Message)
	}
	return lavalink.Track{}, ErrNothingLoaded
}

func toLavalinkDuration(d time.Duration) lavalink.Duration {
	return lavalink.Duration(max(d, 0).Milliseconds())
}

func fromLavalinkDuration(d lavalink.Duration) time.Duration {
	return time.Duration(d) * time.Millisecond
}

// toLavalinkVolume maps a 0.0-1.0 level onto Lavalink's 0-100 percent scale.
func toLavalinkVolume(level float64) int {
	return int(math.Round(clampLevel(level) * 100))
}
