package infrastructure

import (
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

func TestEndReasonEvent(t *testing.T) {
	tests := []struct {
		name   string
		reason lavalink.TrackEndReason
		want   domain.Event
		emits  bool
	}{
		{
			name:   "finished emits successful FinishedPlaying",
			reason: lavalink.TrackEndReasonFinished,
			want:   domain.NewEvent(domain.FinishedPlaying, true),
			emits:  true,
		},
		{
			name:   "load failure emits failed FinishedPlaying",
			reason: lavalink.TrackEndReasonLoadFailed,
			want:   domain.NewEvent(domain.FinishedPlaying, false),
			emits:  true,
		},
		{
			name:   "replaced emits AudioInterrupt",
			reason: lavalink.TrackEndReasonReplaced,
			want:   domain.NewEvent(domain.AudioInterrupt, true),
			emits:  true,
		},
		{
			name:   "stopped emits nothing",
			reason: lavalink.TrackEndReasonStopped,
		},
		{
			name:   "cleanup emits nothing",
			reason: lavalink.TrackEndReasonCleanup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := endReasonEvent(tt.reason)
			if ok != tt.emits {
				t.Fatalf("expected emits=%v, got %v", tt.emits, ok)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestFirstTrack(t *testing.T) {
	track := lavalink.Track{Encoded: "encoded-1"}
	other := lavalink.Track{Encoded: "encoded-2"}

	tests := []struct {
		name    string
		result  *lavalink.LoadResult
		want    string
		wantErr bool
	}{
		{
			name:   "single track",
			result: &lavalink.LoadResult{Data: track},
			want:   "encoded-1",
		},
		{
			name:   "playlist returns first track",
			result: &lavalink.LoadResult{Data: lavalink.Playlist{Tracks: []lavalink.Track{track, other}}},
			want:   "encoded-1",
		},
		{
			name:   "search returns first result",
			result: &lavalink.LoadResult{Data: lavalink.Search{other, track}},
			want:   "encoded-2",
		},
		{
			name:    "empty playlist",
			result:  &lavalink.LoadResult{Data: lavalink.Playlist{}},
			wantErr: true,
		},
		{
			name:    "empty result",
			result:  &lavalink.LoadResult{Data: lavalink.Empty{}},
			wantErr: true,
		},
		{
			name:    "exception",
			result:  &lavalink.LoadResult{Data: lavalink.Exception{Message: "no such file"}},
			wantErr: true,
		},
		{
			name:    "nil result",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstTrack(tt.result)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Encoded != tt.want {
				t.Errorf("expected track %q, got %q", tt.want, got.Encoded)
			}
		})
	}
}

func TestFirstTrack_EmptyResult_IsNothingLoaded(t *testing.T) {
	_, err := firstTrack(&lavalink.LoadResult{Data: lavalink.Empty{}})
	if !errors.Is(err, ErrNothingLoaded) {
		t.Errorf("expected ErrNothingLoaded, got %v", err)
	}
}

func TestLavalinkDurationConversion(t *testing.T) {
	if got := toLavalinkDuration(1500 * time.Millisecond); got != lavalink.Duration(1500) {
		t.Errorf("toLavalinkDuration(1.5s) = %v, want 1500", got)
	}
	if got := toLavalinkDuration(-time.Second); got != 0 {
		t.Errorf("toLavalinkDuration(-1s) = %v, want 0", got)
	}
	if got := fromLavalinkDuration(lavalink.Duration(2500)); got != 2500*time.Millisecond {
		t.Errorf("fromLavalinkDuration(2500) = %v, want 2.5s", got)
	}
}

func TestToLavalinkVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  int
	}{
		{level: 0, want: 0},
		{level: 0.5, want: 50},
		{level: 0.333, want: 33},
		{level: 1, want: 100},
		{level: 3, want: 100},
		{level: -1, want: 0},
	}

	for _, tt := range tests {
		if got := toLavalinkVolume(tt.level); got != tt.want {
			t.Errorf("toLavalinkVolume(%v) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestVoiceHandshake_CompletesWhenBothEventsArrive(t *testing.T) {
	var h voiceHandshake
	ready := h.expect()

	channelID := snowflake.ID(123456789)
	if h.setServer("token", "endpoint") {
		t.Fatal("expected handshake to be incomplete after server update only")
	}
	if !h.setState(&channelID, "session") {
		t.Fatal("expected handshake to complete after both updates")
	}

	select {
	case <-ready:
	default:
		t.Error("expected ready channel to be closed")
	}

	gotChannel, sessionID, token, endpoint := h.take()
	if gotChannel == nil || *gotChannel != channelID {
		t.Errorf("expected channel %v, got %v", channelID, gotChannel)
	}
	if sessionID != "session" || token != "token" || endpoint != "endpoint" {
		t.Errorf("unexpected handshake data: %q %q %q", sessionID, token, endpoint)
	}

	// After take, a new pair is required.
	if h.setServer("token", "endpoint") {
		t.Error("expected handshake to reset after take")
	}
}

func TestTrackLoop_Replays(t *testing.T) {
	const maxPlays = 10

	tests := []struct {
		name        string
		loops       int
		wantReplays int
	}{
		{name: "no loops plays once", loops: 0, wantReplays: 0},
		{name: "one loop replays once", loops: 1, wantReplays: 1},
		{name: "several loops", loops: 3, wantReplays: 3},
		{name: "infinite loops never stop", loops: domain.InfiniteLoops, wantReplays: maxPlays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := lavalink.Track{Encoded: "chime"}
			var loop trackLoop
			loop.begin(track, tt.loops)

			replays := 0
			for range maxPlays {
				next, ok := loop.next()
				if !ok {
					break
				}
				if next.Encoded != track.Encoded {
					t.Fatalf("expected replay of %q, got %q", track.Encoded, next.Encoded)
				}
				replays++
			}

			if replays != tt.wantReplays {
				t.Errorf("expected %d replays, got %d", tt.wantReplays, replays)
			}
			if tt.loops != domain.InfiniteLoops && loop.current != nil {
				t.Error("expected finished loop to forget its track")
			}
		})
	}
}

func TestTrackLoop_SetLoops(t *testing.T) {
	t.Run("restarts count for current track", func(t *testing.T) {
		var loop trackLoop
		loop.begin(lavalink.Track{Encoded: "chime"}, 0)

		loop.setLoops(2)

		for i := range 2 {
			if _, ok := loop.next(); !ok {
				t.Fatalf("expected replay %d", i+1)
			}
		}
		if _, ok := loop.next(); ok {
			t.Error("expected no third replay")
		}
	})

	t.Run("idle loop stays idle", func(t *testing.T) {
		var loop trackLoop
		loop.setLoops(5)

		if _, ok := loop.next(); ok {
			t.Error("expected no replay without a track")
		}
	})
}

func TestLavalinkEngine_NextLoop_AfterStopIsDone(t *testing.T) {
	e := &LavalinkEngine{}
	e.loop.begin(lavalink.Track{Encoded: "chime"}, domain.InfiniteLoops)

	if _, ok := e.nextLoop(); !ok {
		t.Fatal("expected infinite loop to replay")
	}

	e.loop.clear()

	if _, ok := e.nextLoop(); ok {
		t.Error("expected stopped track not to replay")
	}
	if e.loop.current != nil {
		t.Error("expected stop to clear the current track")
	}
}
