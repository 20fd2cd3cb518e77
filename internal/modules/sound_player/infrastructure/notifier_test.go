package infrastructure

import (
	"testing"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

func TestEventEmbed(t *testing.T) {
	tests := []struct {
		name       string
		event      domain.Event
		wantTitle  string
		wantColor  int
		wantFields int
	}{
		{
			name:       "successful playback",
			event:      domain.NewEvent(domain.FinishedPlaying, true),
			wantTitle:  "Finished Playing",
			wantColor:  colorGreen,
			wantFields: 1,
		},
		{
			name:       "failed load is red",
			event:      domain.NewEvent(domain.FinishedLoading, false),
			wantTitle:  "Finished Loading",
			wantColor:  colorRed,
			wantFields: 1,
		},
		{
			name:       "interrupt is orange",
			event:      domain.NewEvent(domain.AudioInterrupt, true),
			wantTitle:  "Audio Interrupted",
			wantColor:  colorOrange,
			wantFields: 1,
		},
		{
			name: "file variant shows file name",
			event: domain.Event{
				Category: domain.FinishedLoadingFile,
				Success:  true,
				Name:     "chime",
				Type:     "mp3",
			},
			wantTitle:  "Finished Loading File",
			wantColor:  colorGreen,
			wantFields: 2,
		},
		{
			name: "url variant shows url",
			event: domain.Event{
				Category: domain.FinishedLoadingURL,
				Success:  true,
				URL:      "https://example.com/a.mp3",
			},
			wantTitle:  "Finished Loading URL",
			wantColor:  colorGreen,
			wantFields: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := eventEmbed(tt.event)
			if embed.Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, embed.Title)
			}
			if embed.Color != tt.wantColor {
				t.Errorf("expected color %#x, got %#x", tt.wantColor, embed.Color)
			}
			if len(embed.Fields) != tt.wantFields {
				t.Errorf("expected %d fields, got %d", tt.wantFields, len(embed.Fields))
			}
		})
	}
}

func TestEventEmbed_FileField(t *testing.T) {
	embed := eventEmbed(domain.Event{
		Category: domain.FinishedLoadingFile,
		Success:  true,
		Name:     "chime",
		Type:     "wav",
	})

	if got := embed.Fields[1].Value; got != "chime.wav" {
		t.Errorf("expected file field %q, got %q", "chime.wav", got)
	}
}
