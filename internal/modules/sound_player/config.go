package sound_player

import (
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// Supported engine backends.
const (
	BackendLocal    = "local"
	BackendLavalink = "lavalink"
)

// Config holds the sound player module configuration.
type Config struct {
	Backend     string `env:"SOUND_PLAYER_BACKEND"      envDefault:"local"`
	Platform    string `env:"SOUND_PLAYER_PLATFORM"     envDefault:"ios"`
	SoundDir    string `env:"SOUND_PLAYER_SOUND_DIR"    envDefault:"sounds"`
	EventBuffer int    `env:"SOUND_PLAYER_EVENT_BUFFER" envDefault:"100"`

	// Required for the lavalink backend.
	LavalinkAddress  string `env:"LAVALINK_ADDRESS"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD"`
	GuildID          string `env:"SOUND_PLAYER_GUILD_ID"`
}

// Validate checks values the env tags cannot express.
func (c *Config) Validate() error {
	if _, err := domain.ParsePlatform(c.Platform); err != nil {
		return err
	}

	if c.EventBuffer <= 0 {
		return fmt.Errorf("SOUND_PLAYER_EVENT_BUFFER must be positive, got %d", c.EventBuffer)
	}

	switch c.Backend {
	case BackendLocal:
		return nil
	case BackendLavalink:
		var errs []error
		if c.LavalinkAddress == "" {
			errs = append(errs, errors.New("LAVALINK_ADDRESS is required for the lavalink backend"))
		}
		if c.LavalinkPassword == "" {
			errs = append(errs, errors.New("LAVALINK_PASSWORD is required for the lavalink backend"))
		}
		if _, err := snowflake.Parse(c.GuildID); err != nil {
			errs = append(errs, fmt.Errorf("SOUND_PLAYER_GUILD_ID must be a guild ID: %w", err))
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("unknown SOUND_PLAYER_BACKEND %q", c.Backend)
	}
}
