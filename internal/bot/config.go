package bot

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	// Registers commands in a single guild instead of globally when set.
	CommandGuildID string `env:"DISCORD_COMMAND_GUILD_ID"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn" or "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
