package sound_player

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/bot"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/usecases"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/infrastructure"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/presentation/discord"
)

func init() {
	bot.Register(&SoundPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*SoundPlayerModule)(nil)

// closableEngine is an engine owned by the module.
type closableEngine interface {
	ports.Engine
	Close()
}

// SoundPlayerModule exposes the sound player through the /sound command.
type SoundPlayerModule struct {
	config          *Config
	emitter         *infrastructure.Emitter
	engine          closableEngine
	lavalink        *infrastructure.LavalinkEngine
	player          *usecases.SoundPlayer
	commandHandlers *discord.CommandHandlers
}

// Name returns the module name.
func (m *SoundPlayerModule) Name() string {
	return "sound_player"
}

// Commands returns the slash commands for this module.
func (m *SoundPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *SoundPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.CommandName: m.commandHandlers.HandleSound,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *SoundPlayerModule) EventHandlers() []bot.EventHandler {
	if m.lavalink == nil {
		return nil
	}

	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.lavalink.OnVoiceServerUpdate(event)
		},
		func(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.lavalink.OnVoiceStateUpdate(event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *SoundPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *SoundPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return fmt.Errorf("sound_player module requires a Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	platform, err := domain.ParsePlatform(m.config.Platform)
	if err != nil {
		return err
	}

	m.emitter = infrastructure.NewEmitter(m.config.EventBuffer)

	var voice ports.VoiceConnection
	switch m.config.Backend {
	case BackendLavalink:
		guildID, err := snowflake.Parse(m.config.GuildID)
		if err != nil {
			m.emitter.Close()
			return fmt.Errorf("failed to parse guild ID: %w", err)
		}

		lavalink, err := infrastructure.NewLavalinkEngine(deps.Session, m.emitter, infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			GuildID:  guildID,
			SoundDir: m.config.SoundDir,
		})
		if err != nil {
			m.emitter.Close()
			return err
		}
		m.lavalink = lavalink
		m.engine = lavalink
		voice = lavalink
	default:
		m.engine = infrastructure.NewLocalEngine(m.emitter, m.config.SoundDir)
	}

	m.player = usecases.NewSoundPlayer(m.engine, m.emitter, platform)
	m.commandHandlers = discord.NewCommandHandlers(
		m.player,
		infrastructure.NewNotifier(deps.Session),
		infrastructure.NewVoiceStateProvider(deps.Session),
		voice,
	)

	slog.Info("sound_player module initialized",
		"backend", m.config.Backend,
		"platform", platform,
		"sound_dir", m.config.SoundDir,
	)

	return nil
}

// Shutdown releases subscriptions, then stops the engine and the emitter.
func (m *SoundPlayerModule) Shutdown() error {
	if m.commandHandlers != nil {
		m.commandHandlers.Unwatch()
	}
	if m.engine != nil {
		m.engine.Close()
	}
	if m.emitter != nil {
		m.emitter.Close()
	}
	return nil
}
