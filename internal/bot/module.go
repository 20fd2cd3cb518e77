package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler answers one application command through r.
// A returned error is logged and reported to the user by the bot.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is any function accepted by discordgo's Session.AddHandler,
// such as func(*discordgo.Session, *discordgo.VoiceStateUpdate).
type EventHandler any

// ModuleDependencies is handed to Init. Session is open by then, so
// Session.State.User identifies the bot.
type ModuleDependencies struct {
	Session *discordgo.Session
}

// Module is a feature the bot hosts. The bot drives it through
// LoadConfig (if implemented), Init, handler registration and Shutdown,
// in that order; Shutdown runs in reverse registration order.
type Module interface {
	// Name must be unique across registered modules.
	Name() string

	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers is keyed by top-level command name.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers is read after Init.
	EventHandlers() []EventHandler

	Init(deps ModuleDependencies) error

	Shutdown() error
}

// ConfigurableModule reads its configuration before the gateway is opened,
// so a bad environment fails startup without connecting.
type ConfigurableModule interface {
	LoadConfig() error
}
