package discord

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/bot"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/usecases"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

const (
	defaultSoundType = "mp3"
	infoTimeout      = 5 * time.Second
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) stringOr(name, fallback string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return fallback
}

func (o options) seconds(name string) time.Duration {
	if opt, ok := o[name]; ok {
		return time.Duration(opt.FloatValue() * float64(time.Second))
	}
	return 0
}

// CommandHandlers holds the /sound command handlers.
type CommandHandlers struct {
	player     *usecases.SoundPlayer
	notifier   ports.NotificationSender
	voiceState ports.VoiceStateProvider
	// nil when the engine does not play into a voice channel
	voice ports.VoiceConnection

	// Listeners for unmanaged categories, owned by the handlers.
	watchMu sync.Mutex
	rawSubs map[domain.EventCategory]ports.Subscription
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	player *usecases.SoundPlayer,
	notifier ports.NotificationSender,
	voiceState ports.VoiceStateProvider,
	voice ports.VoiceConnection,
) *CommandHandlers {
	return &CommandHandlers{
		player:     player,
		notifier:   notifier,
		voiceState: voiceState,
		voice:      voice,
		rawSubs:    make(map[domain.EventCategory]ports.Subscription),
	}
}

// HandleSound handles the /sound command.
func (h *CommandHandlers) HandleSound(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	subCmd := opts[0]
	args := optionMap(subCmd.Options)

	switch subCmd.Name {
	case "play":
		name, fileType := args.stringOr("name", ""), args.stringOr("type", defaultSoundType)
		h.player.PlaySoundFile(name, fileType)
		return respondSuccess(r, fmt.Sprintf("Playing **%s**.", soundLabel(name, fileType)))

	case "play-delayed":
		name, fileType := args.stringOr("name", ""), args.stringOr("type", defaultSoundType)
		delay := args.seconds("delay")
		h.player.PlaySoundFileWithDelay(name, fileType, delay)
		return respondSuccess(r, fmt.Sprintf("Playing **%s** in %s.", soundLabel(name, fileType), delay))

	case "load":
		name, fileType := args.stringOr("name", ""), args.stringOr("type", defaultSoundType)
		h.player.LoadSoundFile(name, fileType)
		return respondSuccess(r, fmt.Sprintf("Loading **%s**.", soundLabel(name, fileType)))

	case "url":
		url := args.stringOr("url", "")
		h.player.PlayURL(url)
		return respondSuccess(r, fmt.Sprintf("Playing <%s>.", url))

	case "load-url":
		url := args.stringOr("url", "")
		h.player.LoadURL(url)
		return respondSuccess(r, fmt.Sprintf("Loading <%s>.", url))

	case "start":
		h.player.Play()
		return respondSuccess(r, "Started.")

	case "resume":
		h.player.Resume()
		return respondSuccess(r, "Resumed.")

	case "pause":
		h.player.Pause()
		return respondSuccess(r, "Paused.")

	case "stop":
		h.player.Stop()
		return respondSuccess(r, "Stopped.")

	case "seek":
		position := args.seconds("seconds")
		h.player.Seek(position)
		return respondSuccess(r, fmt.Sprintf("Seeking to %s.", position))

	case "volume":
		level := args["level"].FloatValue()
		h.player.SetVolume(level)
		return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", int(math.Round(level*100))))

	case "loops":
		count := int(args["count"].IntValue())
		h.player.SetNumberOfLoops(count)
		return respondSuccess(r, loopsDescription(count))

	case "speaker":
		on := args["on"].BoolValue()
		h.player.SetSpeaker(on)
		return respondSuccess(r, fmt.Sprintf("Speaker %s.", onOff(on)))

	case "mix":
		on := args["on"].BoolValue()
		h.player.SetMixAudio(on)
		if !h.player.Platform().SupportsMixAudio() {
			return respondSuccess(r, fmt.Sprintf("Mixing is not available on %s.", h.player.Platform()))
		}
		return respondSuccess(r, fmt.Sprintf("Mixing %s.", onOff(on)))

	case "session":
		h.player.StartSession()
		return respondSuccess(r, "Audio session started.")

	case "info":
		return h.handleInfo(r)

	case "join":
		return h.handleJoin(s, i, r, args)

	case "leave":
		return h.handleLeave(i, r)

	case "watch":
		return h.handleWatch(i, r, args)

	case "unwatch":
		return h.handleUnwatch(r, args)

	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *CommandHandlers) handleInfo(r bot.Responder) error {
	ctx, cancel := context.WithTimeout(context.Background(), infoTimeout)
	defer cancel()

	info, err := h.player.GetInfo(ctx)
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, fmt.Sprintf("`%s`", info.FormattedPosition()))
}

func (h *CommandHandlers) handleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	args options,
) error {
	if h.voice == nil {
		return respondError(r, "This player does not use voice channels")
	}
	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "This command can only be used in a server")
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var channelID snowflake.ID
	if opt, ok := args["channel"]; ok {
		channelID, err = snowflake.Parse(opt.ChannelValue(s).ID)
		if err != nil {
			return respondError(r, "Invalid voice channel")
		}
	} else {
		userID, err := snowflake.Parse(i.Member.User.ID)
		if err != nil {
			return respondError(r, "Invalid user")
		}

		channelID, err = h.voiceState.GetUserVoiceChannel(guildID, userID)
		if err != nil {
			return respondError(r, err.Error())
		}
		if channelID == 0 {
			return respondError(r, "You are not in a voice channel")
		}
	}

	if err := h.voice.JoinChannel(context.Background(), guildID, channelID); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", channelID))
}

func (h *CommandHandlers) handleLeave(i *discordgo.InteractionCreate, r bot.Responder) error {
	if h.voice == nil {
		return respondError(r, "This player does not use voice channels")
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.voice.LeaveChannel(context.Background(), guildID); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Disconnected.")
}

// handleWatch routes playback events to the invoking channel.
// Watching from another channel moves the notifications there. With the
// event option only that category is watched.
func (h *CommandHandlers) handleWatch(i *discordgo.InteractionCreate, r bot.Responder, args options) error {
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid notification channel")
	}

	if _, ok := args["event"]; ok {
		category, ok := domain.ParseEventCategory(args.stringOr("event", ""))
		if !ok {
			return respondError(r, fmt.Sprintf("Unknown event %q", args.stringOr("event", "")))
		}
		h.watch(channelID, category)

		slog.Info("watching playback event", "channel", channelID, "event", category)
		return respondSuccess(r, fmt.Sprintf("Posting %s events to <#%d>.", category, channelID))
	}

	h.player.OnFinishedPlaying(h.notify(channelID, domain.FinishedPlaying))
	h.player.OnFinishedLoading(h.notify(channelID, domain.FinishedLoading))
	h.player.OnAudioInterrupt(h.notify(channelID, domain.AudioInterrupt))
	for _, category := range domain.AllCategories() {
		if !category.IsManaged() {
			h.watch(channelID, category)
		}
	}

	slog.Info("watching playback events", "channel", channelID)

	return respondSuccess(r, fmt.Sprintf("Posting playback events to <#%d>.", channelID))
}

// watch posts events of one category to channelID, replacing any earlier watch.
func (h *CommandHandlers) watch(channelID snowflake.ID, category domain.EventCategory) {
	send := h.send(channelID)
	if category.IsManaged() {
		h.player.Register(category, send)
		return
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()

	if sub, ok := h.rawSubs[category]; ok {
		sub.Release()
	}
	h.rawSubs[category] = h.player.AddEventListener(category, send)
}

func (h *CommandHandlers) handleUnwatch(r bot.Responder, args options) error {
	if _, ok := args["event"]; !ok {
		h.Unwatch()
		return respondSuccess(r, "Stopped posting playback events.")
	}

	category, ok := domain.ParseEventCategory(args.stringOr("event", ""))
	if !ok {
		return respondError(r, fmt.Sprintf("Unknown event %q", args.stringOr("event", "")))
	}
	if !h.unwatch(category) {
		return respondError(r, fmt.Sprintf("Not watching %s events", category))
	}

	return respondSuccess(r, fmt.Sprintf("Stopped posting %s events.", category))
}

// unwatch stops notifications for one category and reports whether any were active.
func (h *CommandHandlers) unwatch(category domain.EventCategory) bool {
	if category.IsManaged() {
		if !h.player.IsRegistered(category) {
			return false
		}
		h.player.Unregister(category)
		return true
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()

	sub, ok := h.rawSubs[category]
	if !ok {
		return false
	}
	sub.Release()
	delete(h.rawSubs, category)
	return true
}

// Unwatch stops all event notifications.
func (h *CommandHandlers) Unwatch() {
	h.player.Unmount()

	h.watchMu.Lock()
	defer h.watchMu.Unlock()

	for category, sub := range h.rawSubs {
		sub.Release()
		delete(h.rawSubs, category)
	}
}

func (h *CommandHandlers) send(channelID snowflake.ID) ports.Handler {
	return func(event domain.Event) {
		if err := h.notifier.SendEvent(channelID, event); err != nil {
			slog.Error("failed to send event notification",
				"channel", channelID,
				"event", event.Category,
				"error", err,
			)
		}
	}
}

func (h *CommandHandlers) notify(channelID snowflake.ID, category domain.EventCategory) func(bool) {
	send := h.send(channelID)
	return func(success bool) {
		send(domain.NewEvent(category, success))
	}
}

func soundLabel(name, fileType string) string {
	return domain.SoundFile{Name: name, Type: fileType}.FileName()
}

func loopsDescription(count int) string {
	switch {
	case count < 0:
		return "Sounds will repeat forever."
	case count == 0:
		return "Sounds will play once."
	case count == 1:
		return "Sounds will repeat once."
	default:
		return fmt.Sprintf("Sounds will repeat %d times.", count)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func respondSuccess(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}
