package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/usecases"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// mockEngine records the engine methods that were called.
type mockEngine struct {
	calls   []string
	args    [][]any
	info    domain.PlaybackInfo
	infoErr error
}

var _ ports.Engine = (*mockEngine)(nil)

func (m *mockEngine) record(method string, args ...any) {
	m.calls = append(m.calls, method)
	m.args = append(m.args, args)
}

func (m *mockEngine) lastCall() (string, []any) {
	if len(m.calls) == 0 {
		return "", nil
	}
	return m.calls[len(m.calls)-1], m.args[len(m.args)-1]
}

func (m *mockEngine) PlaySoundFile(name, fileType string) { m.record("PlaySoundFile", name, fileType) }
func (m *mockEngine) PlaySoundFileWithDelay(name, fileType string, delay time.Duration) {
	m.record("PlaySoundFileWithDelay", name, fileType, delay)
}
func (m *mockEngine) LoadSoundFile(name, fileType string) { m.record("LoadSoundFile", name, fileType) }
func (m *mockEngine) SetNumberOfLoops(loops int)          { m.record("SetNumberOfLoops", loops) }
func (m *mockEngine) PlayURL(url string)                  { m.record("PlayURL", url) }
func (m *mockEngine) LoadURL(url string)                  { m.record("LoadURL", url) }
func (m *mockEngine) StartSession()                       { m.record("StartSession") }
func (m *mockEngine) Resume()                             { m.record("Resume") }
func (m *mockEngine) Pause()                              { m.record("Pause") }
func (m *mockEngine) Stop()                               { m.record("Stop") }
func (m *mockEngine) Seek(position time.Duration)         { m.record("Seek", position) }
func (m *mockEngine) SetVolume(volume float64)            { m.record("SetVolume", volume) }
func (m *mockEngine) SetSpeaker(on bool)                  { m.record("SetSpeaker", on) }
func (m *mockEngine) SetMixAudio(on bool)                 { m.record("SetMixAudio", on) }

func (m *mockEngine) GetInfo(ctx context.Context) (domain.PlaybackInfo, error) {
	m.record("GetInfo")
	return m.info, m.infoErr
}

// mockSubscription is a handle produced by mockEventSource.
type mockSubscription struct {
	category domain.EventCategory
	handler  ports.Handler
	released bool
}

func (s *mockSubscription) Release() { s.released = true }

// mockEventSource delivers events synchronously.
type mockEventSource struct {
	subs []*mockSubscription
}

func (m *mockEventSource) Subscribe(category domain.EventCategory, handler ports.Handler) ports.Subscription {
	sub := &mockSubscription{category: category, handler: handler}
	m.subs = append(m.subs, sub)
	return sub
}

func (m *mockEventSource) emit(event domain.Event) {
	for _, sub := range m.subs {
		if sub.category == event.Category && !sub.released {
			sub.handler(event)
		}
	}
}

func (m *mockEventSource) liveCount() int {
	count := 0
	for _, sub := range m.subs {
		if !sub.released {
			count++
		}
	}
	return count
}

type sentEvent struct {
	channelID snowflake.ID
	event     domain.Event
}

// mockNotifier records notifications.
type mockNotifier struct {
	mu            sync.Mutex
	events        []sentEvent
	errorMessages []string
	err           error
}

func (m *mockNotifier) SendEvent(channelID snowflake.ID, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, sentEvent{channelID: channelID, event: event})
	return m.err
}

func (m *mockNotifier) SendError(channelID snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMessages = append(m.errorMessages, message)
	return m.err
}

// mockVoiceConnection records join and leave requests.
type mockVoiceConnection struct {
	joinedGuild   snowflake.ID
	joinedChannel snowflake.ID
	leftGuild     snowflake.ID
	err           error
}

func (m *mockVoiceConnection) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	m.joinedGuild = guildID
	m.joinedChannel = channelID
	return m.err
}

func (m *mockVoiceConnection) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	m.leftGuild = guildID
	return m.err
}

// mockVoiceStateProvider returns a fixed voice channel.
type mockVoiceStateProvider struct {
	channelID snowflake.ID
	err       error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error) {
	return m.channelID, m.err
}

type testDeps struct {
	engine     *mockEngine
	source     *mockEventSource
	notifier   *mockNotifier
	voice      *mockVoiceConnection
	voiceState *mockVoiceStateProvider
	player     *usecases.SoundPlayer
	handlers   *CommandHandlers
}

func newTestDeps(platform domain.Platform) *testDeps {
	d := &testDeps{
		engine:     &mockEngine{},
		source:     &mockEventSource{},
		notifier:   &mockNotifier{},
		voice:      &mockVoiceConnection{},
		voiceState: &mockVoiceStateProvider{},
	}
	d.player = usecases.NewSoundPlayer(d.engine, d.source, platform)
	d.handlers = NewCommandHandlers(d.player, d.notifier, d.voiceState, d.voice)
	return d
}

const (
	testGuildID   = "111111111111111111"
	testChannelID = "222222222222222222"
	testUserID    = "333333333333333333"
)

// soundInteraction builds a /sound interaction for the given subcommand.
func soundInteraction(
	subcommand string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID,
			ChannelID: testChannelID,
			Member: &discordgo.Member{
				User: &discordgo.User{ID: testUserID},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name: CommandName,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name:    subcommand,
						Type:    discordgo.ApplicationCommandOptionSubCommand,
						Options: options,
					},
				},
			},
		},
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func numberOpt(name string, value float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionNumber,
		Value: value,
	}
}

// Discord delivers integers as JSON numbers, hence float64.
func intOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func boolOpt(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

func channelOpt(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: id,
	}
}

func responseEmbed(r *discordgo.InteractionResponse) *discordgo.MessageEmbed {
	if r == nil || r.Data == nil || len(r.Data.Embeds) == 0 {
		return nil
	}
	return r.Data.Embeds[0]
}
