package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// Embed colors.
const (
	colorGreen  = 0x2ECC71
	colorOrange = 0xE67E22
	colorRed    = 0xE74C3C
)

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)

// Notifier posts playback events to Discord channels.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// SendEvent posts an embed describing event to the channel.
func (n *Notifier) SendEvent(channelID snowflake.ID, event domain.Event) error {
	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), eventEmbed(event))
	return err
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

func eventEmbed(event domain.Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: eventTitle(event.Category),
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Success",
				Value:  fmt.Sprintf("%t", event.Success),
				Inline: true,
			},
		},
	}

	switch {
	case !event.Success:
		embed.Color = colorRed
	case event.Category == domain.AudioInterrupt:
		embed.Color = colorOrange
	}

	if event.Name != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "File",
			Value:  domain.SoundFile{Name: event.Name, Type: event.Type}.FileName(),
			Inline: true,
		})
	}
	if event.URL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "URL",
			Value: event.URL,
		})
	}

	return embed
}

func eventTitle(category domain.EventCategory) string {
	switch category {
	case domain.FinishedPlaying:
		return "Finished Playing"
	case domain.FinishedLoading:
		return "Finished Loading"
	case domain.AudioInterrupt:
		return "Audio Interrupted"
	case domain.FinishedLoadingFile:
		return "Finished Loading File"
	case domain.FinishedLoadingURL:
		return "Finished Loading URL"
	default:
		return category.String()
	}
}
