package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendEvent posts a playback event to the channel.
	SendEvent(channelID snowflake.ID, event domain.Event) error

	// SendError sends an error message embed to the channel.
	SendError(channelID snowflake.ID, message string) error
}
