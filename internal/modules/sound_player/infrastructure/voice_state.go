package infrastructure

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/application/ports"
)

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)

// VoiceStateProvider reads voice states from the gateway state cache.
type VoiceStateProvider struct {
	state *discordgo.State
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{state: session.State}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns 0 if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	vs, err := v.state.VoiceState(guildID.String(), userID.String())
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get voice state: %w", err)
	}

	if vs.ChannelID == "" {
		return 0, nil
	}
	return snowflake.Parse(vs.ChannelID)
}
