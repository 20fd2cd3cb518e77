package bot

import "github.com/bwmarrin/discordgo"

// Responder answers a single Discord interaction.
type Responder interface {
	Respond(response *discordgo.InteractionResponse) error
}

// DiscordResponder answers through a live session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a DiscordResponder for the interaction.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends response via the interaction callback endpoint.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	return r.session.InteractionRespond(r.interaction, response)
}

// MockResponder records responses instead of sending them.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	Responses    []*discordgo.InteractionResponse
	Err          error
}

// Respond records response and returns m.Err.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	m.Responses = append(m.Responses, response)
	return m.Err
}
