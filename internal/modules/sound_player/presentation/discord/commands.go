package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/sgrsound/internal/modules/sound_player/domain"
)

// CommandName is the slash command that carries every sound player subcommand.
const CommandName = "sound"

// Commands returns all slash commands for the sound player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandName,
			Description: "Control the sound player",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("play", "Play a sound file", soundOptions()...),
				subcommand("play-delayed", "Play a sound file after a delay",
					append(soundOptions(), &discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionNumber,
						Name:        "delay",
						Description: "Delay in seconds",
						Required:    true,
						MinValue:    floatPtr(0),
					})...,
				),
				subcommand("load", "Load a sound file without playing it", soundOptions()...),
				subcommand("url", "Play a sound from a URL", urlOption()),
				subcommand("load-url", "Load a sound from a URL without playing it", urlOption()),
				subcommand("start", "Start the loaded sound"),
				subcommand("resume", "Resume playback"),
				subcommand("pause", "Pause playback"),
				subcommand("stop", "Stop playback"),
				subcommand("seek", "Seek to a position",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionNumber,
						Name:        "seconds",
						Description: "Position in seconds",
						Required:    true,
						MinValue:    floatPtr(0),
					},
				),
				subcommand("volume", "Set the volume",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionNumber,
						Name:        "level",
						Description: "Volume from 0.0 to 1.0",
						Required:    true,
						MinValue:    floatPtr(0),
						MaxValue:    1,
					},
				),
				subcommand("loops", "Set how many extra times a sound repeats",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "count",
						Description: "Number of loops (-1 repeats forever)",
						Required:    true,
						MinValue:    floatPtr(-1),
					},
				),
				subcommand("speaker", "Route output to the speaker", toggleOption()),
				subcommand("mix", "Mix new sounds with the one playing", toggleOption()),
				subcommand("session", "Start the audio session"),
				subcommand("info", "Show the playback position"),
				subcommand("join", "Join a voice channel",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Voice channel to join (defaults to your current channel)",
						Required:    false,
						ChannelTypes: []discordgo.ChannelType{
							discordgo.ChannelTypeGuildVoice,
							discordgo.ChannelTypeGuildStageVoice,
						},
					},
				),
				subcommand("leave", "Leave the voice channel"),
				subcommand("watch", "Post playback events to this channel", eventOption()),
				subcommand("unwatch", "Stop posting playback events", eventOption()),
			},
		},
	}
}

func subcommand(
	name, description string,
	options ...*discordgo.ApplicationCommandOption,
) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func soundOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: "Sound file name without extension",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "type",
			Description: "File type (defaults to mp3)",
			Required:    false,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "MP3", Value: "mp3"},
				{Name: "WAV", Value: "wav"},
				{Name: "FLAC", Value: "flac"},
			},
		},
	}
}

func urlOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "url",
		Description: "URL of the sound",
		Required:    true,
	}
}

func toggleOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        "on",
		Description: "Enable or disable",
		Required:    true,
	}
}

// eventOption selects a single event category; omitted means every category.
func eventOption() *discordgo.ApplicationCommandOption {
	categories := domain.AllCategories()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(categories))
	for _, category := range categories {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  category.String(),
			Value: category.String(),
		})
	}

	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "event",
		Description: "Only this event (defaults to all events)",
		Required:    false,
		Choices:     choices,
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
