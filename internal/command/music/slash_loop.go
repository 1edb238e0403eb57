package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

type LoopCommand struct{}

func (c *LoopCommand) Name() string        { return "loop" }
func (c *LoopCommand) Description() string { return "Loop the current track, the whole queue, or turn looping off" }
func (c *LoopCommand) Category() string    { return categoryMusic }

func (c *LoopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Loop mode",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "track", Value: "track"},
					{Name: "queue", Value: "queue"},
					{Name: "off", Value: "off"},
				},
			},
		},
	}
}

func (c *LoopCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	var mode track.LoopMode
	switch stringOption(slash.Event, "mode") {
	case "track":
		mode = track.LoopTrack
	case "queue":
		mode = track.LoopQueue
	default:
		mode = track.LoopNone
	}

	applied, err := slash.Players.SetLoop(slash.Event.GuildID, mode)
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	if applied == track.LoopNone {
		return command.Respond(slash.Session, slash.Event, "🔁 Looping off.")
	}
	return command.Respond(slash.Session, slash.Event, fmt.Sprintf("🔁 Looping the %s.", applied))
}

func init() {
	command.Register(command.WithGuildOnly(&LoopCommand{}))
}
