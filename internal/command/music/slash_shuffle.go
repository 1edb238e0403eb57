package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type ShuffleCommand struct{}

func (c *ShuffleCommand) Name() string        { return "shuffle" }
func (c *ShuffleCommand) Description() string { return "Shuffle the queue" }
func (c *ShuffleCommand) Category() string    { return categoryMusic }

func (c *ShuffleCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *ShuffleCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	if err := slash.Players.Shuffle(slash.Event.GuildID); err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, "🔀 Queue shuffled.")
}

func init() {
	command.Register(command.WithGuildOnly(&ShuffleCommand{}))
}
