package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type AutoplayCommand struct{}

func (c *AutoplayCommand) Name() string        { return "autoplay" }
func (c *AutoplayCommand) Description() string { return "Toggle playing related tracks when the queue ends" }
func (c *AutoplayCommand) Category() string    { return categoryMusic }

func (c *AutoplayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *AutoplayCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	enabled, err := slash.Players.ToggleAutoplay(slash.Event.GuildID)
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	if enabled {
		return command.Respond(slash.Session, slash.Event, "♾️ Autoplay on.")
	}
	return command.Respond(slash.Session, slash.Event, "♾️ Autoplay off.")
}

func init() {
	command.Register(command.WithGuildOnly(&AutoplayCommand{}))
}
