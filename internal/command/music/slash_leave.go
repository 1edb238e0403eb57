package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type LeaveCommand struct{}

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Description() string { return "Disconnect and forget the queue" }
func (c *LeaveCommand) Category() string    { return categoryMusic }

func (c *LeaveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *LeaveCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	cctx, cancel := opCtx()
	defer cancel()

	if err := slash.Players.Leave(cctx, slash.Event.GuildID); err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, "👋 Left the voice channel.")
}

func init() {
	command.Register(command.WithGuildOnly(&LeaveCommand{}))
}
