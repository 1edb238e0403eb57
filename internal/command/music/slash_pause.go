package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type PauseCommand struct{}

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Category() string    { return categoryMusic }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *PauseCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	cctx, cancel := opCtx()
	defer cancel()

	if err := slash.Players.Pause(cctx, slash.Event.GuildID); err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, "⏸️ Paused.")
}

func init() {
	command.Register(command.WithGuildOnly(&PauseCommand{}))
}
