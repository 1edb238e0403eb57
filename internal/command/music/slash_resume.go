package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type ResumeCommand struct{}

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume paused playback" }
func (c *ResumeCommand) Category() string    { return categoryMusic }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *ResumeCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	cctx, cancel := opCtx()
	defer cancel()

	if err := slash.Players.Resume(cctx, slash.Event.GuildID); err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, "▶️ Resumed.")
}

func init() {
	command.Register(command.WithGuildOnly(&ResumeCommand{}))
}
