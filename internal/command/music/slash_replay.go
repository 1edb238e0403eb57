package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type ReplayCommand struct{}

func (c *ReplayCommand) Name() string        { return "replay" }
func (c *ReplayCommand) Description() string { return "Restart the current track from the top" }
func (c *ReplayCommand) Category() string    { return categoryMusic }

func (c *ReplayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *ReplayCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	cctx, cancel := opCtx()
	defer cancel()

	replayed, err := slash.Players.Replay(cctx, slash.Event.GuildID)
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, "🔄 Replaying "+trackLine(*replayed))
}

func init() {
	command.Register(command.WithGuildOnly(&ReplayCommand{}))
}
