package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type JoinCommand struct{}

func (c *JoinCommand) Name() string        { return "join" }
func (c *JoinCommand) Description() string { return "Summon the bot to your voice channel" }
func (c *JoinCommand) Category() string    { return categoryMusic }

func (c *JoinCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *JoinCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	cctx, cancel := opCtx()
	defer cancel()

	channelID, err := slash.Players.Join(cctx, slash.Event.GuildID, slash.Event.Member.User.ID)
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, fmt.Sprintf("🔊 Joined <#%s>", channelID))
}

func init() {
	command.Register(command.WithGuildOnly(&JoinCommand{}))
}
