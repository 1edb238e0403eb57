package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

type SeekCommand struct{}

func (c *SeekCommand) Name() string        { return "seek" }
func (c *SeekCommand) Description() string { return "Jump to a position in the current track" }
func (c *SeekCommand) Category() string    { return categoryMusic }

func (c *SeekCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "position",
				Description: "Target position as minutes:seconds, e.g. 2:05",
				Required:    true,
			},
		},
	}
}

func (c *SeekCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	cctx, cancel := opCtx()
	defer cancel()

	pos, err := slash.Players.Seek(cctx, slash.Event.GuildID, stringOption(slash.Event, "position"))
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	return command.Respond(slash.Session, slash.Event, "⏩ Jumped to "+fmtDuration(pos))
}

func init() {
	command.Register(command.WithGuildOnly(&SeekCommand{}))
}
