package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
	"github.com/xuanbachtran02/MusicCat/internal/music/player"
)

type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a track or add it to the queue" }
func (c *PlayCommand) Category() string    { return categoryMusic }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "input",
				Description: "YouTube link, playlist, or search query",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "loop",
				Description: "Loop this track",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "autoplay",
				Description: "Keep playing related tracks when the queue ends",
				Required:    false,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}
	session, event := slash.Session, slash.Event

	input := stringOption(event, "input")
	if input == "" {
		return command.RespondEphemeral(session, event, "⚠️ Tell me what to play.")
	}

	// Resolution can blow through the three-second interaction window.
	if err := command.RespondDeferred(session, event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	cctx, cancel := opCtx()
	defer cancel()

	res, err := slash.Players.Play(cctx, event.GuildID, event.Member.User.ID, event.ChannelID, input,
		player.PlayOptions{
			Loop:     boolOption(event, "loop"),
			Autoplay: boolOption(event, "autoplay"),
		})
	if err != nil {
		return command.FollowUp(session, event, command.UserMessage(err))
	}

	if res.Queued {
		return command.FollowUp(session, event,
			fmt.Sprintf("🎵 Queued at position %d: %s", res.Position, trackLine(res.Track)))
	}
	return command.FollowUpEmbed(session, event, nowPlayingEmbed(res.Track))
}

func init() {
	command.Register(command.WithGuildOnly(&PlayCommand{}))
}
