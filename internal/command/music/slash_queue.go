package music

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

const queuePageSize = 10

type QueueCommand struct{}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show what is playing and what comes next" }
func (c *QueueCommand) Category() string    { return categoryMusic }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *QueueCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	view, err := slash.Players.Queue(slash.Event.GuildID, queuePageSize)
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, command.UserMessage(err))
	}
	if view.Current == nil && len(view.Next) == 0 {
		return command.RespondEphemeral(slash.Session, slash.Event, "🎵 Nothing is playing and the queue is empty.")
	}

	var b strings.Builder
	if view.Current != nil {
		fmt.Fprintf(&b, "**Now playing**\n%s\n", trackLine(*view.Current))
	}
	if len(view.Next) > 0 {
		b.WriteString("\n**Up next**\n")
		for i, t := range view.Next {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, trackLine(t), fmtDuration(t.Duration))
		}
	}
	if view.Remaining > 0 {
		fmt.Fprintf(&b, "\n…and %d more", view.Remaining)
	}

	return command.RespondEmbed(slash.Session, slash.Event, &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: b.String(),
		Color:       command.EmbedColor,
	})
}

func init() {
	command.Register(command.WithGuildOnly(&QueueCommand{}))
}
