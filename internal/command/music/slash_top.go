package music

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

const topLimit = 10

type TopCommand struct{}

func (c *TopCommand) Name() string        { return "top" }
func (c *TopCommand) Description() string { return "Show this guild's most streamed tracks" }
func (c *TopCommand) Category() string    { return categoryMusic }

func (c *TopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *TopCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	top, err := slash.Storage.TopTracks(slash.Event.GuildID, topLimit)
	if err != nil {
		return command.RespondEphemeral(slash.Session, slash.Event, "⚠️ Could not read the play history.")
	}
	if len(top) == 0 {
		return command.RespondEphemeral(slash.Session, slash.Event, "📊 Nothing has been played here yet.")
	}

	var b strings.Builder
	for i, st := range top {
		plays := "plays"
		if st.StreamCount == 1 {
			plays = "play"
		}
		fmt.Fprintf(&b, "%d. [%s](%s) by %s: %d %s\n", i+1, st.Title, st.URI, st.Author, st.StreamCount, plays)
	}

	return command.RespondEmbed(slash.Session, slash.Event, &discordgo.MessageEmbed{
		Title:       "Most streamed",
		Description: b.String(),
		Color:       command.EmbedColor,
	})
}

func init() {
	command.Register(command.WithGuildOnly(&TopCommand{}))
}
