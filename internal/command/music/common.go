// Package music is the slash command surface for playback. Commands parse
// interaction options, call the player service, and render the result; all
// business preconditions live behind the service.
package music

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

const categoryMusic = "🎵 Music"

const opTimeout = 15 * time.Second

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// option returns the named interaction option, or nil.
func option(e *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(e *discordgo.InteractionCreate, name string) string {
	if opt := option(e, name); opt != nil {
		return opt.StringValue()
	}
	return ""
}

func boolOption(e *discordgo.InteractionCreate, name string) bool {
	if opt := option(e, name); opt != nil {
		return opt.BoolValue()
	}
	return false
}

func fmtDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func trackLine(t track.Track) string {
	if t.URI != "" {
		return fmt.Sprintf("[%s](%s) by %s", t.Title, t.URI, t.Author)
	}
	return fmt.Sprintf("%s by %s", t.Title, t.Author)
}

func nowPlayingEmbed(t track.Track) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Now playing",
		Description: trackLine(t),
		Color:       command.EmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Duration " + fmtDuration(t.Duration),
		},
	}
}
