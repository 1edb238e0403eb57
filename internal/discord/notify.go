package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// Announce posts an autoplay now-playing embed. Fire-and-forget; a missing
// channel or permission problem is logged, never propagated.
func (b *Bot) Announce(channelID string, t track.Track) {
	embed := &discordgo.MessageEmbed{
		Title:       "Autoplay",
		Description: fmt.Sprintf("[%s](%s) by %s", t.Title, t.URI, t.Author),
		Color:       command.EmbedColor,
	}
	if _, err := b.dg.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("[WARN] Failed to announce in channel %s: %v", channelID, err)
	}
}

// Say posts a plain message to a guild text channel. Fire-and-forget.
func (b *Bot) Say(channelID, message string) {
	if _, err := b.dg.ChannelMessageSend(channelID, message); err != nil {
		log.Printf("[WARN] Failed to send message to channel %s: %v", channelID, err)
	}
}

// SetListening shows the playing track in the bot's presence.
func (b *Bot) SetListening(author, title string) {
	if err := b.dg.UpdateListeningStatus(author + " - " + title); err != nil {
		log.Printf("[WARN] Failed to update presence: %v", err)
	}
}

// ClearListening reverts the presence to the idle hint.
func (b *Bot) ClearListening() {
	if err := b.dg.UpdateGameStatus(0, "/play"); err != nil {
		log.Printf("[WARN] Failed to clear presence: %v", err)
	}
}
