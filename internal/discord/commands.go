package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/command"
)

// registerCommands overwrites the guild's slash commands with the local
// registry. Bulk overwrite keeps Discord's view and ours in sync without
// tracking per-command diffs.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	defs := buildCommandDefinitions()
	if _, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, defs); err != nil {
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}
	log.Printf("[INFO] [%s] Registered %d slash command(s)", guildID, len(defs))
	return nil
}

func buildCommandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range command.All() {
		defs = append(defs, c.SlashDefinition())
	}
	return defs
}

func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("resolve application id: %w", err)
	}
	return u.ID, nil
}
