package command

import (
	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/music/player"
	"github.com/xuanbachtran02/MusicCat/internal/storage"
)

type Command interface {
	Name() string
	Description() string
	Category() string
	SlashDefinition() *discordgo.ApplicationCommand
	Run(ctx interface{}) error
}

// SlashContext is handed to every slash command invocation. Commands reach
// the playback core only through these fields.
type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Players *player.Service
	Storage *storage.Storage
}
