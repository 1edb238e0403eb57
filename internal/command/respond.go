package command

import (
	"github.com/bwmarrin/discordgo"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"
)

const EmbedColor = 0x5865f2

// Respond sends a public message response to an interaction.
func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// RespondEphemeral sends an ephemeral message response to an interaction.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// RespondEmbed sends a public embed response to an interaction.
func RespondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

// RespondDeferred acknowledges an interaction without an immediate reply,
// used before calls that may exceed Discord's three-second window.
func RespondDeferred(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// FollowUp sends a follow-up message after a deferred response.
func FollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content})
	return err
}

// FollowUpEmbed sends a follow-up embed after a deferred response.
func FollowUpEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// UserMessage renders a playback error for the invoking user. User mistakes
// get the plain message; infrastructure failures get a generic line so node
// internals never leak into chat.
func UserMessage(err error) string {
	var e *mcerr.Error
	if !mcerr.As(err, &e) {
		return "⚠️ Something went wrong, try again."
	}
	switch e.Kind {
	case mcerr.KindValidation, mcerr.KindPrecondition, mcerr.KindNotSeekable:
		return "⚠️ " + e.Message
	case mcerr.KindNotFound:
		return "🔍 " + e.Message
	default:
		return "⚠️ The music backend did not cooperate, try again in a moment."
	}
}
