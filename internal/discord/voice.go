package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/xuanbachtran02/MusicCat/internal/music/occupancy"
)

// UserVoiceChannel reports the voice channel the user currently occupies.
// Implements the player service's voice state lookup.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, bool) {
	g, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// JoinVoice asks the gateway to move the bot into the channel. The voice
// credentials come back asynchronously and are forwarded to the audio node.
// Implements the node's voice gateway.
func (b *Bot) JoinVoice(guildID, channelID string) error {
	return b.dg.ChannelVoiceJoinManual(guildID, channelID, false, true)
}

// LeaveVoice drops the bot out of voice in the guild.
func (b *Bot) LeaveVoice(guildID string) error {
	return b.dg.ChannelVoiceJoinManual(guildID, "", false, true)
}

func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if b.react == nil {
		return
	}
	botID := s.State.User.ID

	if e.UserID == botID {
		b.node.OnVoiceSession(e.GuildID, e.SessionID)
		if e.ChannelID == "" {
			// Kicked, moved out, or the channel vanished under us.
			b.react.OnForceDisconnect(e.GuildID)
		}
		return
	}

	botChannel, ok := b.UserVoiceChannel(e.GuildID, botID)
	if !ok {
		return
	}

	members := b.voiceMembers(e.GuildID)
	cur := occupancy.Snapshot{
		UserID:    e.UserID,
		ChannelID: e.ChannelID,
		SelfDeaf:  e.SelfDeaf,
		Members:   members,
	}
	prev := cur
	if e.BeforeUpdate != nil {
		prev = occupancy.Snapshot{
			UserID:    e.UserID,
			ChannelID: e.BeforeUpdate.ChannelID,
			SelfDeaf:  e.BeforeUpdate.SelfDeaf,
			Members:   members,
		}
	}

	b.react.OnVoicePresence(e.GuildID, prev, cur, botID, botChannel)
}

func (b *Bot) onVoiceServerUpdate(_ *discordgo.Session, e *discordgo.VoiceServerUpdate) {
	if b.node == nil {
		return
	}
	log.Printf("[INFO] Voice server update for guild %s (%s)", e.GuildID, e.Endpoint)
	b.node.OnVoiceServer(e.GuildID, e.Token, e.Endpoint)
}

// voiceMembers snapshots who sits where in the guild's voice channels.
func (b *Bot) voiceMembers(guildID string) []occupancy.Member {
	g, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil
	}
	members := make([]occupancy.Member, 0, len(g.VoiceStates))
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == "" {
			continue
		}
		members = append(members, occupancy.Member{UserID: vs.UserID, ChannelID: vs.ChannelID})
	}
	return members
}
