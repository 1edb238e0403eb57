// Package audio defines the contract the playback core holds with the audio
// node. The node owns decoding, mixing, and the voice transport; the core
// only issues control commands and consumes lifecycle events.
package audio

import (
	"context"
	"time"

	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// PlayerState is the node-side connection state for one guild.
type PlayerState int

const (
	StateDisconnected PlayerState = iota
	StateConnected
	StatePlaying
	StatePaused
)

func (s PlayerState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "disconnected"
	}
}

// Controller issues playback commands against the node. Implementations must
// be safe for concurrent use across guilds.
type Controller interface {
	Connect(ctx context.Context, guildID, channelID string) error
	Disconnect(ctx context.Context, guildID string) error
	Play(ctx context.Context, guildID string, t track.Track) error
	SetPaused(ctx context.Context, guildID string, paused bool) error
	Stop(ctx context.Context, guildID string) error
	Seek(ctx context.Context, guildID string, position time.Duration) error
	State(guildID string) PlayerState
}

// LoadType tells the caller how the node interpreted a load identifier.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// LoadResult is the outcome of resolving an identifier on the node.
type LoadResult struct {
	Type   LoadType
	Tracks []track.Track
}

// Loader resolves a query or URI into playable tracks on the node.
type Loader interface {
	LoadTracks(ctx context.Context, identifier string) (LoadResult, error)
}

// EventType enumerates node lifecycle events.
type EventType int

const (
	EventTrackStart EventType = iota
	EventTrackEnd
	EventTrackException
	EventDisconnected
)

// EndReason is the node's reason for a track ending.
type EndReason string

const (
	EndReasonFinished   EndReason = "finished"
	EndReasonLoadFailed EndReason = "loadFailed"
	EndReasonStopped    EndReason = "stopped"
	EndReasonReplaced   EndReason = "replaced"
	EndReasonCleanup    EndReason = "cleanup"
)

// MayStartNext reports whether the node expects the next track to start.
// Stops and replacements already carry their own follow-up command, so only
// natural completions and load failures advance the queue.
func (r EndReason) MayStartNext() bool {
	return r == EndReasonFinished || r == EndReasonLoadFailed
}

// Event is an asynchronous lifecycle notification from the node.
type Event struct {
	Type    EventType
	GuildID string
	Track   *track.Track
	Reason  EndReason // set for EventTrackEnd
	Message string    // set for EventTrackException
}

// Handler consumes node events. Handlers run on the node's read loop and
// must not block indefinitely.
type Handler func(Event)

// Emitter registers event handlers. Registration happens at startup, before
// the node starts delivering events.
type Emitter interface {
	OnEvent(Handler)
}
