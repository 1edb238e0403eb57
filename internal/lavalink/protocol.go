package lavalink

import (
	"encoding/json"
	"time"

	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// Wire shapes for the Lavalink v4 REST and websocket protocol.

type wireTrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	SourceName string `json:"sourceName"`
}

type wireTrack struct {
	Encoded string        `json:"encoded"`
	Info    wireTrackInfo `json:"info"`
}

// descriptor translates the node's track into the core's descriptor.
// Streams report seekable on the wire but cannot meaningfully seek.
func (w wireTrack) descriptor() track.Track {
	return track.Track{
		ID:       w.Info.Identifier,
		Title:    w.Info.Title,
		Author:   w.Info.Author,
		URI:      w.Info.URI,
		Duration: time.Duration(w.Info.Length) * time.Millisecond,
		Seekable: w.Info.IsSeekable && !w.Info.IsStream,
		Encoded:  w.Encoded,
	}
}

type wirePlaylist struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
	Tracks []wireTrack `json:"tracks"`
}

type wireException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// loadResponse is the GET /v4/loadtracks envelope; the shape of data depends
// on loadType.
type loadResponse struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

// wsMessage is the superset of websocket ops the node sends. Fields beyond
// op/type are populated per message kind.
type wsMessage struct {
	Op string `json:"op"`

	// op: ready
	SessionID string `json:"sessionId"`
	Resumed   bool   `json:"resumed"`

	// op: event
	Type      string         `json:"type"`
	GuildID   string         `json:"guildId"`
	Track     *wireTrack     `json:"track"`
	Reason    string         `json:"reason"`
	Exception *wireException `json:"exception"`
	Code      int            `json:"code"`
	ByRemote  bool           `json:"byRemote"`
}

// playerUpdate is the PATCH /v4/sessions/{session}/players/{guild} body.
// Nil fields are omitted so each command touches only what it changes.
type playerUpdate struct {
	Track    *playerTrack `json:"track,omitempty"`
	Position *int64       `json:"position,omitempty"`
	Paused   *bool        `json:"paused,omitempty"`
	Voice    *wireVoice   `json:"voice,omitempty"`
	Volume   *int         `json:"volume,omitempty"`
}

// playerTrack carries the encoded track; an explicit null encoded stops the
// player, which is why Encoded is a pointer.
type playerTrack struct {
	Encoded *string `json:"encoded"`
}

// wireVoice is Discord's voice credential triple forwarded to the node.
type wireVoice struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

func (v wireVoice) complete() bool {
	return v.Token != "" && v.Endpoint != "" && v.SessionID != ""
}
