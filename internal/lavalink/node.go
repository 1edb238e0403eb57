// Package lavalink adapts a Lavalink v4 node to the playback core's audio
// contract. Control flows over REST; lifecycle events arrive on the node's
// websocket. Voice credentials come from the Discord gateway and are
// forwarded to the node before a guild's player can start.
package lavalink

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"
	"github.com/xuanbachtran02/MusicCat/internal/music/audio"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
	"github.com/xuanbachtran02/MusicCat/internal/version"
)

const (
	handshakeTimeout = 10 * time.Second
	reconnectMax     = 30 * time.Second
	eventBuffer      = 64
)

// VoiceGateway moves the bot between voice channels on the Discord gateway.
// The Discord bot implements it; joining with an empty channel id leaves.
type VoiceGateway interface {
	JoinVoice(guildID, channelID string) error
	LeaveVoice(guildID string) error
}

// guildPlayer is the node-side view of one guild.
type guildPlayer struct {
	state     audio.PlayerState
	channelID string
	voice     wireVoice

	// pending holds a play issued before Discord delivered the voice
	// credentials; it is flushed as soon as the triple completes.
	pending *track.Track
}

// Node is the Lavalink adapter. It implements audio.Controller, audio.Loader,
// and audio.Emitter.
type Node struct {
	baseURL  string
	wsURL    string
	password string
	userID   string
	gateway  VoiceGateway
	http     *http.Client

	mu        sync.RWMutex
	sessionID string
	players   map[string]*guildPlayer

	handlersMu sync.Mutex
	handlers   []audio.Handler
	events     chan audio.Event
}

// Config holds the Node dependencies.
type Config struct {
	Addr     string       // required, host:port of the node
	Password string       // required
	UserID   string       // required, the bot's Discord user id
	Gateway  VoiceGateway // required
	HTTP     *http.Client // optional
}

func New(cfg *Config) *Node {
	if cfg.Addr == "" {
		panic("lavalink: node address is required")
	}
	if cfg.Password == "" {
		panic("lavalink: node password is required")
	}
	if cfg.UserID == "" {
		panic("lavalink: bot user id is required")
	}
	if cfg.Gateway == nil {
		panic("lavalink: voice gateway is required")
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Node{
		baseURL:  "http://" + cfg.Addr,
		wsURL:    "ws://" + cfg.Addr + "/v4/websocket",
		password: cfg.Password,
		userID:   cfg.UserID,
		gateway:  cfg.Gateway,
		http:     httpClient,
		players:  make(map[string]*guildPlayer),
		events:   make(chan audio.Event, eventBuffer),
	}
}

// OnEvent registers a lifecycle event handler. Call before Run.
func (n *Node) OnEvent(h audio.Handler) {
	n.handlersMu.Lock()
	defer n.handlersMu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Run connects the event websocket and keeps it connected until ctx ends.
// Handlers run on a dedicated dispatch goroutine so a slow handler never
// stalls the socket read loop.
func (n *Node) Run(ctx context.Context) error {
	go n.dispatchLoop(ctx)

	backoff := time.Second
	for {
		if err := n.readSocket(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[WARN] Audio node socket lost: %v, reconnecting in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (n *Node) readSocket(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", n.password)
	header.Set("User-Id", n.userID)
	header.Set("Client-Name", version.AppName+"/"+version.Version)
	if sessionID := n.currentSessionID(); sessionID != "" {
		header.Set("Session-Id", sessionID)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, n.wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		n.handleMessage(msg)
	}
}

func (n *Node) handleMessage(msg wsMessage) {
	switch msg.Op {
	case "ready":
		n.mu.Lock()
		n.sessionID = msg.SessionID
		n.mu.Unlock()
		log.Printf("[INFO] Audio node session ready (resumed=%t)", msg.Resumed)

	case "event":
		n.handleEvent(msg)
	}
}

func (n *Node) handleEvent(msg wsMessage) {
	var t *track.Track
	if msg.Track != nil {
		desc := msg.Track.descriptor()
		t = &desc
	}

	switch msg.Type {
	case "TrackStartEvent":
		n.setState(msg.GuildID, audio.StatePlaying)
		n.emit(audio.Event{Type: audio.EventTrackStart, GuildID: msg.GuildID, Track: t})

	case "TrackEndEvent":
		n.setState(msg.GuildID, audio.StateConnected)
		n.emit(audio.Event{
			Type: audio.EventTrackEnd, GuildID: msg.GuildID, Track: t,
			Reason: audio.EndReason(msg.Reason),
		})

	case "TrackExceptionEvent":
		message := "unknown playback error"
		if msg.Exception != nil {
			message = msg.Exception.Message
		}
		n.emit(audio.Event{
			Type: audio.EventTrackException, GuildID: msg.GuildID, Track: t,
			Message: message,
		})

	case "WebSocketClosedEvent":
		// 4014 is Discord kicking the bot out of the channel.
		if msg.ByRemote && msg.Code == 4014 {
			n.dropPlayer(msg.GuildID)
			n.emit(audio.Event{Type: audio.EventDisconnected, GuildID: msg.GuildID})
		}
	}
}

func (n *Node) emit(ev audio.Event) {
	select {
	case n.events <- ev:
	default:
		log.Printf("[WARN] Audio event buffer full, dropping %v for guild %s", ev.Type, ev.GuildID)
	}
}

func (n *Node) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.events:
			n.handlersMu.Lock()
			handlers := n.handlers
			n.handlersMu.Unlock()
			for _, h := range handlers {
				h(ev)
			}
		}
	}
}

// Connect moves the bot into the voice channel. The node player becomes
// usable once Discord delivers the voice credentials.
func (n *Node) Connect(_ context.Context, guildID, channelID string) error {
	n.mu.Lock()
	p := n.ensurePlayer(guildID)
	if p.state != audio.StateDisconnected && p.channelID == channelID {
		n.mu.Unlock()
		return nil
	}
	p.channelID = channelID
	if p.state == audio.StateDisconnected {
		p.state = audio.StateConnected
	}
	n.mu.Unlock()

	if err := n.gateway.JoinVoice(guildID, channelID); err != nil {
		n.dropPlayer(guildID)
		return mcerr.External("failed to join voice channel", err)
	}
	return nil
}

// Disconnect releases the guild's player and leaves the voice channel.
func (n *Node) Disconnect(ctx context.Context, guildID string) error {
	if err := n.destroyPlayer(ctx, guildID); err != nil {
		log.Printf("[WARN] Failed to destroy node player for guild %s: %v", guildID, err)
	}
	n.dropPlayer(guildID)
	return n.gateway.LeaveVoice(guildID)
}

// Play starts the track on the guild's player. When the voice credentials
// have not arrived yet the track is parked and flushed on arrival.
func (n *Node) Play(ctx context.Context, guildID string, t track.Track) error {
	if t.Encoded == "" {
		return mcerr.Validation("track has no encoded payload").WithMeta("track_id", t.ID)
	}

	n.mu.Lock()
	p := n.ensurePlayer(guildID)
	if !p.voice.complete() {
		parked := t
		p.pending = &parked
		n.mu.Unlock()
		return nil
	}
	voice := p.voice
	n.mu.Unlock()

	encoded := t.Encoded
	err := n.updatePlayer(ctx, guildID, playerUpdate{
		Track: &playerTrack{Encoded: &encoded},
		Voice: &voice,
	})
	if err != nil {
		return err
	}
	n.setState(guildID, audio.StatePlaying)
	return nil
}

func (n *Node) SetPaused(ctx context.Context, guildID string, paused bool) error {
	if err := n.updatePlayer(ctx, guildID, playerUpdate{Paused: &paused}); err != nil {
		return err
	}
	if paused {
		n.setState(guildID, audio.StatePaused)
	} else {
		n.setState(guildID, audio.StatePlaying)
	}
	return nil
}

// Stop halts playback but keeps the player and voice connection.
func (n *Node) Stop(ctx context.Context, guildID string) error {
	err := n.updatePlayer(ctx, guildID, playerUpdate{Track: &playerTrack{Encoded: nil}})
	if err != nil {
		return err
	}
	n.setState(guildID, audio.StateConnected)
	return nil
}

func (n *Node) Seek(ctx context.Context, guildID string, position time.Duration) error {
	ms := position.Milliseconds()
	return n.updatePlayer(ctx, guildID, playerUpdate{Position: &ms})
}

func (n *Node) State(guildID string) audio.PlayerState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if p, ok := n.players[guildID]; ok {
		return p.state
	}
	return audio.StateDisconnected
}

// OnVoiceSession records the bot's voice session id from a gateway voice
// state update. An empty session id means the bot left the channel.
func (n *Node) OnVoiceSession(guildID, sessionID string) {
	if sessionID == "" {
		return
	}
	n.mu.Lock()
	p := n.ensurePlayer(guildID)
	p.voice.SessionID = sessionID
	ready := p.voice.complete()
	n.mu.Unlock()
	if ready {
		n.flushVoice(guildID)
	}
}

// OnVoiceServer records the voice server credentials from the gateway and
// pushes them to the node.
func (n *Node) OnVoiceServer(guildID, token, endpoint string) {
	n.mu.Lock()
	p := n.ensurePlayer(guildID)
	p.voice.Token = token
	p.voice.Endpoint = endpoint
	ready := p.voice.complete()
	n.mu.Unlock()
	if ready {
		n.flushVoice(guildID)
	}
}

// flushVoice sends the completed credential triple to the node, together
// with any track parked while the handshake was in flight.
func (n *Node) flushVoice(guildID string) {
	n.mu.Lock()
	p, ok := n.players[guildID]
	if !ok || !p.voice.complete() {
		n.mu.Unlock()
		return
	}
	voice := p.voice
	pending := p.pending
	p.pending = nil
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	upd := playerUpdate{Voice: &voice}
	if pending != nil {
		encoded := pending.Encoded
		upd.Track = &playerTrack{Encoded: &encoded}
	}
	if err := n.updatePlayer(ctx, guildID, upd); err != nil {
		log.Printf("[ERR] Failed to push voice update for guild %s: %v", guildID, err)
		return
	}
	if pending != nil {
		n.setState(guildID, audio.StatePlaying)
	}
}

func (n *Node) currentSessionID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sessionID
}

// ensurePlayer returns the guild's player, creating it disconnected. Caller
// holds n.mu.
func (n *Node) ensurePlayer(guildID string) *guildPlayer {
	if p, ok := n.players[guildID]; ok {
		return p
	}
	p := &guildPlayer{state: audio.StateDisconnected}
	n.players[guildID] = p
	return p
}

func (n *Node) setState(guildID string, state audio.PlayerState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p, ok := n.players[guildID]; ok {
		p.state = state
	}
}

func (n *Node) dropPlayer(guildID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.players, guildID)
}
