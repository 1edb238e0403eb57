// Package session owns the per-guild playback state and the registry that
// maps guilds to sessions. All mutation goes through Run, which serializes
// commands and events for one guild while leaving other guilds independent.
package session

import (
	"errors"
	"sync"

	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// ErrClosed is returned by Run after the session has been destroyed. Callers
// holding a stale session pointer drop their work when they see it.
var ErrClosed = errors.New("session closed")

// Session is the state for one guild with an active or recently active
// player. Fields are only touched from inside Run.
type Session struct {
	GuildID string

	VoiceChannelID string
	TextChannelID  string
	RequesterID    string

	Loop     track.LoopMode
	Autoplay bool

	// PausedByDeafen marks a pause that came from the lone listener
	// deafening; only such pauses are undone when they undeafen.
	PausedByDeafen bool

	LastPlayed *track.Track
	Current    *track.Track
	Queue      track.Queue

	mu     sync.Mutex
	closed bool
}

func newSession(guildID string) *Session {
	return &Session{GuildID: guildID}
}

// Run executes fn with exclusive access to the session. Calls for the same
// guild apply one at a time in arrival order; a call that suspends on a
// network round trip inside fn still blocks the next call for this guild
// and no other. Returns ErrClosed if the session was destroyed.
func (s *Session) Run(fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fn(s)
	return nil
}

// close marks the session dead and clears its state. Called by the registry
// under the session lock's own acquisition.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.Queue.Clear()
	s.Loop = track.LoopNone
	s.Autoplay = false
	s.PausedByDeafen = false
	s.Current = nil
	s.LastPlayed = nil
	s.VoiceChannelID = ""
	s.TextChannelID = ""
}

// Registry maps guild ids to sessions. It is the only owner of session
// lifetimes; nothing else creates or destroys sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the guild's session, creating a fresh one with default
// state (no loop, autoplay off, empty queue) on first use.
func (r *Registry) GetOrCreate(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := newSession(guildID)
	r.sessions[guildID] = s
	return s
}

// Get is a non-creating lookup.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Destroy removes and discards the guild's session. Idempotent. In-flight
// work holding the old pointer gets ErrClosed from Run.
func (r *Registry) Destroy(guildID string) {
	r.mu.Lock()
	s, ok := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if ok {
		s.close()
	}
}
