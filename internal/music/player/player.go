// Package player is the command orchestrator: it validates playback commands
// against the guild session and the live player, performs the mutation, and
// returns a result for the command surface to render. Every operation runs
// under the guild's serialized session context.
package player

import (
	"context"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"time"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"
	"github.com/xuanbachtran02/MusicCat/internal/music/audio"
	"github.com/xuanbachtran02/MusicCat/internal/music/search"
	"github.com/xuanbachtran02/MusicCat/internal/music/session"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// VoiceStates reports where users currently sit in voice. The Discord bot
// implements it from its gateway state cache.
type VoiceStates interface {
	UserVoiceChannel(guildID, userID string) (channelID string, ok bool)
}

// Service executes playback commands. Safe for concurrent use; operations
// for the same guild serialize on the session.
type Service struct {
	registry *session.Registry
	node     audio.Controller
	search   search.Resolver
	voice    VoiceStates

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Config holds the Service dependencies.
type Config struct {
	Registry *session.Registry // required
	Node     audio.Controller  // required
	Search   search.Resolver   // required
	Voice    VoiceStates       // required
	Rand     *rand.Rand        // optional, seeded from time when nil
}

func New(cfg *Config) *Service {
	if cfg.Registry == nil {
		panic("player: registry is required")
	}
	if cfg.Node == nil {
		panic("player: node is required")
	}
	if cfg.Search == nil {
		panic("player: search is required")
	}
	if cfg.Voice == nil {
		panic("player: voice states are required")
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		registry: cfg.Registry,
		node:     cfg.Node,
		search:   cfg.Search,
		voice:    cfg.Voice,
		rng:      rng,
	}
}

// Registry exposes the session registry for the event reactor.
func (s *Service) Registry() *session.Registry {
	return s.registry
}

// run executes fn on the guild's session, re-creating the session if it was
// destroyed between lookup and execution. User commands always get a session.
func (s *Service) run(guildID string, fn func(*session.Session)) {
	for {
		if err := s.registry.GetOrCreate(guildID).Run(fn); err == nil {
			return
		}
	}
}

// runExisting executes fn only while the guild session is still alive.
// Internal work issued by the event reactor goes through here so it can
// never revive a session the user already tore down; a missing or closed
// session reports session.ErrClosed.
func (s *Service) runExisting(guildID string, fn func(*session.Session)) error {
	sess, ok := s.registry.Get(guildID)
	if !ok {
		return session.ErrClosed
	}
	return sess.Run(fn)
}

// PlayOptions carries the optional play flags.
type PlayOptions struct {
	Loop     bool // enable track loop alongside the play
	Autoplay bool // enable autoplay alongside the play

	// AutoplaySourced marks an internal play issued by the event reactor's
	// autoplay chain; it keeps the recorded requester untouched.
	AutoplaySourced bool
}

// PlayResult summarizes a successful play call.
type PlayResult struct {
	Track    track.Track
	Queued   bool // false when playback started immediately
	Position int  // 1-based queue position when Queued
}

// QueueView is a read-only snapshot of the guild's queue.
type QueueView struct {
	Current   *track.Track
	Next      []track.Track
	Remaining int // entries beyond Next
}

// Join connects the audio node to the voice channel the user occupies and
// returns the channel id. Idempotent when already connected to that channel;
// moving to another channel while playing keeps the queue.
func (s *Service) Join(ctx context.Context, guildID, userID string) (string, error) {
	channelID, ok := s.voice.UserVoiceChannel(guildID, userID)
	if !ok {
		return "", mcerr.Precondition("join a voice channel first").WithMeta("user_id", userID)
	}

	var opErr error
	s.run(guildID, func(sess *session.Session) {
		if sess.VoiceChannelID == channelID && s.node.State(guildID) != audio.StateDisconnected {
			return
		}
		if err := s.node.Connect(ctx, guildID, channelID); err != nil {
			opErr = mcerr.External("failed to join voice channel", err)
			return
		}
		sess.VoiceChannelID = channelID
	})
	if opErr != nil {
		return "", opErr
	}
	return channelID, nil
}

// Play resolves the query, appends the result to the queue, and starts
// playback if the player is idle. The bot joins the caller's voice channel
// when not yet connected.
func (s *Service) Play(ctx context.Context, guildID, userID, textChannelID, query string, opts PlayOptions) (*PlayResult, error) {
	tracks, err := s.search.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	userChannel, inVoice := s.voice.UserVoiceChannel(guildID, userID)

	var res PlayResult
	var opErr error
	apply := func(sess *session.Session) {
		if s.node.State(guildID) == audio.StateDisconnected {
			if !inVoice {
				opErr = mcerr.Precondition("you must be in a voice channel to start playback")
				return
			}
			if err := s.node.Connect(ctx, guildID, userChannel); err != nil {
				opErr = mcerr.External("failed to join voice channel", err)
				return
			}
			sess.VoiceChannelID = userChannel
		}

		for i := range tracks {
			tracks[i].Requester = userID
		}
		if textChannelID != "" {
			sess.TextChannelID = textChannelID
		}
		if !opts.AutoplaySourced {
			sess.RequesterID = userID
		}
		if opts.Loop {
			sess.Loop = track.LoopTrack
		}
		if opts.Autoplay {
			sess.Autoplay = true
		}

		sess.Queue.Push(tracks...)

		if s.node.State(guildID) != audio.StateConnected {
			// Already playing or paused; the tracks wait their turn.
			res = PlayResult{
				Track:    tracks[0],
				Queued:   true,
				Position: sess.Queue.Len() - len(tracks) + 1,
			}
			return
		}

		head, _ := sess.Queue.Pop()
		if err := s.node.Play(ctx, guildID, head); err != nil {
			sess.Queue.PushFront(head)
			opErr = mcerr.External("failed to start playback", err)
			return
		}
		sess.Current = &head
		res = PlayResult{Track: head}
	}

	if opts.AutoplaySourced {
		if err := s.runExisting(guildID, apply); err != nil {
			return nil, err
		}
	} else {
		s.run(guildID, apply)
	}
	if opErr != nil {
		return nil, opErr
	}
	return &res, nil
}

// Leave stops playback, disconnects, and destroys the session. Safe to call
// when already disconnected.
func (s *Service) Leave(ctx context.Context, guildID string) error {
	sess, ok := s.registry.Get(guildID)
	if !ok {
		return nil
	}

	err := sess.Run(func(sess *session.Session) {
		if s.node.State(guildID) != audio.StateDisconnected {
			if err := s.node.Stop(ctx, guildID); err != nil {
				log.Printf("[WARN] Failed to stop player on leave for guild %s: %v", guildID, err)
			}
			if err := s.node.Disconnect(ctx, guildID); err != nil {
				log.Printf("[WARN] Failed to disconnect player for guild %s: %v", guildID, err)
			}
		}
	})
	if err != nil {
		// Session already destroyed by a racing leave.
		return nil
	}

	s.registry.Destroy(guildID)
	log.Printf("[INFO] Left voice channel on guild %s", guildID)
	return nil
}

// Stop halts playback and clears the queue but keeps the voice connection.
func (s *Service) Stop(ctx context.Context, guildID string) error {
	var opErr error
	s.run(guildID, func(sess *session.Session) {
		state := s.node.State(guildID)
		if state != audio.StatePlaying && state != audio.StatePaused {
			opErr = mcerr.Precondition("nothing is playing")
			return
		}
		if err := s.node.Stop(ctx, guildID); err != nil {
			opErr = mcerr.External("failed to stop playback", err)
			return
		}
		sess.Queue.Clear()
		sess.Current = nil
	})
	return opErr
}

// Skip advances past the current track according to the loop mode and
// returns the descriptor of the track that was skipped.
func (s *Service) Skip(ctx context.Context, guildID string) (*track.Track, error) {
	var skipped track.Track
	var opErr error
	s.run(guildID, func(sess *session.Session) {
		if sess.Current == nil {
			opErr = mcerr.Precondition("nothing is playing")
			return
		}
		skipped = *sess.Current

		switch sess.Loop {
		case track.LoopTrack:
			if err := s.node.Play(ctx, guildID, skipped); err != nil {
				opErr = mcerr.External("failed to replay track", err)
			}

		case track.LoopQueue:
			before := sess.Queue.Tracks()
			sess.Queue.Push(skipped)
			next, _ := sess.Queue.Pop()
			if err := s.node.Play(ctx, guildID, next); err != nil {
				sess.Queue.Clear()
				sess.Queue.Push(before...)
				opErr = mcerr.External("failed to play next track", err)
				return
			}
			sess.Current = &next

		default: // LoopNone
			next, ok := sess.Queue.Pop()
			if !ok {
				if err := s.node.Stop(ctx, guildID); err != nil {
					opErr = mcerr.External("failed to stop playback", err)
					return
				}
				sess.Current = nil
				return
			}
			if err := s.node.Play(ctx, guildID, next); err != nil {
				sess.Queue.PushFront(next)
				opErr = mcerr.External("failed to play next track", err)
				return
			}
			sess.Current = &next
		}
	})
	if opErr != nil {
		return nil, opErr
	}
	return &skipped, nil
}

// Replay restarts the current track by seeking back to 0:00.
func (s *Service) Replay(ctx context.Context, guildID string) (*track.Track, error) {
	var replayed track.Track
	var opErr error
	s.run(guildID, func(sess *session.Session) {
		if sess.Current == nil {
			opErr = mcerr.Precondition("nothing to replay")
			return
		}
		if !sess.Current.Seekable {
			opErr = mcerr.NotSeekable("current track is not seekable").
				WithMeta("track_id", sess.Current.ID)
			return
		}
		if err := s.node.Seek(ctx, guildID, 0); err != nil {
			opErr = mcerr.External("failed to restart track", err)
			return
		}
		replayed = *sess.Current
	})
	if opErr != nil {
		return nil, opErr
	}
	return &replayed, nil
}

// Pause pauses the player. Pausing an already paused player is an error so
// the caller can surface the mistake.
func (s *Service) Pause(ctx context.Context, guildID string) error {
	var opErr error
	s.run(guildID, func(sess *session.Session) {
		switch s.node.State(guildID) {
		case audio.StatePaused:
			opErr = mcerr.Precondition("player is already paused")
		case audio.StatePlaying:
			if err := s.node.SetPaused(ctx, guildID, true); err != nil {
				opErr = mcerr.External("failed to pause playback", err)
				return
			}
			sess.PausedByDeafen = false
		default:
			opErr = mcerr.Precondition("nothing is playing")
		}
	})
	return opErr
}

// Resume resumes a paused player.
func (s *Service) Resume(ctx context.Context, guildID string) error {
	var opErr error
	s.run(guildID, func(sess *session.Session) {
		switch s.node.State(guildID) {
		case audio.StatePlaying:
			opErr = mcerr.Precondition("player is already playing")
		case audio.StatePaused:
			if err := s.node.SetPaused(ctx, guildID, false); err != nil {
				opErr = mcerr.External("failed to resume playback", err)
				return
			}
			sess.PausedByDeafen = false
		default:
			opErr = mcerr.Precondition("nothing is playing")
		}
	})
	return opErr
}

var positionPattern = regexp.MustCompile(`^(\d+):(\d{2})$`)

// ParsePosition parses a "minutes:seconds" position into a duration.
// Seconds above 59 are rejected.
func ParsePosition(position string) (time.Duration, error) {
	m := positionPattern.FindStringSubmatch(position)
	if m == nil {
		return 0, mcerr.Validation("invalid position, expected minutes:seconds").
			WithMeta("position", position)
	}
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])
	if seconds > 59 {
		return 0, mcerr.Validation("seconds must be below 60").WithMeta("position", position)
	}
	return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// Seek moves the current track to the given "minutes:seconds" position.
func (s *Service) Seek(ctx context.Context, guildID, position string) (time.Duration, error) {
	target, err := ParsePosition(position)
	if err != nil {
		return 0, err
	}

	var opErr error
	s.run(guildID, func(sess *session.Session) {
		if sess.Current == nil {
			opErr = mcerr.Precondition("nothing is playing")
			return
		}
		if !sess.Current.Seekable {
			opErr = mcerr.NotSeekable("current track is not seekable").
				WithMeta("track_id", sess.Current.ID)
			return
		}
		if err := s.node.Seek(ctx, guildID, target); err != nil {
			opErr = mcerr.External("failed to seek", err)
		}
	})
	if opErr != nil {
		return 0, opErr
	}
	return target, nil
}

// SetLoop applies the loop mode and returns it.
func (s *Service) SetLoop(guildID string, mode track.LoopMode) (track.LoopMode, error) {
	s.run(guildID, func(sess *session.Session) {
		sess.Loop = mode
	})
	return mode, nil
}

// Shuffle randomly permutes the queue. The currently playing track is not in
// the queue and is unaffected.
func (s *Service) Shuffle(guildID string) error {
	var opErr error
	s.run(guildID, func(sess *session.Session) {
		if sess.Queue.Len() == 0 {
			opErr = mcerr.Precondition("the queue is empty")
			return
		}
		s.rngMu.Lock()
		sess.Queue.Shuffle(s.rng)
		s.rngMu.Unlock()
	})
	return opErr
}

// ToggleAutoplay flips the autoplay flag and returns the new value.
func (s *Service) ToggleAutoplay(guildID string) (bool, error) {
	var enabled bool
	s.run(guildID, func(sess *session.Session) {
		sess.Autoplay = !sess.Autoplay
		enabled = sess.Autoplay
	})
	return enabled, nil
}

// Queue returns the current track, the first limit queue entries, and the
// count of entries beyond them. Read-only.
func (s *Service) Queue(guildID string, limit int) (*QueueView, error) {
	if limit <= 0 {
		limit = 10
	}

	view := &QueueView{}
	sess, ok := s.registry.Get(guildID)
	if !ok {
		return view, nil
	}

	_ = sess.Run(func(sess *session.Session) {
		if sess.Current != nil {
			current := *sess.Current
			view.Current = &current
		}
		all := sess.Queue.Tracks()
		if len(all) > limit {
			view.Next = all[:limit]
			view.Remaining = len(all) - limit
		} else {
			view.Next = all
		}
	})
	return view, nil
}
