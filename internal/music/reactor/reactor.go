// Package reactor drives the automatic playback transitions: it consumes
// audio node lifecycle events and voice presence changes, and advances the
// queue, chains autoplay, and pauses, resumes, or leaves on occupancy
// verdicts. Commands come from users; everything here reacts to the world.
package reactor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/xuanbachtran02/MusicCat/internal/music/audio"
	"github.com/xuanbachtran02/MusicCat/internal/music/occupancy"
	"github.com/xuanbachtran02/MusicCat/internal/music/player"
	"github.com/xuanbachtran02/MusicCat/internal/music/session"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// opTimeout bounds the node round trips issued from event handlers.
const opTimeout = 15 * time.Second

// Commander is the slice of the command orchestrator the reactor drives.
type Commander interface {
	Play(ctx context.Context, guildID, userID, textChannelID, query string, opts player.PlayOptions) (*player.PlayResult, error)
	Leave(ctx context.Context, guildID string) error
}

// AutoplaySource yields one candidate per queue exhaustion, or nil.
type AutoplaySource interface {
	Resolve(ctx context.Context, seed track.Track) *track.Track
}

// Notifier delivers fire-and-forget messages to a guild text channel.
// Failures are logged by the implementation, never propagated.
type Notifier interface {
	Announce(channelID string, t track.Track)
	Say(channelID, message string)
}

// Presence updates the bot's displayed activity.
type Presence interface {
	SetListening(author, title string)
	ClearListening()
}

// Metrics records play counts. Implementations swallow their own errors.
type Metrics interface {
	RecordStream(guildID string, t track.Track)
}

// Reactor is the event state machine. One instance serves all guilds; the
// per-guild session lock serializes it against user commands.
type Reactor struct {
	registry *session.Registry
	node     audio.Controller
	commands Commander
	autoplay AutoplaySource
	notify   Notifier
	presence Presence
	metrics  Metrics
}

// Config holds the Reactor dependencies.
type Config struct {
	Registry *session.Registry // required
	Node     audio.Controller  // required
	Commands Commander         // required
	Autoplay AutoplaySource    // required
	Notify   Notifier          // required
	Presence Presence          // required
	Metrics  Metrics           // required
}

func New(cfg *Config) *Reactor {
	if cfg.Registry == nil {
		panic("reactor: registry is required")
	}
	if cfg.Node == nil {
		panic("reactor: node is required")
	}
	if cfg.Commands == nil {
		panic("reactor: commands are required")
	}
	if cfg.Autoplay == nil {
		panic("reactor: autoplay source is required")
	}
	if cfg.Notify == nil {
		panic("reactor: notifier is required")
	}
	if cfg.Presence == nil {
		panic("reactor: presence updater is required")
	}
	if cfg.Metrics == nil {
		panic("reactor: metrics sink is required")
	}
	return &Reactor{
		registry: cfg.Registry,
		node:     cfg.Node,
		commands: cfg.Commands,
		autoplay: cfg.Autoplay,
		notify:   cfg.Notify,
		presence: cfg.Presence,
		metrics:  cfg.Metrics,
	}
}

// HandleAudioEvent dispatches a node lifecycle event. Registered with the
// node's emitter at startup.
func (r *Reactor) HandleAudioEvent(ev audio.Event) {
	switch ev.Type {
	case audio.EventTrackStart:
		r.onTrackStart(ev)
	case audio.EventTrackEnd:
		r.onTrackEnd(ev)
	case audio.EventTrackException:
		r.onTrackException(ev)
	case audio.EventDisconnected:
		r.OnForceDisconnect(ev.GuildID)
	}
}

func (r *Reactor) onTrackStart(ev audio.Event) {
	if ev.Track == nil {
		return
	}
	sess, ok := r.registry.Get(ev.GuildID)
	if !ok {
		return
	}

	err := sess.Run(func(sess *session.Session) {
		t := *ev.Track
		sess.Current = &t
		sess.LastPlayed = &t
	})
	if err != nil {
		return
	}

	log.Printf("[Player] Guild %s now playing %q by %s (%s)",
		ev.GuildID, ev.Track.Title, ev.Track.Author, ev.Track.URI)
	r.presence.SetListening(ev.Track.Author, ev.Track.Title)
	r.metrics.RecordStream(ev.GuildID, *ev.Track)
}

// onTrackEnd advances the queue according to the loop mode. Only natural
// completions and load failures advance; stops and replacements carry their
// own follow-up command from the orchestrator.
func (r *Reactor) onTrackEnd(ev audio.Event) {
	if !ev.Reason.MayStartNext() {
		return
	}
	sess, ok := r.registry.Get(ev.GuildID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var exhausted bool
	var seed *track.Track
	var textChannelID string

	err := sess.Run(func(sess *session.Session) {
		finished := sess.Current
		if finished == nil {
			finished = ev.Track
		}

		switch {
		case sess.Loop == track.LoopTrack && finished != nil:
			r.playNext(ctx, sess, *finished)
			return

		case sess.Loop == track.LoopQueue && finished != nil:
			sess.Queue.Push(*finished)
			if next, ok := sess.Queue.Pop(); ok {
				r.playNext(ctx, sess, next)
				return
			}

		default:
			if next, ok := sess.Queue.Pop(); ok {
				r.playNext(ctx, sess, next)
				return
			}
		}

		// Nothing left to play.
		sess.Current = nil
		if sess.Autoplay && sess.LastPlayed != nil {
			exhausted = true
			t := *sess.LastPlayed
			seed = &t
			textChannelID = sess.TextChannelID
		}
	})
	if err != nil {
		return
	}

	r.presenceIdleIfStopped(ev.GuildID)

	if exhausted {
		// Resolution happens off the session lock; if the session is
		// destroyed meanwhile the candidate is dropped.
		r.runAutoplay(ev.GuildID, textChannelID, *seed)
	}
}

// playNext starts the next track under the session lock. A play failure
// restores the queue head so user-visible state never loses the track.
func (r *Reactor) playNext(ctx context.Context, sess *session.Session, next track.Track) {
	if err := r.node.Play(ctx, sess.GuildID, next); err != nil {
		log.Printf("[ERR] Failed to start next track on guild %s: %v", sess.GuildID, err)
		sess.Queue.PushFront(next)
		sess.Current = nil
		return
	}
	sess.Current = &next
}

// presenceIdleIfStopped clears the listening status once no guild command
// restarted playback.
func (r *Reactor) presenceIdleIfStopped(guildID string) {
	if r.node.State(guildID) != audio.StatePlaying {
		r.presence.ClearListening()
	}
}

func (r *Reactor) runAutoplay(guildID, textChannelID string, seed track.Track) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	candidate := r.autoplay.Resolve(ctx, seed)

	// The session may have been torn down while the resolution was in
	// flight; the result is discarded without any follow-up.
	if _, ok := r.registry.Get(guildID); !ok {
		return
	}
	if candidate == nil {
		if textChannelID != "" {
			r.notify.Say(textChannelID, "Autoplay found nothing related, stopping here.")
		}
		return
	}

	res, err := r.commands.Play(ctx, guildID, candidate.Requester, textChannelID, candidate.URI,
		player.PlayOptions{AutoplaySourced: true})
	if errors.Is(err, session.ErrClosed) {
		return
	}
	if err != nil {
		log.Printf("[WARN] Autoplay play failed on guild %s: %v", guildID, err)
		if textChannelID != "" {
			r.notify.Say(textChannelID, "Autoplay could not start the next track.")
		}
		return
	}
	if textChannelID != "" {
		r.notify.Announce(textChannelID, res.Track)
	}
}

// onTrackException reports the failure to the guild's text channel. The node
// follows every exception with a track-ended event carrying the loadFailed
// reason, so queue advancement happens there.
func (r *Reactor) onTrackException(ev audio.Event) {
	title := "current track"
	if ev.Track != nil {
		title = ev.Track.Title
	}
	log.Printf("[ERR] Track exception on guild %s (%s): %s", ev.GuildID, title, ev.Message)

	sess, ok := r.registry.Get(ev.GuildID)
	if !ok {
		return
	}
	var textChannelID string
	if err := sess.Run(func(sess *session.Session) {
		textChannelID = sess.TextChannelID
	}); err != nil {
		return
	}
	if textChannelID != "" {
		r.notify.Say(textChannelID, "Playback failed for "+title+", skipping.")
	}
}

// OnForceDisconnect resets the guild after an external disconnect. The voice
// connection is already gone, so no node commands are issued.
func (r *Reactor) OnForceDisconnect(guildID string) {
	if _, ok := r.registry.Get(guildID); !ok {
		return
	}
	log.Printf("[WARN] Force disconnected from voice on guild %s", guildID)
	r.registry.Destroy(guildID)
	r.presence.ClearListening()
}

// OnVoicePresence applies the occupancy verdict for a voice state change.
// Classification decides first; the deafen transition only matters in the
// bot-plus-one bucket.
func (r *Reactor) OnVoicePresence(guildID string, prev, cur occupancy.Snapshot, botID, botChannelID string) {
	sess, ok := r.registry.Get(guildID)
	if !ok {
		return
	}

	res := occupancy.Evaluate(prev, cur, botID, botChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch res.Classification {
	case occupancy.Alone:
		log.Printf("[INFO] Alone in voice on guild %s, leaving", guildID)
		if err := r.commands.Leave(ctx, guildID); err != nil {
			log.Printf("[WARN] Failed to leave guild %s: %v", guildID, err)
		}
		r.presence.ClearListening()

	case occupancy.BotPlusMany:
		_ = sess.Run(func(sess *session.Session) {
			if r.node.State(guildID) != audio.StatePaused {
				return
			}
			if err := r.node.SetPaused(ctx, guildID, false); err != nil {
				log.Printf("[WARN] Failed to resume on guild %s: %v", guildID, err)
				return
			}
			sess.PausedByDeafen = false
		})

	case occupancy.BotPlusOne:
		r.applyDeafen(ctx, sess, res.Deafen)
	}
}

func (r *Reactor) applyDeafen(ctx context.Context, sess *session.Session, transition occupancy.DeafenTransition) {
	_ = sess.Run(func(sess *session.Session) {
		switch transition {
		case occupancy.DeafenStarted:
			if r.node.State(sess.GuildID) != audio.StatePlaying {
				return
			}
			if err := r.node.SetPaused(ctx, sess.GuildID, true); err != nil {
				log.Printf("[WARN] Failed to pause on guild %s: %v", sess.GuildID, err)
				return
			}
			sess.PausedByDeafen = true

		case occupancy.DeafenEnded:
			// Only undo pauses this mechanism caused; a user pause stays.
			if !sess.PausedByDeafen || r.node.State(sess.GuildID) != audio.StatePaused {
				return
			}
			if err := r.node.SetPaused(ctx, sess.GuildID, false); err != nil {
				log.Printf("[WARN] Failed to resume on guild %s: %v", sess.GuildID, err)
				return
			}
			sess.PausedByDeafen = false
		}
	})
}
