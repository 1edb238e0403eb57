// Package track holds the playback data model: track descriptors, the
// per-guild queue, and loop modes.
package track

import (
	"math/rand"
	"time"
)

// Track describes one playable item. It is a value type; copies are cheap
// and callers never share mutable state through it.
type Track struct {
	ID        string // platform identifier, e.g. YouTube video id
	Title     string
	Author    string
	URI       string
	Duration  time.Duration
	Seekable  bool
	Requester string // user id that requested the track

	// Encoded is the audio node's opaque playable form of the track.
	// Empty for candidates that have not been through track resolution.
	Encoded string
}

// LoopMode is the repetition policy applied when a track finishes.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopTrack
	LoopQueue
)

func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "none"
	}
}

// Queue is an ordered list of tracks. It is not safe for concurrent use;
// access runs under the owning session's lock.
type Queue struct {
	tracks []Track
}

// Push appends tracks in order.
func (q *Queue) Push(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
}

// PushFront re-inserts a track at the head. Used to roll back a dequeue when
// the audio node rejects playback.
func (q *Queue) PushFront(t Track) {
	q.tracks = append([]Track{t}, q.tracks...)
}

// Pop removes and returns the head track.
func (q *Queue) Pop() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	head := q.tracks[0]
	q.tracks = q.tracks[1:]
	return head, true
}

func (q *Queue) Len() int {
	return len(q.tracks)
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []Track {
	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

func (q *Queue) Clear() {
	q.tracks = nil
}

// Shuffle permutes the queue in place with a Fisher-Yates shuffle, so every
// permutation is equally likely. The currently playing track is never in the
// queue and is untouched.
func (q *Queue) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(q.tracks), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
}
