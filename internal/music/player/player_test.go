package player_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"
	"github.com/xuanbachtran02/MusicCat/internal/music/audio"
	"github.com/xuanbachtran02/MusicCat/internal/music/player"
	"github.com/xuanbachtran02/MusicCat/internal/music/session"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

type fakeNode struct {
	states map[string]audio.PlayerState

	played       []track.Track
	playErr      error
	connectErr   error
	stopCalls    int
	seekedTo     time.Duration
	pausedCalls  []bool
	disconnected int
}

func newFakeNode() *fakeNode {
	return &fakeNode{states: map[string]audio.PlayerState{}}
}

func (n *fakeNode) Connect(_ context.Context, guildID, _ string) error {
	if n.connectErr != nil {
		return n.connectErr
	}
	n.states[guildID] = audio.StateConnected
	return nil
}

func (n *fakeNode) Disconnect(_ context.Context, guildID string) error {
	n.disconnected++
	n.states[guildID] = audio.StateDisconnected
	return nil
}

func (n *fakeNode) Play(_ context.Context, guildID string, t track.Track) error {
	if n.playErr != nil {
		return n.playErr
	}
	n.played = append(n.played, t)
	n.states[guildID] = audio.StatePlaying
	return nil
}

func (n *fakeNode) SetPaused(_ context.Context, guildID string, paused bool) error {
	n.pausedCalls = append(n.pausedCalls, paused)
	if paused {
		n.states[guildID] = audio.StatePaused
	} else {
		n.states[guildID] = audio.StatePlaying
	}
	return nil
}

func (n *fakeNode) Stop(_ context.Context, guildID string) error {
	n.stopCalls++
	n.states[guildID] = audio.StateConnected
	return nil
}

func (n *fakeNode) Seek(_ context.Context, _ string, position time.Duration) error {
	n.seekedTo = position
	return nil
}

func (n *fakeNode) State(guildID string) audio.PlayerState {
	return n.states[guildID]
}

type fakeSearch struct {
	results map[string][]track.Track
	err     error
}

func (s *fakeSearch) Resolve(_ context.Context, query string) ([]track.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	tracks, ok := s.results[query]
	if !ok {
		return nil, mcerr.NotFound("no results for query")
	}
	return tracks, nil
}

func (s *fakeSearch) RelatedTo(_ context.Context, _ track.Track) ([]track.Track, error) {
	return nil, nil
}

func (s *fakeSearch) Lookup(_ context.Context, videoID string) (track.Track, error) {
	return track.Track{ID: videoID}, nil
}

type fakeVoice struct {
	channels map[string]string // userID -> channelID
}

func (v *fakeVoice) UserVoiceChannel(_, userID string) (string, bool) {
	ch, ok := v.channels[userID]
	return ch, ok
}

type fixture struct {
	svc    *player.Service
	node   *fakeNode
	search *fakeSearch
	voice  *fakeVoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	node := newFakeNode()
	srch := &fakeSearch{results: map[string][]track.Track{}}
	voice := &fakeVoice{channels: map[string]string{"user-1": "vc-1"}}
	svc := player.New(&player.Config{
		Registry: session.NewRegistry(),
		Node:     node,
		Search:   srch,
		Voice:    voice,
		Rand:     rand.New(rand.NewSource(42)),
	})
	return &fixture{svc: svc, node: node, search: srch, voice: voice}
}

func mkTrack(id string) track.Track {
	return track.Track{
		ID:       id,
		Title:    "title " + id,
		Author:   "author",
		URI:      "https://youtu.be/" + id,
		Duration: 3 * time.Minute,
		Seekable: true,
		Encoded:  "enc:" + id,
	}
}

func (f *fixture) play(t *testing.T, query string) *player.PlayResult {
	t.Helper()
	res, err := f.svc.Play(context.Background(), "g1", "user-1", "text-1", query, player.PlayOptions{})
	require.NoError(t, err)
	return res
}

func TestNew_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() {
		player.New(&player.Config{})
	})
}

func TestPlay_StartsImmediatelyWhenIdle(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}

	res := f.play(t, "song")

	assert.False(t, res.Queued)
	assert.Equal(t, "a", res.Track.ID)
	assert.Equal(t, "user-1", res.Track.Requester)
	require.Len(t, f.node.played, 1)
	assert.Equal(t, audio.StatePlaying, f.node.State("g1"))
}

func TestPlay_QueuesInOrderWhilePlaying(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.search.results[id] = []track.Track{mkTrack(id)}
	}

	f.play(t, "a")
	for i, id := range []string{"b", "c", "d"} {
		res := f.play(t, id)
		assert.True(t, res.Queued)
		assert.Equal(t, i+1, res.Position)
	}

	view, err := f.svc.Queue("g1", 10)
	require.NoError(t, err)
	require.NotNil(t, view.Current)
	assert.Equal(t, "a", view.Current.ID)
	require.Len(t, view.Next, 3)
	assert.Equal(t, "b", view.Next[0].ID)
	assert.Equal(t, "c", view.Next[1].ID)
	assert.Equal(t, "d", view.Next[2].ID)
}

func TestPlay_RequiresVoiceWhenDisconnected(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}

	_, err := f.svc.Play(context.Background(), "g1", "stranger", "text-1", "song", player.PlayOptions{})
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
}

func TestPlay_RollsBackQueueOnNodeFailure(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.node.states["g1"] = audio.StateConnected
	f.node.playErr = errors.New("node down")

	_, err := f.svc.Play(context.Background(), "g1", "user-1", "text-1", "song", player.PlayOptions{})
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindExternal))

	view, viewErr := f.svc.Queue("g1", 10)
	require.NoError(t, viewErr)
	assert.Nil(t, view.Current)
	require.Len(t, view.Next, 1)
	assert.Equal(t, "a", view.Next[0].ID)
}

func TestPlay_AutoplaySourcedDoesNotReviveDestroyedSession(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.play(t, "song")
	require.NoError(t, f.svc.Leave(context.Background(), "g1"))

	// The internal autoplay play lands after the guild was torn down. The
	// requester is still in voice, so a creating lookup would reconnect.
	_, err := f.svc.Play(context.Background(), "g1", "user-1", "text-1", "song",
		player.PlayOptions{AutoplaySourced: true})
	require.ErrorIs(t, err, session.ErrClosed)

	_, ok := f.svc.Registry().Get("g1")
	assert.False(t, ok)
	assert.Len(t, f.node.played, 1)
	assert.Equal(t, audio.StateDisconnected, f.node.State("g1"))
}

func TestPlay_PlaylistQueuesAllTracks(t *testing.T) {
	f := newFixture(t)
	f.search.results["list"] = []track.Track{mkTrack("a"), mkTrack("b"), mkTrack("c")}

	res := f.play(t, "list")

	assert.False(t, res.Queued)
	assert.Equal(t, "a", res.Track.ID)
	view, err := f.svc.Queue("g1", 10)
	require.NoError(t, err)
	require.Len(t, view.Next, 2)
	assert.Equal(t, "b", view.Next[0].ID)
	assert.Equal(t, "c", view.Next[1].ID)
}

func TestJoin(t *testing.T) {
	f := newFixture(t)

	t.Run("connects to the caller's channel", func(t *testing.T) {
		ch, err := f.svc.Join(context.Background(), "g1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, "vc-1", ch)
		assert.Equal(t, audio.StateConnected, f.node.State("g1"))
	})

	t.Run("rejects callers outside voice", func(t *testing.T) {
		_, err := f.svc.Join(context.Background(), "g1", "stranger")
		require.Error(t, err)
		assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
	})
}

func TestLeave_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.play(t, "song")

	require.NoError(t, f.svc.Leave(context.Background(), "g1"))
	assert.Equal(t, 1, f.node.disconnected)

	// No session left; a second leave is a quiet no-op.
	require.NoError(t, f.svc.Leave(context.Background(), "g1"))
	assert.Equal(t, 1, f.node.disconnected)
}

func TestStop_ClearsQueueKeepsConnection(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b"} {
		f.search.results[id] = []track.Track{mkTrack(id)}
	}
	f.play(t, "a")
	f.play(t, "b")

	require.NoError(t, f.svc.Stop(context.Background(), "g1"))

	assert.Equal(t, audio.StateConnected, f.node.State("g1"))
	view, err := f.svc.Queue("g1", 10)
	require.NoError(t, err)
	assert.Nil(t, view.Current)
	assert.Empty(t, view.Next)
}

func TestStop_RejectsWhenIdle(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Stop(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
}

func TestSkip_LoopNone(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b"} {
		f.search.results[id] = []track.Track{mkTrack(id)}
	}
	f.play(t, "a")
	f.play(t, "b")

	skipped, err := f.svc.Skip(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "a", skipped.ID)

	view, _ := f.svc.Queue("g1", 10)
	require.NotNil(t, view.Current)
	assert.Equal(t, "b", view.Current.ID)
	assert.Empty(t, view.Next)

	// Skipping the last track stops the player.
	skipped, err = f.svc.Skip(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "b", skipped.ID)
	assert.Equal(t, 1, f.node.stopCalls)
}

func TestSkip_LoopTrackReplaysSame(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.play(t, "song")
	_, err := f.svc.SetLoop("g1", track.LoopTrack)
	require.NoError(t, err)

	skipped, err := f.svc.Skip(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "a", skipped.ID)

	require.Len(t, f.node.played, 2)
	assert.Equal(t, "a", f.node.played[1].ID)
}

func TestSkip_LoopQueueCyclesBackToStart(t *testing.T) {
	f := newFixture(t)
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		f.search.results[id] = []track.Track{mkTrack(id)}
	}
	for _, id := range ids {
		f.play(t, id)
	}
	_, err := f.svc.SetLoop("g1", track.LoopQueue)
	require.NoError(t, err)

	// One full lap returns to the original order.
	for range ids {
		_, err := f.svc.Skip(context.Background(), "g1")
		require.NoError(t, err)
	}

	view, _ := f.svc.Queue("g1", 10)
	require.NotNil(t, view.Current)
	assert.Equal(t, "a", view.Current.ID)
	require.Len(t, view.Next, 2)
	assert.Equal(t, "b", view.Next[0].ID)
	assert.Equal(t, "c", view.Next[1].ID)
}

func TestSkip_RejectsWithoutCurrent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Skip(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.play(t, "song")

	require.NoError(t, f.svc.Pause(context.Background(), "g1"))
	assert.Equal(t, audio.StatePaused, f.node.State("g1"))

	err := f.svc.Pause(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))

	require.NoError(t, f.svc.Resume(context.Background(), "g1"))
	assert.Equal(t, audio.StatePlaying, f.node.State("g1"))

	err = f.svc.Resume(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "0:00", want: 0},
		{in: "2:05", want: 125 * time.Second},
		{in: "10:59", want: 10*time.Minute + 59*time.Second},
		{in: "1:60", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1:5", wantErr: true},
		{in: "-1:30", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := player.ParsePosition(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, mcerr.Is(err, mcerr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeek(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.play(t, "song")

	pos, err := f.svc.Seek(context.Background(), "g1", "2:05")
	require.NoError(t, err)
	assert.Equal(t, 125*time.Second, pos)
	assert.Equal(t, 125*time.Second, f.node.seekedTo)
}

func TestSeek_RejectsUnseekableTrack(t *testing.T) {
	f := newFixture(t)
	stream := mkTrack("live")
	stream.Seekable = false
	f.search.results["live"] = []track.Track{stream}
	f.play(t, "live")

	_, err := f.svc.Seek(context.Background(), "g1", "0:30")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindNotSeekable))
}

func TestReplay_SeeksBackToStart(t *testing.T) {
	f := newFixture(t)
	f.search.results["song"] = []track.Track{mkTrack("a")}
	f.play(t, "song")
	f.node.seekedTo = time.Minute

	replayed, err := f.svc.Replay(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "a", replayed.ID)
	assert.Equal(t, time.Duration(0), f.node.seekedTo)
	// A replay rewinds; it never re-submits the track.
	assert.Len(t, f.node.played, 1)
}

func TestReplay_RejectsWhenIdle(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Replay(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
}

func TestReplay_RejectsUnseekableTrack(t *testing.T) {
	f := newFixture(t)
	stream := mkTrack("live")
	stream.Seekable = false
	f.search.results["live"] = []track.Track{stream}
	f.play(t, "live")

	_, err := f.svc.Replay(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, mcerr.Is(err, mcerr.KindNotSeekable))
}

func TestShuffle(t *testing.T) {
	f := newFixture(t)

	t.Run("rejects an empty queue", func(t *testing.T) {
		err := f.svc.Shuffle("g1")
		require.Error(t, err)
		assert.True(t, mcerr.Is(err, mcerr.KindPrecondition))
	})

	t.Run("keeps the same multiset of tracks", func(t *testing.T) {
		ids := []string{"a", "b", "c", "d", "e"}
		for _, id := range ids {
			f.search.results[id] = []track.Track{mkTrack(id)}
		}
		for _, id := range ids {
			f.play(t, id)
		}

		require.NoError(t, f.svc.Shuffle("g1"))

		view, _ := f.svc.Queue("g1", 10)
		got := map[string]bool{}
		for _, tr := range view.Next {
			got[tr.ID] = true
		}
		assert.Len(t, got, 4)
		for _, id := range ids[1:] {
			assert.True(t, got[id], "track %s missing after shuffle", id)
		}
	})
}

func TestToggleAutoplay(t *testing.T) {
	f := newFixture(t)

	on, err := f.svc.ToggleAutoplay("g1")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := f.svc.ToggleAutoplay("g1")
	require.NoError(t, err)
	assert.False(t, off)
}

func TestQueue_TruncatesAndCounts(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("t%d", i)
		f.search.results[id] = []track.Track{mkTrack(id)}
		f.play(t, id)
	}

	view, err := f.svc.Queue("g1", 3)
	require.NoError(t, err)
	require.Len(t, view.Next, 3)
	assert.Equal(t, 2, view.Remaining)
}

func TestQueue_EmptyForUnknownGuild(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Queue("nope", 10)
	require.NoError(t, err)
	assert.Nil(t, view.Current)
	assert.Empty(t, view.Next)
}
