package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuanbachtran02/MusicCat/internal/music/track"
	"github.com/xuanbachtran02/MusicCat/internal/storage"
)

func newStore(t *testing.T) *storage.Storage {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := storage.New(ctx, filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		_ = s.Close()
	})
	return s
}

func mkTrack(id, title string) track.Track {
	return track.Track{ID: id, Title: title, Author: "author", URI: "https://youtu.be/" + id}
}

func TestRecordStream_AccumulatesPerGuild(t *testing.T) {
	s := newStore(t)

	s.RecordStream("g1", mkTrack("a", "first"))
	s.RecordStream("g1", mkTrack("a", "first"))
	s.RecordStream("g1", mkTrack("b", "second"))
	s.RecordStream("g2", mkTrack("a", "first"))

	top, err := s.TopTracks("g1", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].ID)
	assert.Equal(t, 2, top[0].StreamCount)
	assert.Equal(t, "b", top[1].ID)
	assert.Equal(t, 1, top[1].StreamCount)

	other, err := s.TopTracks("g2", 10)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 1, other[0].StreamCount)
}

func TestRecordStream_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	ctx, cancel := context.WithCancel(context.Background())
	s, err := storage.New(ctx, path)
	require.NoError(t, err)

	s.RecordStream("g1", mkTrack("a", "first"))
	cancel()
	require.NoError(t, s.Close())

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	s2, err := storage.New(ctx2, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	top, err := s2.TopTracks("g1", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "a", top[0].ID)
	assert.Equal(t, 1, top[0].StreamCount)
}

func TestTopTracks_RespectsLimit(t *testing.T) {
	s := newStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.RecordStream("g1", mkTrack(id, "title "+id))
	}

	top, err := s.TopTracks("g1", 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestTopTracks_EmptyGuild(t *testing.T) {
	s := newStore(t)
	top, err := s.TopTracks("nope", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
