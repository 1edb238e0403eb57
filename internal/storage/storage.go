// /internal/storage/storage.go
package storage

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/keshon/datastore"

	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// Storage persists per-guild playback metrics in a JSON key-value store.
// One record per guild, keyed by guild id.
type Storage struct {
	ds *datastore.DataStore
}

// TrackStats is the accumulated play history of one track in one guild.
type TrackStats struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	URI            string    `json:"uri"`
	StreamCount    int       `json:"stream_count"`
	LastStreamedAt time.Time `json:"last_streamed_at"`
}

// Record is the stored value for one guild.
type Record struct {
	Tracks map[string]TrackStats `json:"tracks"` // key = track id
}

// New opens the store at filePath. ctx bounds the store's background save
// loop; cancel it before Close on shutdown.
func New(ctx context.Context, filePath string) (*Storage, error) {
	ds, err := datastore.New(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	record := &Record{Tracks: map[string]TrackStats{}}
	exists, err := s.ds.Get(guildID, record)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.ds.Set(guildID, record); err != nil {
			return nil, err
		}
		return record, nil
	}
	if record.Tracks == nil {
		record.Tracks = map[string]TrackStats{}
	}
	return record, nil
}

// RecordStream bumps the track's play count for the guild. Errors are logged
// and swallowed so a broken store never interrupts playback.
func (s *Storage) RecordStream(guildID string, t track.Track) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		log.Printf("[WARN] Failed to load metrics record for guild %s: %v", guildID, err)
		return
	}

	stats := record.Tracks[t.ID]
	stats.ID = t.ID
	stats.Title = t.Title
	stats.Author = t.Author
	stats.URI = t.URI
	stats.StreamCount++
	stats.LastStreamedAt = time.Now().UTC()
	record.Tracks[t.ID] = stats

	if err := s.ds.Set(guildID, record); err != nil {
		log.Printf("[WARN] Failed to save metrics record for guild %s: %v", guildID, err)
	}
}

// TopTracks returns the guild's most streamed tracks, highest count first.
// Ties break on recency.
func (s *Storage) TopTracks(guildID string, limit int) ([]TrackStats, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	stats := make([]TrackStats, 0, len(record.Tracks))
	for _, st := range record.Tracks {
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].StreamCount != stats[j].StreamCount {
			return stats[i].StreamCount > stats[j].StreamCount
		}
		return stats[i].LastStreamedAt.After(stats[j].LastStreamedAt)
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
