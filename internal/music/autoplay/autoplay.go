// Package autoplay picks the next track to play when a guild's queue runs
// out, seeded by the last track that played.
package autoplay

import (
	"context"
	"log"
	"math/rand"
	"sync"

	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// Source is the related-content provider. *search.Client satisfies it.
type Source interface {
	RelatedTo(ctx context.Context, seed track.Track) ([]track.Track, error)
	Lookup(ctx context.Context, videoID string) (track.Track, error)
}

// Resolver selects one related track per queue-exhaustion event.
type Resolver struct {
	source Source

	mu  sync.Mutex
	rng *rand.Rand
}

func New(source Source, rng *rand.Rand) *Resolver {
	if source == nil {
		panic("autoplay: source is required")
	}
	return &Resolver{source: source, rng: rng}
}

// Resolve issues exactly one related-content query for the seed and returns
// a uniformly random candidate with full metadata, or nil when there is no
// candidate. It never returns an error to the caller: provider failures and
// empty result sets are terminal no-candidate outcomes for this event.
func (r *Resolver) Resolve(ctx context.Context, seed track.Track) *track.Track {
	candidates, err := r.source.RelatedTo(ctx, seed)
	if err != nil {
		log.Printf("[WARN] Autoplay related-content query failed for seed %s: %v", seed.ID, err)
		return nil
	}
	if len(candidates) == 0 {
		log.Printf("[INFO] Autoplay found no candidates for seed %s", seed.ID)
		return nil
	}

	pick := candidates[r.intn(len(candidates))]

	resolved, err := r.source.Lookup(ctx, pick.ID)
	if err != nil {
		// Keep the bare candidate; resolution on the node fills the rest.
		log.Printf("[WARN] Autoplay metadata lookup failed for %s: %v", pick.ID, err)
		resolved = pick
	}
	resolved.Requester = seed.Requester
	return &resolved
}

func (r *Resolver) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return rand.Intn(n)
}
