// Package search is the track resolution collaborator: it turns user queries
// into playable tracks via the audio node, and finds related tracks for
// autoplay by scraping the YouTube watch page of the seed.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"
	"github.com/xuanbachtran02/MusicCat/internal/music/audio"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
	"github.com/xuanbachtran02/MusicCat/pkg/retrylimit"

	youtube "github.com/kkdai/youtube/v2"
)

const watchBaseURL = "https://www.youtube.com/watch"

var watchURLPattern = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)

// Resolver is the contract the playback core consumes.
type Resolver interface {
	// Resolve turns a URL or free-text query into one or more tracks.
	Resolve(ctx context.Context, query string) ([]track.Track, error)

	// RelatedTo issues one bounded related-content query for the seed and
	// returns lightweight candidates (id + uri only).
	RelatedTo(ctx context.Context, seed track.Track) ([]track.Track, error)

	// Lookup fetches full metadata for one video id.
	Lookup(ctx context.Context, videoID string) (track.Track, error)
}

// Client implements Resolver against the audio node (for track loading) and
// youtube.com (for related content and metadata).
type Client struct {
	loader   audio.Loader
	http     *http.Client
	yt       *youtube.Client
	lim      *retrylimit.AdaptiveLimiter
	baseURL  string
	pageSize int
}

// Config holds the Client dependencies.
type Config struct {
	Loader   audio.Loader // required
	PageSize int          // related-content page size; default 10
}

func New(cfg *Config) *Client {
	if cfg.Loader == nil {
		panic("search: loader is required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Client{
		loader:   cfg.Loader,
		http:     httpClient,
		yt:       &youtube.Client{HTTPClient: httpClient},
		lim:      retrylimit.NewAdaptiveLimiter(5, 1, 10, 1, 0.5),
		baseURL:  "https://www.youtube.com",
		pageSize: pageSize,
	}
}

// Resolve loads a query on the node. URLs pass through as identifiers; free
// text becomes a node-side search, of which the first hit is taken. Playlist
// URLs resolve to every entry.
func (c *Client) Resolve(ctx context.Context, query string) ([]track.Track, error) {
	identifier := strings.TrimSpace(query)
	if !isURL(identifier) {
		identifier = "ytsearch:" + identifier
	}

	result, err := c.loader.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, mcerr.External("track resolution failed", err).WithMeta("query", query)
	}

	switch result.Type {
	case audio.LoadTypeEmpty, audio.LoadTypeError:
		return nil, mcerr.NotFound("no results found for query").WithMeta("query", query)
	case audio.LoadTypeSearch:
		if len(result.Tracks) == 0 {
			return nil, mcerr.NotFound("no results found for query").WithMeta("query", query)
		}
		return result.Tracks[:1], nil
	default:
		if len(result.Tracks) == 0 {
			return nil, mcerr.NotFound("no results found for query").WithMeta("query", query)
		}
		return result.Tracks, nil
	}
}

// RelatedTo scrapes the watch page of the seed and extracts up to pageSize
// distinct related video ids, never including the seed itself.
func (c *Client) RelatedTo(ctx context.Context, seed track.Track) ([]track.Track, error) {
	if seed.ID == "" {
		return nil, mcerr.NotFound("seed track has no identifier")
	}

	pageURL := fmt.Sprintf("%s/watch?v=%s", c.baseURL, url.QueryEscape(seed.ID))

	var body []byte
	err := retrylimit.WithRetryMax(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("watch page fetch failed with status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}, c.lim, 3)
	if err != nil {
		return nil, mcerr.External("related-content query failed", err).WithMeta("seed", seed.ID)
	}

	matches := watchURLPattern.FindAllStringSubmatch(string(body), -1)
	seen := map[string]bool{seed.ID: true}
	var candidates []track.Track
	for _, m := range matches {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, track.Track{
			ID:  id,
			URI: fmt.Sprintf("%s?v=%s", watchBaseURL, id),
		})
		if len(candidates) == c.pageSize {
			break
		}
	}
	return candidates, nil
}

// Lookup fills in title, author, and duration for one video id.
func (c *Client) Lookup(ctx context.Context, videoID string) (track.Track, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return track.Track{}, mcerr.External("video lookup failed", err).WithMeta("video_id", videoID)
	}
	return track.Track{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		URI:      fmt.Sprintf("%s?v=%s", watchBaseURL, video.ID),
		Duration: video.Duration,
		Seekable: true,
	}, nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
