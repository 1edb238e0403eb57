package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	mcerr "github.com/xuanbachtran02/MusicCat/internal/errors"
	"github.com/xuanbachtran02/MusicCat/internal/music/audio"
	"github.com/xuanbachtran02/MusicCat/internal/music/track"
)

// LoadTracks resolves an identifier (URL or ytsearch: query) on the node.
func (n *Node) LoadTracks(ctx context.Context, identifier string) (audio.LoadResult, error) {
	endpoint := n.baseURL + "/v4/loadtracks?identifier=" + url.QueryEscape(identifier)

	var res loadResponse
	if err := n.doJSON(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return audio.LoadResult{}, err
	}

	switch res.LoadType {
	case "track":
		var t wireTrack
		if err := json.Unmarshal(res.Data, &t); err != nil {
			return audio.LoadResult{}, fmt.Errorf("decode track result: %w", err)
		}
		return audio.LoadResult{Type: audio.LoadTypeTrack, Tracks: []track.Track{t.descriptor()}}, nil

	case "playlist":
		var pl wirePlaylist
		if err := json.Unmarshal(res.Data, &pl); err != nil {
			return audio.LoadResult{}, fmt.Errorf("decode playlist result: %w", err)
		}
		tracks := make([]track.Track, 0, len(pl.Tracks))
		for _, t := range pl.Tracks {
			tracks = append(tracks, t.descriptor())
		}
		return audio.LoadResult{Type: audio.LoadTypePlaylist, Tracks: tracks}, nil

	case "search":
		var wire []wireTrack
		if err := json.Unmarshal(res.Data, &wire); err != nil {
			return audio.LoadResult{}, fmt.Errorf("decode search result: %w", err)
		}
		tracks := make([]track.Track, 0, len(wire))
		for _, t := range wire {
			tracks = append(tracks, t.descriptor())
		}
		return audio.LoadResult{Type: audio.LoadTypeSearch, Tracks: tracks}, nil

	case "error":
		var exc wireException
		if err := json.Unmarshal(res.Data, &exc); err == nil && exc.Message != "" {
			return audio.LoadResult{Type: audio.LoadTypeError},
				mcerr.External("track load failed: "+exc.Message, nil)
		}
		return audio.LoadResult{Type: audio.LoadTypeError}, mcerr.External("track load failed", nil)

	default: // "empty"
		return audio.LoadResult{Type: audio.LoadTypeEmpty}, nil
	}
}

// updatePlayer patches the guild's player on the node.
func (n *Node) updatePlayer(ctx context.Context, guildID string, upd playerUpdate) error {
	sessionID := n.currentSessionID()
	if sessionID == "" {
		return mcerr.External("audio node session is not ready", nil)
	}
	endpoint := fmt.Sprintf("%s/v4/sessions/%s/players/%s?noReplace=false",
		n.baseURL, sessionID, guildID)
	return n.doJSON(ctx, http.MethodPatch, endpoint, upd, nil)
}

// destroyPlayer removes the guild's player from the node.
func (n *Node) destroyPlayer(ctx context.Context, guildID string) error {
	sessionID := n.currentSessionID()
	if sessionID == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s/v4/sessions/%s/players/%s", n.baseURL, sessionID, guildID)
	return n.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

// doJSON performs one authenticated REST round trip against the node.
func (n *Node) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build node request: %w", err)
	}
	req.Header.Set("Authorization", n.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return mcerr.External("audio node unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return mcerr.External(fmt.Sprintf("audio node returned %d", resp.StatusCode), nil).
			WithMeta("body", string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return mcerr.External("decode node response", err)
	}
	return nil
}
