// Package faceitapi contains minimal helpers to interact with the FACEIT Data API
// for player search and match detail lookup, using a server-side API key.
package faceitapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Faction names as FACEIT reports them in match rosters.
const (
	Faction1 = "faction1"
	Faction2 = "faction2"
)

var (
	// ErrNotFound indicates the player or match does not exist upstream.
	ErrNotFound = errors.New("faceit: not found")
	// ErrServiceUnavailable indicates a transient upstream failure; callers should
	// rely on webhook redelivery rather than retrying inline.
	ErrServiceUnavailable = errors.New("faceit: service unavailable")
)

// Client provides the minimal FACEIT Data API surface the service needs.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://open.faceit.com/data/v4"
}

// Player is the subset of a FACEIT player record the service uses.
type Player struct {
	ID       string `json:"player_id"`
	Nickname string `json:"nickname"`
}

// MatchDetail carries the roster player ids for both factions of a match.
type MatchDetail struct {
	MatchID string
	Rosters map[string][]string // faction name -> FACEIT player ids
}

// SearchPlayer resolves a nickname to a player via /search/players.
// Returns ErrNotFound when no player matches.
func (c *Client) SearchPlayer(ctx context.Context, nickname string) (*Player, error) {
	if nickname == "" {
		return nil, fmt.Errorf("nickname empty")
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/search/players", nil)
	q := req.URL.Query()
	q.Set("nickname", nickname)
	q.Set("limit", "1")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: search players: %s", ErrServiceUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("faceit search players: %s", resp.Status)
	}
	var body struct {
		Items []Player `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Items) == 0 {
		return nil, ErrNotFound
	}
	return &body.Items[0], nil
}

// GetMatch fetches match detail (roster player ids per faction) via /matches/{id}.
// Returns ErrNotFound for unknown matches and ErrServiceUnavailable on 5xx/transport errors.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchDetail, error) {
	if matchID == "" {
		return nil, fmt.Errorf("matchID empty")
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/matches/"+matchID, nil)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: get match: %s", ErrServiceUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("faceit get match: %s", resp.Status)
	}
	var body struct {
		Teams map[string]struct {
			Roster []struct {
				PlayerID string `json:"player_id"`
			} `json:"roster"`
		} `json:"teams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	md := &MatchDetail{MatchID: matchID, Rosters: make(map[string][]string, len(body.Teams))}
	for faction, team := range body.Teams {
		ids := make([]string, 0, len(team.Roster))
		for _, p := range team.Roster {
			if p.PlayerID != "" {
				ids = append(ids, p.PlayerID)
			}
		}
		md.Rosters[faction] = ids
	}
	return md, nil
}
