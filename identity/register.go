package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/faceit-bridge/db"
	"github.com/onnwee/faceit-bridge/faceitapi"
)

// Linking methods recorded in player_links.verified_method.
const (
	MethodManualSearch = "manual-search"
	MethodOAuth        = "oauth"
)

// ErrPlayerNotFound indicates the nickname does not resolve to any FACEIT player.
// It is distinct from transient lookup failures so the caller can decide to retry.
var ErrPlayerNotFound = errors.New("identity: faceit player not found")

// PlayerSearcher is the slice of the FACEIT client the registration flow needs.
type PlayerSearcher interface {
	SearchPlayer(ctx context.Context, nickname string) (*faceitapi.Player, error)
}

// RegisterResult reports the outcome of a manual registration.
type RegisterResult struct {
	FaceitID    string
	Nickname    string
	Overwritten bool // an earlier link for this Discord account was replaced
}

// Register links a Discord account to the FACEIT player matching the given nickname.
// A later registration for the same Discord account replaces the earlier link (upsert
// semantics). Returns ErrPlayerNotFound when the nickname resolves to nothing.
func Register(ctx context.Context, dbx *sql.DB, searcher PlayerSearcher, discordID, nickname string) (*RegisterResult, error) {
	if discordID == "" || nickname == "" {
		return nil, fmt.Errorf("missing discordID or nickname")
	}
	player, err := searcher.SearchPlayer(ctx, nickname)
	if err != nil {
		if errors.Is(err, faceitapi.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("search player: %w", err)
	}

	existing, err := db.GetPlayerLinkByDiscordID(ctx, dbx, discordID)
	if err != nil {
		return nil, fmt.Errorf("lookup existing link: %w", err)
	}

	if err := db.UpsertPlayerLink(ctx, dbx, discordID, player.ID, player.Nickname, MethodManualSearch); err != nil {
		return nil, fmt.Errorf("upsert link: %w", err)
	}
	return &RegisterResult{
		FaceitID:    player.ID,
		Nickname:    player.Nickname,
		Overwritten: existing != nil,
	}, nil
}

// LinkVerified records an OAuth-verified link for a Discord account. Used by the OAuth
// callback after the userinfo fetch has proven account ownership.
func LinkVerified(ctx context.Context, dbx *sql.DB, discordID, faceitID, nickname string) error {
	if discordID == "" || faceitID == "" {
		return fmt.Errorf("missing discordID or faceitID")
	}
	return db.UpsertPlayerLink(ctx, dbx, discordID, faceitID, nickname, MethodOAuth)
}
