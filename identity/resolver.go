// Package identity maps FACEIT player ids to Discord accounts via the player_links table,
// and exposes the linking entry points used by the registration command and the OAuth
// callback. Resolution is read-only; links are only ever written by the linking flows.
package identity

import (
	"context"
	"database/sql"

	"github.com/onnwee/faceit-bridge/db"
)

// Resolver resolves FACEIT player ids to Discord user ids. It is a thin, stateless view
// over the store: ids with no link are simply absent from the result.
type Resolver struct {
	DB *sql.DB
}

// Resolve performs a single batch lookup and returns faceit_id -> discord_id for every
// id that has a link. Missing links are not an error; not every participant registers.
func (r *Resolver) Resolve(ctx context.Context, faceitIDs []string) (map[string]string, error) {
	links, err := db.GetPlayerLinksByFaceitIDs(ctx, r.DB, faceitIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(links))
	for faceitID, link := range links {
		if link.DiscordID != "" {
			out[faceitID] = link.DiscordID
		}
	}
	return out, nil
}
