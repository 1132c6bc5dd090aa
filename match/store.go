package match

import (
	"context"
	"database/sql"
	"time"

	"github.com/onnwee/faceit-bridge/db"
)

// SQLStore adapts the db package's active_matches helpers to the Store interface.
type SQLStore struct{ DB *sql.DB }

func (s *SQLStore) UpsertActiveMatch(ctx context.Context, matchID, faction, channelID string) error {
	return db.UpsertActiveMatch(ctx, s.DB, matchID, faction, channelID)
}

func (s *SQLStore) DeleteActiveMatch(ctx context.Context, matchID, faction string) error {
	return db.DeleteActiveMatch(ctx, s.DB, matchID, faction)
}

func (s *SQLStore) ListActiveMatches(ctx context.Context, matchID string) ([]db.FactionChannel, error) {
	return db.ListActiveMatches(ctx, s.DB, matchID)
}

func (s *SQLStore) ListStaleMatches(ctx context.Context, olderThan time.Time) ([]db.FactionChannel, error) {
	return db.ListStaleMatches(ctx, s.DB, olderThan)
}
