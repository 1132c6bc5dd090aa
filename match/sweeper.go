package match

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// StartStaleSweeper runs a loop tearing down groupings whose finish event never arrived
// (dropped webhooks, process downtime). It reuses the regular teardown path so the
// cache/store invariants hold. Call with `go`.
func (m *Manager) StartStaleSweeper(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		slog.Info("stale match sweeper disabled")
		return
	}
	interval := 15 * time.Minute
	if s := os.Getenv("SWEEP_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			interval = d
		}
	}
	log := m.log.With(slog.String("component", "stale_sweeper"))
	log.Info("stale match sweeper starting", slog.Duration("ttl", ttl), slog.Duration("interval", interval))
	// Kick an immediate run so we don't wait a full interval after boot.
	m.sweepOnce(ctx, ttl, log)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("stale match sweeper stopped")
			return
		case <-ticker.C:
			m.sweepOnce(ctx, ttl, log)
		}
	}
}

func (m *Manager) sweepOnce(ctx context.Context, ttl time.Duration, log *slog.Logger) {
	stale, err := m.store.ListStaleMatches(ctx, time.Now().Add(-ttl))
	if err != nil {
		log.Warn("stale match listing failed", slog.Any("err", err))
		return
	}
	for _, fc := range stale {
		log.Info("sweeping stale grouping",
			slog.String("match_id", fc.MatchID),
			slog.String("faction", fc.Faction),
			slog.Time("created_at", fc.CreatedAt))
		if err := m.teardownFaction(ctx, fc.MatchID, fc.Faction); err != nil {
			log.Warn("stale grouping teardown failed",
				slog.String("match_id", fc.MatchID),
				slog.String("faction", fc.Faction),
				slog.Any("err", err))
		}
	}
}
