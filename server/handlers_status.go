package server

import (
	"log/slog"
	"net/http"

	"github.com/onnwee/faceit-bridge/db"
	"github.com/onnwee/faceit-bridge/telemetry"
)

// HandleStatus reports the service's tracking state: active groupings from the durable
// store and the linked-player count. Both go through the store so the response reflects
// ground truth even with a cold cache.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := telemetry.LoggerWithCorr(ctx)

	groupings, err := db.CountActiveMatches(ctx, h.db)
	if err != nil {
		log.Error("count active matches failed", slog.Any("err", err))
		http.Error(w, "status query failed", http.StatusInternalServerError)
		return
	}
	links, err := db.CountPlayerLinks(ctx, h.db)
	if err != nil {
		log.Error("count player links failed", slog.Any("err", err))
		http.Error(w, "status query failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active_groupings": groupings,
		"linked_players":   links,
	})
}
