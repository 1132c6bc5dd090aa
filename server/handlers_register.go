package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/faceit-bridge/identity"
	"github.com/onnwee/faceit-bridge/telemetry"
)

// HandleRegister links a Discord account to a FACEIT account by nickname search.
// This is the entry point the bot's /register command calls.
//
// POST /register {"discord_id": "...", "nickname": "..."}
// 200 {"status":"linked"|"overwritten", ...}; 404 unknown nickname; 502 transient.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log := telemetry.LoggerWithCorr(r.Context()).With(slog.String("component", "register"))

	var req struct {
		DiscordID string `json:"discord_id"`
		Nickname  string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.DiscordID == "" || req.Nickname == "" {
		http.Error(w, "missing discord_id or nickname", http.StatusBadRequest)
		return
	}

	res, err := identity.Register(r.Context(), h.db, h.deps.Searcher, req.DiscordID, req.Nickname)
	if err != nil {
		if errors.Is(err, identity.ErrPlayerNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": "not_found", "nickname": req.Nickname})
			return
		}
		log.Error("registration failed", slog.String("discord_id", req.DiscordID), slog.Any("err", err))
		http.Error(w, "registration failed", http.StatusBadGateway)
		return
	}

	status := "linked"
	if res.Overwritten {
		status = "overwritten"
	}
	log.Info("player registered",
		slog.String("discord_id", req.DiscordID),
		slog.String("faceit_id", res.FaceitID),
		slog.String("status", status))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"faceit_id": res.FaceitID,
		"nickname":  res.Nickname,
	})
}
