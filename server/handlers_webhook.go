package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/onnwee/faceit-bridge/faceitapi"
	"github.com/onnwee/faceit-bridge/match"
	"github.com/onnwee/faceit-bridge/telemetry"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// HandleWebhook receives FACEIT lifecycle events and feeds them to the manager.
//
// The response code is the contract with the event source's redelivery:
//   - 200 for processed events AND for malformed/unknown ones (permanently dropped);
//   - 502 for transient upstream failures so the source redelivers.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log := telemetry.LoggerWithCorr(r.Context()).With(slog.String("component", "webhook"))

	// Signature presence check only; the exact FACEIT signing scheme is not verified here.
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		if r.Header.Get("X-Faceit-Signature") == "" {
			log.Warn("webhook without signature rejected")
			http.Error(w, "missing signature", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	ev, err := match.ParseEvent(body)
	if err != nil {
		// Undecodable payloads are dropped for good; redelivery won't fix them.
		log.Warn("malformed webhook payload", slog.Any("err", err), slog.String("body", string(body)))
		telemetry.CountIgnored("malformed")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored", "reason": "malformed"})
		return
	}
	telemetry.CountEvent(ev.Kind.String())

	if ev.Kind == match.KindUnknown {
		log.Debug("ignoring unhandled event", slog.String("event", ev.Name))
		telemetry.CountIgnored("unknown_event")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored", "event": ev.Name})
		return
	}
	if ev.MatchID == "" {
		log.Warn("no match id found in payload", slog.String("event", ev.Name), slog.String("body", string(body)))
		telemetry.CountIgnored("no_match_id")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored", "reason": "no_match_id"})
		return
	}

	if err := h.deps.Events.HandleEvent(r.Context(), ev); err != nil {
		if errors.Is(err, faceitapi.ErrNotFound) {
			// The match vanished upstream; nothing redelivery can do.
			log.Warn("match not found upstream", slog.String("match_id", ev.MatchID))
			writeJSON(w, http.StatusOK, map[string]any{"status": "ignored", "reason": "match_not_found"})
			return
		}
		log.Error("event processing failed", slog.String("match_id", ev.MatchID), slog.String("event", ev.Name), slog.Any("err", err))
		http.Error(w, "event processing failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "event": ev.Name})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", err))
	}
}
