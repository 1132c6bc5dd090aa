package server

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/faceit-bridge/config"
	"github.com/onnwee/faceit-bridge/faceitapi"
	"github.com/onnwee/faceit-bridge/identity"
	"github.com/onnwee/faceit-bridge/telemetry"
)

// HandleFaceitOAuthStart initiates the FACEIT OAuth linking flow (PKCE) and redirects
// the user to FACEIT. The Discord account being linked is carried through the state.
//
// GET /auth/faceit/start?discord_id=...
func (h *Handlers) HandleFaceitOAuthStart(w http.ResponseWriter, r *http.Request) {
	cfg, _ := config.Load() // ignore error; minimal usage
	if err := cfg.ValidateOAuthReady(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	discordID := r.URL.Query().Get("discord_id")
	if discordID == "" {
		http.Error(w, "missing discord_id", http.StatusBadRequest)
		return
	}
	// generate state
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		http.Error(w, "state gen error", 500)
		return
	}
	st := hex.EncodeToString(b)
	verifier := faceitapi.GenerateVerifier()
	h.addOAuthState(st, oauthState{
		discordID: discordID,
		verifier:  verifier,
		expiry:    time.Now().Add(10 * time.Minute),
	})
	oc := faceitapi.OAuthConfig(cfg.FaceitClientID, cfg.FaceitClientSecret, cfg.FaceitRedirectURI, cfg.FaceitScopes)
	authURL, err := faceitapi.BuildAuthorizeURL(oc, st, verifier)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleFaceitOAuthCallback completes the PKCE exchange, fetches the verified FACEIT
// identity, and writes the link for the Discord account that started the flow.
func (h *Handlers) HandleFaceitOAuthCallback(w http.ResponseWriter, r *http.Request) {
	cfg, _ := config.Load()
	code := r.URL.Query().Get("code")
	st := r.URL.Query().Get("state")
	if code == "" || st == "" {
		http.Error(w, "missing code/state", 400)
		return
	}
	state, ok := h.takeOAuthState(st)
	if !ok {
		http.Error(w, "invalid state", 400)
		return
	}
	ctx := r.Context()
	oc := faceitapi.OAuthConfig(cfg.FaceitClientID, cfg.FaceitClientSecret, cfg.FaceitRedirectURI, cfg.FaceitScopes)
	tok, err := faceitapi.ExchangeAuthCode(ctx, oc, code, state.verifier)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	info, err := faceitapi.FetchUserInfo(ctx, nil, tok.AccessToken)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if err := identity.LinkVerified(ctx, h.db, state.discordID, info.GUID, info.Nickname); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	telemetry.LoggerWithCorr(ctx).Info("player verified via oauth",
		slog.String("discord_id", state.discordID),
		slog.String("faceit_id", info.GUID),
		slog.String("component", "oauth"))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "linked",
		"nickname": info.Nickname,
	})
}
