// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/onnwee/faceit-bridge/identity"
	"github.com/onnwee/faceit-bridge/match"
)

const (
	// Maximum number of OAuth states to keep in memory
	maxOAuthStates = 10000
)

// EventHandler processes normalized lifecycle events (implemented by match.Manager).
type EventHandler interface {
	HandleEvent(ctx context.Context, ev match.Event) error
}

// Deps are the collaborators the handlers need beyond the database.
type Deps struct {
	Events   EventHandler
	Searcher identity.PlayerSearcher
}

// oauthState tracks one in-flight OAuth linking attempt: which Discord account started
// it and the PKCE verifier to present at code exchange.
type oauthState struct {
	discordID string
	verifier  string
	expiry    time.Time
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db         *sql.DB
	ctx        context.Context
	deps       Deps
	stateStore map[string]oauthState
	stateMu    sync.RWMutex
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, db *sql.DB, deps Deps) *Handlers {
	return &Handlers{
		db:         db,
		ctx:        ctx,
		deps:       deps,
		stateStore: make(map[string]oauthState),
	}
}

// cleanExpiredStates removes expired OAuth states from the store.
// This should be called with stateMu locked.
func (h *Handlers) cleanExpiredStates() {
	now := time.Now()
	for state, st := range h.stateStore {
		if now.After(st.expiry) {
			delete(h.stateStore, state)
		}
	}
}

// addOAuthState adds a new OAuth state to the store with cleanup if needed.
func (h *Handlers) addOAuthState(state string, st oauthState) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	// Clean expired states periodically to prevent unbounded growth
	if len(h.stateStore)%100 == 0 {
		h.cleanExpiredStates()
	}

	// If we're still over the limit after cleanup, refuse to add more
	if len(h.stateStore) >= maxOAuthStates {
		// Don't add the state - this will cause the OAuth flow to fail
		// which is better than a memory exhaustion attack
		return
	}

	h.stateStore[state] = st
}

// takeOAuthState validates and consumes a state token, returning it if still valid.
func (h *Handlers) takeOAuthState(state string) (oauthState, bool) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	st, ok := h.stateStore[state]
	if !ok || time.Now().After(st.expiry) {
		return oauthState{}, false
	}
	delete(h.stateStore, state)
	return st, true
}
