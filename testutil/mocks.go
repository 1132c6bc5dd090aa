package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// MockFaceitServer creates a test server that mocks FACEIT Data API responses
type MockFaceitServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockFaceitServer creates a new mock FACEIT API server
func NewMockFaceitServer(t *testing.T) *MockFaceitServer {
	t.Helper()
	m := &MockFaceitServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockPlayerSearch adds a handler for /search/players returning one player
func (m *MockFaceitServer) MockPlayerSearch(playerID, nickname string) {
	m.Handlers["/search/players"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"items": []map[string]string{
				{"player_id": playerID, "nickname": nickname},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockPlayerSearchEmpty adds a handler for /search/players returning no results
func (m *MockFaceitServer) MockPlayerSearchEmpty() {
	m.Handlers["/search/players"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": []any{}}) //nolint:errcheck // test mock response
	}
}

// MockMatchDetail adds a handler for /matches/{id} with the given rosters
func (m *MockFaceitServer) MockMatchDetail(matchID string, rosters map[string][]string) {
	teams := make(map[string]interface{}, len(rosters))
	for faction, ids := range rosters {
		roster := make([]map[string]string, 0, len(ids))
		for _, id := range ids {
			roster = append(roster, map[string]string{"player_id": id})
		}
		teams[faction] = map[string]interface{}{"roster": roster}
	}
	m.Handlers["/matches/"+matchID] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"teams": teams}) //nolint:errcheck // test mock response
	}
}

// MockDiscordServer creates a test server that mocks the Discord REST API for
// channel create/delete and member moves, counting calls for assertions.
type MockDiscordServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	ChannelCreates atomic.Int64
	ChannelDeletes atomic.Int64
	MemberMoves    atomic.Int64
}

// NewMockDiscordServer creates a new mock Discord API server
func NewMockDiscordServer(t *testing.T) *MockDiscordServer {
	t.Helper()
	m := &MockDiscordServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockChannelCreate adds a handler for guild channel creation returning channelID
func (m *MockDiscordServer) MockChannelCreate(guildID, channelID string) {
	m.Handlers["POST /guilds/"+guildID+"/channels"] = func(w http.ResponseWriter, r *http.Request) {
		m.ChannelCreates.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": channelID}) //nolint:errcheck // test mock response
	}
}

// MockChannelDelete adds a handler for channel deletion
func (m *MockDiscordServer) MockChannelDelete(channelID string) {
	m.Handlers["DELETE /channels/"+channelID] = func(w http.ResponseWriter, r *http.Request) {
		m.ChannelDeletes.Add(1)
		w.WriteHeader(http.StatusOK)
	}
}

// MockMemberMove adds a handler for moving a guild member between voice channels
func (m *MockDiscordServer) MockMemberMove(guildID, userID string) {
	m.Handlers["PATCH /guilds/"+guildID+"/members/"+userID] = func(w http.ResponseWriter, r *http.Request) {
		m.MemberMoves.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}
}

// MockMemberNotConnected adds a member-move handler that reports the member as not in voice
func (m *MockDiscordServer) MockMemberNotConnected(guildID, userID string) {
	m.Handlers["PATCH /guilds/"+guildID+"/members/"+userID] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}
}
