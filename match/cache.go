package match

import "sync"

// Entry is the cached state for one faction of one match: the voice channel id and the
// members that were moved into it. Members are best-effort bookkeeping for teardown and
// are lost on restart; the durable active_matches row remains the source of truth.
type Entry struct {
	ChannelID string
	Members   []string
}

// ChannelCache is the process-local mapping from match id to per-faction voice channels.
// It mirrors the active_matches table for fast lookup and is rebuilt lazily from the
// store after a restart (a cold cache is always valid). Callers must write the store
// before putting an entry here, so a crash never leaves a cache entry without a durable
// backing record.
type ChannelCache struct {
	mu sync.RWMutex
	m  map[string]map[string]Entry // match id -> faction -> entry
}

func NewChannelCache() *ChannelCache {
	return &ChannelCache{m: make(map[string]map[string]Entry)}
}

// Get returns faction -> channel id for a match (empty map when unknown; the caller
// falls back to the store).
func (c *ChannelCache) Get(matchID string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.m[matchID]))
	for faction, e := range c.m[matchID] {
		out[faction] = e.ChannelID
	}
	return out
}

// Lookup returns the entry for one (match, faction) key.
func (c *ChannelCache) Lookup(matchID, faction string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[matchID][faction]
	return e, ok
}

// Put records the entry for a (match, faction) key. The corresponding store write must
// already have succeeded.
func (c *ChannelCache) Put(matchID, faction string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	factions, ok := c.m[matchID]
	if !ok {
		factions = make(map[string]Entry, 2)
		c.m[matchID] = factions
	}
	factions[faction] = e
}

// Evict removes one (match, faction) entry.
func (c *ChannelCache) Evict(matchID, faction string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if factions, ok := c.m[matchID]; ok {
		delete(factions, faction)
		if len(factions) == 0 {
			delete(c.m, matchID)
		}
	}
}

// EvictAll removes every entry for a match.
func (c *ChannelCache) EvictAll(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, matchID)
}

// Size returns the number of tracked (match, faction) entries.
func (c *ChannelCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, factions := range c.m {
		n += len(factions)
	}
	return n
}

// Snapshot returns a copy of the full mapping, for the status endpoint.
func (c *ChannelCache) Snapshot() map[string]map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]map[string]string, len(c.m))
	for matchID, factions := range c.m {
		fm := make(map[string]string, len(factions))
		for faction, e := range factions {
			fm[faction] = e.ChannelID
		}
		out[matchID] = fm
	}
	return out
}
