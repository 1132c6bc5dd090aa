package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/faceit-bridge/db"
	"github.com/onnwee/faceit-bridge/discordapi"
	"github.com/onnwee/faceit-bridge/faceitapi"
	"github.com/onnwee/faceit-bridge/telemetry"
)

// Store is the durable side of match tracking (active_matches table).
type Store interface {
	UpsertActiveMatch(ctx context.Context, matchID, faction, channelID string) error
	DeleteActiveMatch(ctx context.Context, matchID, faction string) error
	ListActiveMatches(ctx context.Context, matchID string) ([]db.FactionChannel, error)
	ListStaleMatches(ctx context.Context, olderThan time.Time) ([]db.FactionChannel, error)
}

// MatchSource fetches match detail (rosters per faction) from the upstream platform.
type MatchSource interface {
	GetMatch(ctx context.Context, matchID string) (*faceitapi.MatchDetail, error)
}

// Voice is the chat-platform surface the manager needs: create/delete a private voice
// channel and move members in or out of it.
type Voice interface {
	CreateVoiceChannel(ctx context.Context, guildID, name, categoryID string, memberIDs []string) (string, error)
	MoveMember(ctx context.Context, guildID, userID, channelID string) error
	DisconnectMember(ctx context.Context, guildID, userID string) error
	DeleteChannel(ctx context.Context, channelID string) error
}

// IdentityResolver maps FACEIT player ids to Discord user ids.
type IdentityResolver interface {
	Resolve(ctx context.Context, faceitIDs []string) (map[string]string, error)
}

// Manager orchestrates the match lifecycle. All collaborators are injected so the
// manager is testable with fakes; it holds no globals.
type Manager struct {
	store    Store
	matches  MatchSource
	voice    Voice
	resolver IdentityResolver
	cache    *ChannelCache
	keys     *keyedMutex

	guildID    string
	categoryID string
	log        *slog.Logger
}

// NewManager wires the manager with its collaborators. categoryID may be empty, in which
// case channels are created at the guild root.
func NewManager(store Store, matches MatchSource, voice Voice, resolver IdentityResolver, guildID, categoryID string) *Manager {
	return &Manager{
		store:      store,
		matches:    matches,
		voice:      voice,
		resolver:   resolver,
		cache:      NewChannelCache(),
		keys:       newKeyedMutex(),
		guildID:    guildID,
		categoryID: categoryID,
		log:        slog.Default().With(slog.String("component", "match_manager")),
	}
}

// Cache exposes the channel cache for status reporting. All mutation goes through the
// manager; external readers must only use the cache's accessor methods.
func (m *Manager) Cache() *ChannelCache { return m.cache }

// HandleEvent processes one normalized lifecycle event. It returns an error only for
// transient failures where the caller should signal the event source to redeliver;
// malformed or irrelevant events are logged no-ops.
func (m *Manager) HandleEvent(ctx context.Context, ev Event) error {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "match_manager"))
	if ev.Kind == KindUnknown {
		log.Debug("ignoring unknown event", slog.String("event", ev.Name))
		return nil
	}
	if ev.MatchID == "" {
		// Payload shape didn't yield a match id anywhere we probe; drop with diagnostics.
		log.Warn("event without match id", slog.String("event", ev.Name), slog.Any("payload", ev.Raw))
		telemetry.CountIgnored("no_match_id")
		return nil
	}
	switch ev.Kind {
	case KindMatchCreated:
		return m.handleMatchCreated(ctx, ev.MatchID)
	case KindMatchFinished:
		return m.handleMatchFinished(ctx, ev.MatchID)
	}
	return nil
}

func (m *Manager) handleMatchCreated(ctx context.Context, matchID string) error {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "match_manager"), slog.String("match_id", matchID))

	detail, err := m.matches.GetMatch(ctx, matchID)
	if err != nil {
		// No partial groupings: abort the whole event and rely on webhook redelivery.
		return fmt.Errorf("fetch match detail: %w", err)
	}

	// Factions are independent; run them concurrently and never let one faction's
	// failure block the other. A plain errgroup (no shared cancel) keeps both running.
	var g errgroup.Group
	for _, faction := range []string{faceitapi.Faction1, faceitapi.Faction2} {
		roster := detail.Rosters[faction]
		g.Go(func() error {
			if err := m.createFactionChannel(ctx, matchID, faction, roster); err != nil {
				log.Error("faction channel setup failed", slog.String("faction", faction), slog.Any("err", err))
				return fmt.Errorf("%s: %w", faction, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// createFactionChannel runs the Absent -> Creating -> Active transition for one faction.
// The per-key mutex is held across the whole sequence, so a concurrent duplicate event
// blocks here and then sees the Active state in its re-check.
func (m *Manager) createFactionChannel(ctx context.Context, matchID, faction string, roster []string) error {
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("component", "match_manager"),
		slog.String("match_id", matchID),
		slog.String("faction", faction),
	)

	if len(roster) == 0 {
		log.Debug("empty roster; nothing to create")
		return nil
	}

	unlock := m.keys.lock(matchID + "/" + faction)
	defer unlock()

	// Re-check state now that we hold the key: a duplicate MatchCreated while a channel
	// exists (cached or only durable) is a no-op.
	if _, ok := m.cache.Lookup(matchID, faction); ok {
		log.Debug("channel already tracked; duplicate event ignored")
		return nil
	}
	existing, err := m.store.ListActiveMatches(ctx, matchID)
	if err != nil {
		return fmt.Errorf("list active matches: %w", err)
	}
	for _, fc := range existing {
		// Warm the cache from the store (covers restarts with a cold cache).
		m.cache.Put(fc.MatchID, fc.Faction, Entry{ChannelID: fc.ChannelID})
		if fc.Faction == faction {
			log.Debug("channel already recorded in store; duplicate event ignored")
			return nil
		}
	}

	resolved, err := m.resolver.Resolve(ctx, roster)
	if err != nil {
		return fmt.Errorf("resolve roster: %w", err)
	}
	members := make([]string, 0, len(resolved))
	for _, faceitID := range roster {
		if discordID, ok := resolved[faceitID]; ok {
			members = append(members, discordID)
		}
	}
	if len(members) == 0 {
		// Not an error: not every participant links an account. Don't create an empty channel.
		log.Info("no linked participants; skipping faction", slog.Int("roster_size", len(roster)))
		return nil
	}

	name := channelName(matchID, faction)
	channelID, err := m.voice.CreateVoiceChannel(ctx, m.guildID, name, m.categoryID, members)
	if err != nil {
		telemetry.ChannelCreateFailures.Inc()
		return fmt.Errorf("create voice channel: %w", err)
	}

	// Store before cache: a crash between the two leaves the store as ground truth and
	// the cache merely cold, never a cache entry without a durable record.
	if err := m.store.UpsertActiveMatch(ctx, matchID, faction, channelID); err != nil {
		// Untracked channels leak forever; better to drop the fresh channel and let
		// redelivery start over.
		if derr := m.voice.DeleteChannel(ctx, channelID); derr != nil {
			log.Warn("rollback channel delete failed", slog.String("channel_id", channelID), slog.Any("err", derr))
		}
		return fmt.Errorf("persist active match: %w", err)
	}
	m.cache.Put(matchID, faction, Entry{ChannelID: channelID, Members: members})
	telemetry.ChannelsCreated.Inc()
	telemetry.SetActiveGroupings(m.cache.Size())
	log.Info("voice channel created", slog.String("channel_id", channelID), slog.Int("members", len(members)))

	for _, discordID := range members {
		if err := m.voice.MoveMember(ctx, m.guildID, discordID, channelID); err != nil {
			if errors.Is(err, discordapi.ErrMemberNotConnected) {
				log.Debug("member not in voice; skipping move", slog.String("user_id", discordID))
				continue
			}
			telemetry.MemberMoveFailures.Inc()
			log.Warn("member move failed", slog.String("user_id", discordID), slog.Any("err", err))
			continue
		}
		telemetry.MembersMoved.Inc()
	}
	return nil
}

func (m *Manager) handleMatchFinished(ctx context.Context, matchID string) error {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "match_manager"), slog.String("match_id", matchID))

	entries := m.cache.Get(matchID)
	if len(entries) == 0 {
		// Cold cache or finish-before-create: fall back to the store and repopulate.
		list, err := m.store.ListActiveMatches(ctx, matchID)
		if err != nil {
			return fmt.Errorf("list active matches: %w", err)
		}
		for _, fc := range list {
			m.cache.Put(fc.MatchID, fc.Faction, Entry{ChannelID: fc.ChannelID})
			entries[fc.Faction] = fc.ChannelID
		}
	}
	if len(entries) == 0 {
		// Out-of-order or duplicate finish; at-least-once delivery makes this normal.
		log.Debug("no tracked channels for finished match")
		return nil
	}

	var errs []error
	for faction := range entries {
		if err := m.teardownFaction(ctx, matchID, faction); err != nil {
			log.Error("faction teardown failed", slog.String("faction", faction), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", faction, err))
		}
	}
	return errors.Join(errs...)
}

// teardownFaction runs Active -> Removing -> Absent for one faction. Deleting the
// platform channel is attempted first but its failure does not block store cleanup:
// a dangling channel with no tracking record beats a tracking record for a channel
// that is gone.
func (m *Manager) teardownFaction(ctx context.Context, matchID, faction string) error {
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("component", "match_manager"),
		slog.String("match_id", matchID),
		slog.String("faction", faction),
	)

	unlock := m.keys.lock(matchID + "/" + faction)
	defer unlock()

	entry, ok := m.cache.Lookup(matchID, faction)
	if !ok {
		// Re-check the store under the lock; a concurrent finish may have won.
		list, err := m.store.ListActiveMatches(ctx, matchID)
		if err != nil {
			return fmt.Errorf("list active matches: %w", err)
		}
		for _, fc := range list {
			if fc.Faction == faction {
				entry = Entry{ChannelID: fc.ChannelID}
				ok = true
				break
			}
		}
		if !ok {
			log.Debug("channel already gone; duplicate finish ignored")
			return nil
		}
	}

	for _, discordID := range entry.Members {
		if err := m.voice.DisconnectMember(ctx, m.guildID, discordID); err != nil && !errors.Is(err, discordapi.ErrMemberNotConnected) {
			log.Debug("member disconnect failed", slog.String("user_id", discordID), slog.Any("err", err))
		}
	}

	if err := m.voice.DeleteChannel(ctx, entry.ChannelID); err != nil {
		telemetry.ChannelDeleteFailures.Inc()
		log.Warn("channel delete failed; cleaning up tracking anyway", slog.String("channel_id", entry.ChannelID), slog.Any("err", err))
	} else {
		telemetry.ChannelsDeleted.Inc()
	}

	if err := m.store.DeleteActiveMatch(ctx, matchID, faction); err != nil {
		// Keep the cache entry so the state stays consistent; redelivery retries cleanup.
		return fmt.Errorf("delete active match: %w", err)
	}
	m.cache.Evict(matchID, faction)
	telemetry.SetActiveGroupings(m.cache.Size())
	log.Info("voice channel removed", slog.String("channel_id", entry.ChannelID))
	return nil
}

// channelName derives the voice channel name for a faction of a match.
func channelName(matchID, faction string) string {
	short := matchID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Match %s-%s", short, faction)
}
