// Package service exposes the read side of the tracker: player cards,
// histories, and guild leaderboards, with an optional cache in front of the
// compute path.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wordle-tracker/internal/config"
	"github.com/wordle-tracker/internal/domain"
	"github.com/wordle-tracker/internal/leaderboard"
	"github.com/wordle-tracker/internal/stats"
)

// Store is the read-only slice of the result store the service needs.
type Store interface {
	History(ctx context.Context, playerID, guildID string) ([]domain.Result, error)
	Members(ctx context.Context, guildID string) ([]string, error)
	DisplayNames(ctx context.Context, playerIDs []string) (map[string]string, error)
	Ping(ctx context.Context) error
}

// Cache memoizes computed snapshots and standings. All methods are
// best-effort; a cache failure degrades to a recompute, never to an error.
type Cache interface {
	GetSnapshot(ctx context.Context, guildID, playerID string) (*domain.StatsSnapshot, error)
	SetSnapshot(ctx context.Context, guildID string, snap *domain.StatsSnapshot) error
	GetStandings(ctx context.Context, guildID string, metric domain.Metric) ([]domain.Standing, error)
	SetStandings(ctx context.Context, guildID string, metric domain.Metric, standings []domain.Standing) error
	InvalidateGuild(ctx context.Context, guildID string) error
}

// Broadcaster pushes refreshed boards to live subscribers.
type Broadcaster interface {
	BroadcastLeaderboard(guildID string, metric domain.Metric, standings []domain.Standing)
}

// PlayerCard is a stats snapshot with the player's display name attached.
type PlayerCard struct {
	DisplayName string               `json:"display_name"`
	Stats       domain.StatsSnapshot `json:"stats"`
}

// HistoryFilter narrows a history query. Zero values mean "no constraint".
// Failed results sort above six attempts for the attempts bounds, so
// MaxAttempts=6 excludes failures and MinAttempts=7 selects only them.
type HistoryFilter struct {
	Limit       int
	MinAttempts int
	MaxAttempts int
}

// StatsService answers stats and leaderboard queries over stored results.
type StatsService struct {
	store  Store
	engine *stats.Engine
	boards *leaderboard.Builder
	cache  Cache
	hub    Broadcaster
	cfg    config.StatsConfig
	logger *slog.Logger
}

// NewStatsService creates the query service. The cache is optional.
func NewStatsService(store Store, engine *stats.Engine, boards *leaderboard.Builder, cache Cache, cfg config.StatsConfig, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		engine: engine,
		boards: boards,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// SetHub attaches the WebSocket hub for leaderboard broadcasts.
func (s *StatsService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// PlayerStats computes a player's snapshot within a guild. An empty guildID
// aggregates the player's results across all guilds. Players with no
// recorded results get an all-zero snapshot rather than an error.
func (s *StatsService) PlayerStats(ctx context.Context, guildID, playerID string) (*PlayerCard, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id required", domain.ErrInvalidRequest)
	}

	snap, err := s.snapshot(ctx, guildID, playerID)
	if err != nil {
		return nil, err
	}

	names, err := s.store.DisplayNames(ctx, []string{playerID})
	if err != nil {
		return nil, err
	}
	return &PlayerCard{DisplayName: names[playerID], Stats: *snap}, nil
}

// snapshot returns the player's snapshot, from cache when possible.
// Cross-guild snapshots bypass the cache; invalidation is per guild.
func (s *StatsService) snapshot(ctx context.Context, guildID, playerID string) (*domain.StatsSnapshot, error) {
	if s.cache != nil && guildID != "" {
		cached, err := s.cache.GetSnapshot(ctx, guildID, playerID)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", "guild_id", guildID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	history, err := s.store.History(ctx, playerID, guildID)
	if err != nil {
		return nil, err
	}
	snap := s.engine.Compute(history)
	snap.PlayerID = playerID
	snap.GuildID = guildID

	if s.cache != nil && guildID != "" {
		if err := s.cache.SetSnapshot(ctx, guildID, &snap); err != nil {
			s.logger.Warn("snapshot cache write failed", "guild_id", guildID, "error", err)
		}
	}
	return &snap, nil
}

// Leaderboard returns the guild's board for a metric. The full board is
// cached and the limit applied on the way out, so every limit shares one
// cache entry. A limit of 0 uses the configured default.
func (s *StatsService) Leaderboard(ctx context.Context, guildID, metricName string, limit int) ([]domain.Standing, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild id required", domain.ErrInvalidRequest)
	}
	metric, err := domain.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	standings, err := s.fullBoard(ctx, guildID, metric)
	if err != nil {
		return nil, err
	}
	if len(standings) > limit {
		standings = standings[:limit]
	}

	if err := s.fillNames(ctx, standings); err != nil {
		return nil, err
	}
	return standings, nil
}

func (s *StatsService) fullBoard(ctx context.Context, guildID string, metric domain.Metric) ([]domain.Standing, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStandings(ctx, guildID, metric)
		if err != nil {
			s.logger.Warn("standings cache read failed", "guild_id", guildID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	standings, err := s.boards.Rank(ctx, guildID, metric, 0)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetStandings(ctx, guildID, metric, standings); err != nil {
			s.logger.Warn("standings cache write failed", "guild_id", guildID, "error", err)
		}
	}
	return standings, nil
}

// fillNames resolves display names onto standings. Names are attached at
// read time so a renamed player never requires a board recompute.
func (s *StatsService) fillNames(ctx context.Context, standings []domain.Standing) error {
	if len(standings) == 0 {
		return nil
	}
	ids := make([]string, len(standings))
	for i, st := range standings {
		ids[i] = st.PlayerID
	}
	names, err := s.store.DisplayNames(ctx, ids)
	if err != nil {
		return err
	}
	for i := range standings {
		standings[i].DisplayName = names[standings[i].PlayerID]
	}
	return nil
}

// History returns a player's results in the guild, oldest first. An empty
// guildID returns the cross-guild history. The limit keeps the most recent
// results.
func (s *StatsService) History(ctx context.Context, guildID, playerID string, filter HistoryFilter) ([]domain.Result, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id required", domain.ErrInvalidRequest)
	}

	history, err := s.store.History(ctx, playerID, guildID)
	if err != nil {
		return nil, err
	}

	if filter.MinAttempts > 0 || filter.MaxAttempts > 0 {
		filtered := make([]domain.Result, 0, len(history))
		for _, result := range history {
			attempts := result.Attempts
			if attempts == domain.FailedAttempts {
				attempts = domain.MaxAttempts + 1
			}
			if filter.MinAttempts > 0 && attempts < filter.MinAttempts {
				continue
			}
			if filter.MaxAttempts > 0 && attempts > filter.MaxAttempts {
				continue
			}
			filtered = append(filtered, result)
		}
		history = filtered
	}

	if filter.Limit > 0 && len(history) > filter.Limit {
		history = history[len(history)-filter.Limit:]
	}
	return history, nil
}

// Members returns the guild's players with their display names.
func (s *StatsService) Members(ctx context.Context, guildID string) ([]domain.Player, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild id required", domain.ErrInvalidRequest)
	}

	ids, err := s.store.Members(ctx, guildID)
	if err != nil {
		return nil, err
	}
	names, err := s.store.DisplayNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	players := make([]domain.Player, len(ids))
	for i, id := range ids {
		players[i] = domain.Player{ID: id, DisplayName: names[id]}
	}
	return players, nil
}

// RefreshGuild recomputes and re-caches every metric's board for a guild,
// then broadcasts the refreshed boards to subscribers. Used by the refresh
// worker to keep hot guilds warm between result submissions.
func (s *StatsService) RefreshGuild(ctx context.Context, guildID string) error {
	if s.cache != nil {
		if err := s.cache.InvalidateGuild(ctx, guildID); err != nil {
			s.logger.Warn("guild cache invalidation failed", "guild_id", guildID, "error", err)
		}
	}

	for _, metric := range domain.Metrics {
		standings, err := s.fullBoard(ctx, guildID, metric)
		if err != nil {
			return fmt.Errorf("refreshing %s board: %w", metric, err)
		}
		if s.hub != nil {
			if err := s.fillNames(ctx, standings); err != nil {
				return err
			}
			s.hub.BroadcastLeaderboard(guildID, metric, standings)
		}
	}

	s.logger.Debug("guild boards refreshed", "guild_id", guildID)
	return nil
}

// Ping reports backend availability for readiness checks.
func (s *StatsService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
