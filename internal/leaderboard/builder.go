// Package leaderboard ranks a guild's players by a stats metric. Rankings
// are recomputed from stored history on demand; ordering is fully
// deterministic so repeated calls over unchanged data return identical
// sequences.
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/wordle-tracker/internal/domain"
	"github.com/wordle-tracker/internal/stats"
)

// Store is the read-only slice of the result store the builder needs.
type Store interface {
	Members(ctx context.Context, guildID string) ([]string, error)
	History(ctx context.Context, playerID, guildID string) ([]domain.Result, error)
}

// Builder computes guild leaderboards.
type Builder struct {
	store  Store
	engine *stats.Engine
}

// New creates a leaderboard builder.
func New(store Store, engine *stats.Engine) *Builder {
	return &Builder{store: store, engine: engine}
}

// Rank returns the guild's players ordered by the given metric, best first.
// Ties break by games played descending, then player id ascending. Players
// without data for the metric are excluded rather than ranked last. A
// limit of 0 returns the full board.
func (b *Builder) Rank(ctx context.Context, guildID string, metric domain.Metric, limit int) ([]domain.Standing, error) {
	if _, err := domain.ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	members, err := b.store.Members(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	standings := make([]domain.Standing, 0, len(members))
	for _, playerID := range members {
		history, err := b.store.History(ctx, playerID, guildID)
		if err != nil {
			return nil, fmt.Errorf("loading history for %s: %w", playerID, err)
		}
		snap := b.engine.Compute(history)
		if snap.TotalGames == 0 {
			continue
		}
		value, ok := metricValue(&snap, metric)
		if !ok {
			continue
		}
		standings = append(standings, domain.Standing{
			PlayerID: playerID,
			Value:    value,
			Games:    snap.TotalGames,
		})
	}

	ascending := metric.Ascending()
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Value != b.Value {
			if ascending {
				return a.Value < b.Value
			}
			return a.Value > b.Value
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.PlayerID < b.PlayerID
	})

	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}

// metricValue extracts the ranked value from a snapshot. The second return
// is false when the player has no data for the metric (a zero-win player
// has no mean attempts).
func metricValue(snap *domain.StatsSnapshot, metric domain.Metric) (float64, bool) {
	switch metric {
	case domain.MetricMeanAttempts:
		if !snap.HasMean() {
			return 0, false
		}
		return snap.MeanAttempts, true
	case domain.MetricWinRate:
		return snap.WinRate, true
	case domain.MetricCurrentStreak:
		return float64(snap.CurrentStreak), true
	case domain.MetricBestStreak:
		return float64(snap.BestStreak), true
	case domain.MetricPoints:
		return float64(snap.Points), true
	default:
		return 0, false
	}
}
