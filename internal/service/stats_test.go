package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/wordle-tracker/internal/config"
	"github.com/wordle-tracker/internal/domain"
	"github.com/wordle-tracker/internal/leaderboard"
	"github.com/wordle-tracker/internal/stats"
)

// fakeStore serves canned histories, keyed by player id.
type fakeStore struct {
	histories    map[string][]domain.Result
	names        map[string]string
	historyCalls int
}

func (f *fakeStore) History(ctx context.Context, playerID, guildID string) ([]domain.Result, error) {
	f.historyCalls++
	return f.histories[playerID], nil
}

func (f *fakeStore) Members(ctx context.Context, guildID string) ([]string, error) {
	members := make([]string, 0, len(f.histories))
	for id := range f.histories {
		members = append(members, id)
	}
	return members, nil
}

func (f *fakeStore) DisplayNames(ctx context.Context, playerIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(playerIDs))
	for _, id := range playerIDs {
		if name, ok := f.names[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

type fakeCache struct {
	snaps       map[string]*domain.StatsSnapshot
	boards      map[string][]domain.Standing
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		snaps:  make(map[string]*domain.StatsSnapshot),
		boards: make(map[string][]domain.Standing),
	}
}

func (f *fakeCache) GetSnapshot(ctx context.Context, guildID, playerID string) (*domain.StatsSnapshot, error) {
	return f.snaps[guildID+"/"+playerID], nil
}

func (f *fakeCache) SetSnapshot(ctx context.Context, guildID string, snap *domain.StatsSnapshot) error {
	f.snaps[guildID+"/"+snap.PlayerID] = snap
	return nil
}

func (f *fakeCache) GetStandings(ctx context.Context, guildID string, metric domain.Metric) ([]domain.Standing, error) {
	return f.boards[guildID+"/"+string(metric)], nil
}

func (f *fakeCache) SetStandings(ctx context.Context, guildID string, metric domain.Metric, standings []domain.Standing) error {
	f.boards[guildID+"/"+string(metric)] = standings
	return nil
}

func (f *fakeCache) InvalidateGuild(ctx context.Context, guildID string) error {
	f.invalidated++
	f.snaps = make(map[string]*domain.StatsSnapshot)
	f.boards = make(map[string][]domain.Standing)
	return nil
}

type fakeHub struct {
	broadcasts []domain.Metric
}

func (f *fakeHub) BroadcastLeaderboard(guildID string, metric domain.Metric, standings []domain.Standing) {
	f.broadcasts = append(f.broadcasts, metric)
}

func win(puzzle, attempts int) domain.Result {
	return domain.Result{
		PlayerID:     "p1",
		GuildID:      "g1",
		PuzzleNumber: puzzle,
		Attempts:     attempts,
		SubmittedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func fail(puzzle int) domain.Result {
	return win(puzzle, domain.FailedAttempts)
}

func newService(store *fakeStore, cache Cache) *StatsService {
	engine := stats.NewEngine(domain.DefaultPointValues())
	boards := leaderboard.New(store, engine)
	cfg := config.StatsConfig{DefaultLimit: 3, MaxLimit: 5}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStatsService(store, engine, boards, cache, cfg, logger)
}

func TestPlayerStatsComputesCard(t *testing.T) {
	store := &fakeStore{
		histories: map[string][]domain.Result{
			"p1": {win(100, 3), win(101, 4), fail(102)},
		},
		names: map[string]string{"p1": "Alice"},
	}
	svc := newService(store, nil)

	card, err := svc.PlayerStats(context.Background(), "g1", "p1")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	if card.DisplayName != "Alice" {
		t.Errorf("display name = %q", card.DisplayName)
	}
	if card.Stats.TotalGames != 3 || card.Stats.Wins != 2 || card.Stats.Losses != 1 {
		t.Errorf("stats = %+v", card.Stats)
	}
	if card.Stats.PlayerID != "p1" || card.Stats.GuildID != "g1" {
		t.Errorf("snapshot identity = %s/%s", card.Stats.PlayerID, card.Stats.GuildID)
	}
}

func TestPlayerStatsUnknownPlayer(t *testing.T) {
	store := &fakeStore{histories: map[string][]domain.Result{}, names: map[string]string{}}
	svc := newService(store, nil)

	card, err := svc.PlayerStats(context.Background(), "g1", "nobody")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	if card.Stats.TotalGames != 0 {
		t.Errorf("expected zero snapshot, got %+v", card.Stats)
	}
}

func TestPlayerStatsUsesSnapshotCache(t *testing.T) {
	store := &fakeStore{
		histories: map[string][]domain.Result{"p1": {win(100, 3)}},
		names:     map[string]string{"p1": "Alice"},
	}
	cache := newFakeCache()
	svc := newService(store, cache)

	if _, err := svc.PlayerStats(context.Background(), "g1", "p1"); err != nil {
		t.Fatalf("first read: %v", err)
	}
	callsAfterFirst := store.historyCalls

	if _, err := svc.PlayerStats(context.Background(), "g1", "p1"); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if store.historyCalls != callsAfterFirst {
		t.Errorf("second read hit the store, calls = %d", store.historyCalls)
	}
}

func TestLeaderboardCachesFullBoard(t *testing.T) {
	store := &fakeStore{
		histories: map[string][]domain.Result{
			"p1": {win(100, 3)},
		},
		names: map[string]string{"p1": "Alice"},
	}
	cache := newFakeCache()
	svc := newService(store, cache)

	standings, err := svc.Leaderboard(context.Background(), "g1", "points", 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(standings) != 1 || standings[0].DisplayName != "Alice" {
		t.Fatalf("standings = %+v", standings)
	}
	callsAfterFirst := store.historyCalls

	if _, err := svc.Leaderboard(context.Background(), "g1", "points", 0); err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if store.historyCalls != callsAfterFirst {
		t.Errorf("cached read recomputed the board, calls = %d", store.historyCalls)
	}
}

func TestLeaderboardClampsLimit(t *testing.T) {
	histories := make(map[string][]domain.Result)
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("p%d", i)
		r := win(100, 3)
		r.PlayerID = id
		histories[id] = []domain.Result{r}
	}
	store := &fakeStore{histories: histories, names: map[string]string{}}
	svc := newService(store, nil)

	// Zero limit falls back to the default.
	standings, err := svc.Leaderboard(context.Background(), "g1", "points", 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(standings) != 3 {
		t.Errorf("default limit: %d rows, want 3", len(standings))
	}

	// Oversized limits clamp to the maximum.
	standings, err = svc.Leaderboard(context.Background(), "g1", "points", 50)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(standings) != 5 {
		t.Errorf("clamped limit: %d rows, want 5", len(standings))
	}
}

func TestLeaderboardRejectsUnknownMetric(t *testing.T) {
	store := &fakeStore{histories: map[string][]domain.Result{}}
	svc := newService(store, nil)

	if _, err := svc.Leaderboard(context.Background(), "g1", "vibes", 0); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestHistoryFilters(t *testing.T) {
	store := &fakeStore{
		histories: map[string][]domain.Result{
			"p1": {win(100, 2), win(101, 6), fail(102), win(103, 4)},
		},
	}
	svc := newService(store, nil)
	ctx := context.Background()

	// Limit keeps the most recent results.
	history, err := svc.History(ctx, "g1", "p1", HistoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].PuzzleNumber != 102 || history[1].PuzzleNumber != 103 {
		t.Errorf("limited history = %+v", history)
	}

	// MaxAttempts of six excludes failures.
	history, err = svc.History(ctx, "g1", "p1", HistoryFilter{MaxAttempts: 6})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("wins-only history has %d results, want 3", len(history))
	}

	// MinAttempts of seven selects only failures.
	history, err = svc.History(ctx, "g1", "p1", HistoryFilter{MinAttempts: 7})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Attempts != domain.FailedAttempts {
		t.Errorf("failures-only history = %+v", history)
	}
}

func TestRefreshGuildBroadcastsEveryMetric(t *testing.T) {
	store := &fakeStore{
		histories: map[string][]domain.Result{"p1": {win(100, 3)}},
		names:     map[string]string{"p1": "Alice"},
	}
	cache := newFakeCache()
	hub := &fakeHub{}
	svc := newService(store, cache)
	svc.SetHub(hub)

	if err := svc.RefreshGuild(context.Background(), "g1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if cache.invalidated != 1 {
		t.Errorf("invalidations = %d, want 1", cache.invalidated)
	}
	if len(hub.broadcasts) != len(domain.Metrics) {
		t.Errorf("broadcasts = %v, want one per metric", hub.broadcasts)
	}
}
