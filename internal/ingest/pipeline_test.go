package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wordle-tracker/internal/domain"
)

const shareText = "Wordle 1,234 3/6\n🟩🟨⬜⬜⬜\n⬜🟩🟩⬜⬜\n🟩🟩🟩🟩🟩"

// mockStore records inserts in memory under the dedup key.
type mockStore struct {
	mu        sync.Mutex
	results   map[string]*domain.Result
	players   map[string]string
	insertErr error
	upsertErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		results: make(map[string]*domain.Result),
		players: make(map[string]string),
	}
}

func (m *mockStore) UpsertPlayer(ctx context.Context, playerID, displayName string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[playerID] = displayName
	return nil
}

func (m *mockStore) InsertResult(ctx context.Context, result *domain.Result) (bool, error) {
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if err := result.Validate(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%s/%d", result.PlayerID, result.GuildID, result.PuzzleNumber)
	if _, exists := m.results[key]; exists {
		return false, nil
	}
	m.results[key] = result
	return true, nil
}

type mockCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (m *mockCache) InvalidateGuild(ctx context.Context, guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, guildID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(author, guild, text string) domain.MessageEvent {
	return domain.MessageEvent{
		AuthorID:   author,
		AuthorName: "Player " + author,
		GuildID:    guild,
		Text:       text,
		SentAt:     time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestHandleRecordsResult(t *testing.T) {
	store := newMockStore()
	cache := &mockCache{}
	p := New(store, cache, nil, testLogger())

	outcome, err := p.Handle(context.Background(), event("p1", "g1", shareText))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome.Status != domain.StatusRecorded {
		t.Fatalf("status = %s, want recorded", outcome.Status)
	}
	if outcome.Result.PuzzleNumber != 1234 || outcome.Result.Attempts != 3 {
		t.Errorf("result = %+v", outcome.Result)
	}
	if outcome.Result.RawText != shareText {
		t.Error("raw text not retained")
	}
	if store.players["p1"] != "Player p1" {
		t.Errorf("display name = %q", store.players["p1"])
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "g1" {
		t.Errorf("cache invalidations = %v", cache.invalidated)
	}
}

func TestHandleIgnoresNonResult(t *testing.T) {
	store := newMockStore()
	p := New(store, nil, nil, testLogger())

	outcome, err := p.Handle(context.Background(), event("p1", "g1", "morning all"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if outcome.Status != domain.StatusIgnored || outcome.Reason != domain.ReasonNotAResult {
		t.Errorf("outcome = %+v", outcome)
	}
	if len(store.results) != 0 {
		t.Error("non-result produced a write")
	}
}

func TestHandleIgnoresDuplicate(t *testing.T) {
	store := newMockStore()
	cache := &mockCache{}
	p := New(store, cache, nil, testLogger())

	first, err := p.Handle(context.Background(), event("p1", "g1", shareText))
	if err != nil || first.Status != domain.StatusRecorded {
		t.Fatalf("first submission: %+v, %v", first, err)
	}
	second, err := p.Handle(context.Background(), event("p1", "g1", shareText))
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}
	if second.Status != domain.StatusIgnored || second.Reason != domain.ReasonDuplicate {
		t.Errorf("outcome = %+v", second)
	}
	if len(store.results) != 1 {
		t.Errorf("stored results = %d, want 1", len(store.results))
	}
	// Only the accepted write invalidates the cache.
	if len(cache.invalidated) != 1 {
		t.Errorf("cache invalidations = %v", cache.invalidated)
	}
}

func TestHandleSamePuzzleDistinctGuilds(t *testing.T) {
	store := newMockStore()
	p := New(store, nil, nil, testLogger())

	for _, guild := range []string{"g1", "g2"} {
		outcome, err := p.Handle(context.Background(), event("p1", guild, shareText))
		if err != nil || outcome.Status != domain.StatusRecorded {
			t.Fatalf("guild %s: %+v, %v", guild, outcome, err)
		}
	}
	if len(store.results) != 2 {
		t.Errorf("stored results = %d, want 2", len(store.results))
	}
}

func TestHandleConcurrentDuplicates(t *testing.T) {
	store := newMockStore()
	p := New(store, nil, nil, testLogger())

	const workers = 16
	outcomes := make([]domain.IngestOutcome, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = p.Handle(context.Background(), event("p1", "g1", shareText))
		}(i)
	}
	wg.Wait()

	recorded := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if outcomes[i].Status == domain.StatusRecorded {
			recorded++
		} else if outcomes[i].Reason != domain.ReasonDuplicate {
			t.Errorf("worker %d outcome = %+v", i, outcomes[i])
		}
	}
	if recorded != 1 {
		t.Errorf("recorded = %d, want exactly 1", recorded)
	}
}

func TestHandleSurfacesStorageErrors(t *testing.T) {
	store := newMockStore()
	store.insertErr = fmt.Errorf("inserting result: %w", domain.ErrStorageUnavailable)
	p := New(store, nil, nil, testLogger())

	_, err := p.Handle(context.Background(), event("p1", "g1", shareText))
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("err = %v, want storage unavailable", err)
	}
}

func TestHandleRejectsIncompleteEvent(t *testing.T) {
	p := New(newMockStore(), nil, nil, testLogger())

	if _, err := p.Handle(context.Background(), event("", "g1", shareText)); err == nil {
		t.Error("expected error for missing author")
	}
	if _, err := p.Handle(context.Background(), event("p1", "", shareText)); err == nil {
		t.Error("expected error for missing guild")
	}
}
