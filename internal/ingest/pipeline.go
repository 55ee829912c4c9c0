// Package ingest processes inbound chat-message events: classify the text,
// persist the result exactly once per (player, guild, puzzle), and fan out
// notifications. Events are safe to redeliver; the store's dedup key makes
// reprocessing idempotent.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wordle-tracker/internal/domain"
	"github.com/wordle-tracker/internal/parser"
)

// Store is the write-side slice of the result store the pipeline needs.
type Store interface {
	UpsertPlayer(ctx context.Context, playerID, displayName string) error
	InsertResult(ctx context.Context, result *domain.Result) (accepted bool, err error)
}

// Invalidator drops cached stats for a guild after a recorded result.
type Invalidator interface {
	InvalidateGuild(ctx context.Context, guildID string) error
}

// Notifier pushes a recorded result to live subscribers.
type Notifier interface {
	BroadcastResult(guildID string, result *domain.Result)
}

// Pipeline turns message events into durable results. Cache and notifier
// are optional; storage is not.
type Pipeline struct {
	store  Store
	cache  Invalidator
	hub    Notifier
	logger *slog.Logger
}

// New creates an ingestion pipeline.
func New(store Store, cache Invalidator, hub Notifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		cache:  cache,
		hub:    hub,
		logger: logger,
	}
}

// Handle processes one message event. Non-result text and duplicate
// submissions are normal Ignored outcomes, not errors; only a storage
// failure returns an error, and the caller decides whether to redeliver.
func (p *Pipeline) Handle(ctx context.Context, event domain.MessageEvent) (domain.IngestOutcome, error) {
	if event.AuthorID == "" || event.GuildID == "" {
		return domain.IngestOutcome{}, fmt.Errorf("%w: event missing author or guild", domain.ErrInvalidRequest)
	}

	fragment, ok := parser.Parse(event.Text)
	if !ok {
		return domain.IngestOutcome{Status: domain.StatusIgnored, Reason: domain.ReasonNotAResult}, nil
	}

	result := &domain.Result{
		PlayerID:     event.AuthorID,
		GuildID:      event.GuildID,
		PuzzleNumber: fragment.PuzzleNumber,
		Attempts:     fragment.Attempts,
		Pattern:      fragment.Pattern,
		SubmittedAt:  event.SentAt,
		RawText:      event.Text,
	}

	if err := p.store.UpsertPlayer(ctx, event.AuthorID, event.AuthorName); err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("upserting player: %w", err)
	}

	accepted, err := p.store.InsertResult(ctx, result)
	if err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("inserting result: %w", err)
	}
	if !accepted {
		p.logger.Debug("duplicate result ignored",
			"player_id", result.PlayerID,
			"guild_id", result.GuildID,
			"puzzle_number", result.PuzzleNumber,
		)
		return domain.IngestOutcome{Status: domain.StatusIgnored, Reason: domain.ReasonDuplicate}, nil
	}

	p.logger.Info("result recorded",
		"player_id", result.PlayerID,
		"guild_id", result.GuildID,
		"puzzle_number", result.PuzzleNumber,
		"attempts", result.Attempts,
	)

	if p.cache != nil {
		if err := p.cache.InvalidateGuild(ctx, result.GuildID); err != nil {
			// Stale cache entries expire on their own; the write succeeded.
			p.logger.Warn("failed to invalidate guild cache", "guild_id", result.GuildID, "error", err)
		}
	}
	if p.hub != nil {
		p.hub.BroadcastResult(result.GuildID, result)
	}

	return domain.IngestOutcome{Status: domain.StatusRecorded, Result: result}, nil
}
