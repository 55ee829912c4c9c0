// Package worker runs the background refresher that keeps leaderboard
// caches warm for recently active guilds.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wordle-tracker/internal/config"
)

// GuildSource lists guilds that have seen results recently.
type GuildSource interface {
	ActiveGuilds(ctx context.Context, since time.Time) ([]string, error)
}

// Refresher recomputes a guild's boards.
type Refresher interface {
	RefreshGuild(ctx context.Context, guildID string) error
}

// RefreshWorker periodically refreshes boards for guilds active within the
// configured window. Guilds with no recent submissions are left to their
// cache TTL.
type RefreshWorker struct {
	source   GuildSource
	service  Refresher
	interval time.Duration
	window   time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewRefreshWorker creates a refresh worker
func NewRefreshWorker(source GuildSource, service Refresher, cfg *config.RefreshConfig, logger *slog.Logger) *RefreshWorker {
	return &RefreshWorker{
		source:   source,
		service:  service,
		interval: cfg.Interval,
		window:   cfg.ActiveWindow,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic refresh loop
func (w *RefreshWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("starting refresh worker",
		"interval", w.interval,
		"active_window", w.window,
	)

	go w.run()
}

// Stop halts the refresh loop and waits for the current pass to finish
func (w *RefreshWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.logger.Info("refresh worker stopped")
}

// IsRunning reports whether the worker loop is active
func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(context.Background())
		}
	}
}

// RunOnce refreshes every recently active guild. A failed guild is logged
// and skipped; the pass continues with the rest.
func (w *RefreshWorker) RunOnce(ctx context.Context) {
	since := time.Now().Add(-w.window)
	guilds, err := w.source.ActiveGuilds(ctx, since)
	if err != nil {
		w.logger.Error("failed to list active guilds", "error", err)
		return
	}
	if len(guilds) == 0 {
		return
	}

	start := time.Now()
	refreshed := 0
	for _, guildID := range guilds {
		select {
		case <-w.stopCh:
			return
		default:
		}

		if err := w.service.RefreshGuild(ctx, guildID); err != nil {
			w.logger.Error("guild refresh failed", "guild_id", guildID, "error", err)
			continue
		}
		refreshed++
	}

	w.logger.Info("refresh pass completed",
		"guilds", len(guilds),
		"refreshed", refreshed,
		"duration", time.Since(start),
	)
}
