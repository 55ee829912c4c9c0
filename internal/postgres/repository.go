package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wordle-tracker/internal/config"
	"github.com/wordle-tracker/internal/domain"
)

// Repository is the durable store for players and results. It is the sole
// owner of persisted state; every other component reads through it.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks backend availability.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return unavailable("pinging database", err)
	}
	return nil
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id BIGSERIAL PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL REFERENCES players(id),
			guild_id VARCHAR(64) NOT NULL,
			puzzle_number INT NOT NULL,
			attempts INT NOT NULL,
			guess_pattern TEXT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL,
			raw_text TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(player_id, guild_id, puzzle_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_guild ON results(guild_id, puzzle_number)`,
		`CREATE INDEX IF NOT EXISTS idx_results_player ON results(player_id, puzzle_number)`,
		`CREATE OR REPLACE VIEW guild_members AS
			SELECT DISTINCT guild_id, player_id FROM results`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// UpsertPlayer creates a player on first sight and keeps the display name
// at its last-seen value. An empty name never overwrites a known one.
func (r *Repository) UpsertPlayer(ctx context.Context, playerID, displayName string) error {
	query := `
		INSERT INTO players (id, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET
			display_name = CASE WHEN EXCLUDED.display_name = '' THEN players.display_name ELSE EXCLUDED.display_name END,
			updated_at = $3
	`
	if _, err := r.pool.Exec(ctx, query, playerID, displayName, time.Now()); err != nil {
		return unavailable("upserting player", err)
	}
	return nil
}

// InsertResult persists a result under the first-writer-wins dedup contract.
// It returns false when a result for the (player, guild, puzzle) key already
// exists; the existing record is never touched. The conditional insert rides
// on the table's uniqueness constraint, so concurrent duplicates across any
// number of processes yield exactly one accepted write.
func (r *Repository) InsertResult(ctx context.Context, result *domain.Result) (bool, error) {
	if err := result.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO results (player_id, guild_id, puzzle_number, attempts, guess_pattern, submitted_at, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_id, guild_id, puzzle_number) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		result.PlayerID,
		result.GuildID,
		result.PuzzleNumber,
		result.Attempts,
		result.Pattern.Encode(),
		result.SubmittedAt,
		result.RawText,
	)
	if err != nil {
		return false, unavailable("inserting result", err)
	}
	return tag.RowsAffected() > 0, nil
}

// History returns a player's results ordered by puzzle number ascending.
// An empty guildID returns the player's cross-guild history.
func (r *Repository) History(ctx context.Context, playerID, guildID string) ([]domain.Result, error) {
	query := `
		SELECT player_id, guild_id, puzzle_number, attempts, guess_pattern, submitted_at, raw_text
		FROM results
		WHERE player_id = $1
	`
	args := []interface{}{playerID}
	if guildID != "" {
		query += " AND guild_id = $2"
		args = append(args, guildID)
	}
	query += " ORDER BY puzzle_number ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("querying history", err)
	}
	defer rows.Close()

	var history []domain.Result
	for rows.Next() {
		var result domain.Result
		var encoded string
		err := rows.Scan(
			&result.PlayerID,
			&result.GuildID,
			&result.PuzzleNumber,
			&result.Attempts,
			&encoded,
			&result.SubmittedAt,
			&result.RawText,
		)
		if err != nil {
			return nil, unavailable("scanning result", err)
		}
		pattern, err := domain.DecodeGuessPattern(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: stored pattern for puzzle %d: %v",
				domain.ErrInvariantViolation, result.PuzzleNumber, err)
		}
		result.Pattern = pattern
		history = append(history, result)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading history", err)
	}
	return history, nil
}

// Members returns the distinct players with at least one result in the
// guild, via the guild_members view.
func (r *Repository) Members(ctx context.Context, guildID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT player_id FROM guild_members WHERE guild_id = $1 ORDER BY player_id`, guildID)
	if err != nil {
		return nil, unavailable("querying members", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var playerID string
		if err := rows.Scan(&playerID); err != nil {
			return nil, unavailable("scanning member", err)
		}
		members = append(members, playerID)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading members", err)
	}
	return members, nil
}

// DisplayNames resolves display names for a set of player ids. Unknown ids
// are simply absent from the returned map.
func (r *Repository) DisplayNames(ctx context.Context, playerIDs []string) (map[string]string, error) {
	if len(playerIDs) == 0 {
		return map[string]string{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, display_name FROM players WHERE id = ANY($1)`, playerIDs)
	if err != nil {
		return nil, unavailable("querying display names", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(playerIDs))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, unavailable("scanning display name", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading display names", err)
	}
	return names, nil
}

// ActiveGuilds returns guilds with at least one result submitted since the
// given time. The refresh worker uses this to scope recomputation.
func (r *Repository) ActiveGuilds(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT guild_id FROM results WHERE submitted_at >= $1`, since)
	if err != nil {
		return nil, unavailable("querying active guilds", err)
	}
	defer rows.Close()

	var guilds []string
	for rows.Next() {
		var guildID string
		if err := rows.Scan(&guildID); err != nil {
			return nil, unavailable("scanning guild", err)
		}
		guilds = append(guilds, guildID)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading active guilds", err)
	}
	return guilds, nil
}

// unavailable classifies backend failures so callers can tell an outage
// apart from an invariant violation.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}
