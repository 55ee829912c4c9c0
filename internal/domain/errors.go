package domain

import "errors"

// Domain errors
var (
	ErrStorageUnavailable = errors.New("result storage unavailable")
	ErrInvariantViolation = errors.New("result violates storage invariants")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrUnknownMetric      = errors.New("unknown leaderboard metric")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
)

// IsStorageUnavailable checks if an error indicates a backend outage. Events
// that fail with a backend outage are safe to redeliver: ingestion is
// idempotent by dedup key.
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
