package domain

import (
	"fmt"
	"strings"
	"time"
)

// FailedAttempts is the sentinel attempts value for a puzzle that was not
// solved within the maximum six guesses (an "X/6" share).
const FailedAttempts = -1

// MaxAttempts is the guess limit imposed by the game.
const MaxAttempts = 6

// CellState is the outcome of a single cell in a guess row.
type CellState int8

const (
	CellMiss    CellState = iota // letter not in the word
	CellPresent                  // letter in the word, wrong position
	CellHit                      // letter in the correct position
)

func (c CellState) String() string {
	switch c {
	case CellHit:
		return "hit"
	case CellPresent:
		return "present"
	default:
		return "miss"
	}
}

// GuessPattern is the ordered grid of cell outcomes from a share text, one
// inner slice per guess row.
type GuessPattern [][]CellState

var cellCodes = map[CellState]byte{
	CellHit:     'H',
	CellPresent: 'P',
	CellMiss:    'M',
}

// Encode renders the pattern as a compact string ("HPM.." rows joined by
// "/") for storage. DecodeGuessPattern is its exact inverse.
func (p GuessPattern) Encode() string {
	rows := make([]string, len(p))
	for i, row := range p {
		var b strings.Builder
		b.Grow(len(row))
		for _, cell := range row {
			b.WriteByte(cellCodes[cell])
		}
		rows[i] = b.String()
	}
	return strings.Join(rows, "/")
}

// DecodeGuessPattern parses the storage encoding produced by Encode.
func DecodeGuessPattern(s string) (GuessPattern, error) {
	if s == "" {
		return nil, nil
	}
	rows := strings.Split(s, "/")
	pattern := make(GuessPattern, len(rows))
	for i, row := range rows {
		cells := make([]CellState, len(row))
		for j := 0; j < len(row); j++ {
			switch row[j] {
			case 'H':
				cells[j] = CellHit
			case 'P':
				cells[j] = CellPresent
			case 'M':
				cells[j] = CellMiss
			default:
				return nil, fmt.Errorf("invalid cell code %q at row %d", row[j], i)
			}
		}
		pattern[i] = cells
	}
	return pattern, nil
}

// ParsedResult is the fragment extracted from a share text by the parser.
// Player, guild and timestamp come from the surrounding message event.
type ParsedResult struct {
	PuzzleNumber int
	Attempts     int // 1..6, or FailedAttempts
	Pattern      GuessPattern
}

// Result is one player's outcome on one puzzle in one guild. Results are
// immutable historical facts: created once, never updated or deleted.
type Result struct {
	PlayerID     string       `json:"player_id"`
	GuildID      string       `json:"guild_id"`
	PuzzleNumber int          `json:"puzzle_number"`
	Attempts     int          `json:"attempts"`
	Pattern      GuessPattern `json:"pattern"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	RawText      string       `json:"raw_text"`
}

// Won reports whether the puzzle was solved.
func (r *Result) Won() bool {
	return r.Attempts != FailedAttempts
}

// Validate checks the structural invariants a result must satisfy before it
// may be persisted. A violation indicates a bug upstream, not bad user
// input: the parser never emits an invalid fragment.
func (r *Result) Validate() error {
	if r.PlayerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvariantViolation)
	}
	if r.GuildID == "" {
		return fmt.Errorf("%w: empty guild id", ErrInvariantViolation)
	}
	if r.PuzzleNumber <= 0 {
		return fmt.Errorf("%w: non-positive puzzle number %d", ErrInvariantViolation, r.PuzzleNumber)
	}
	if r.Attempts != FailedAttempts && (r.Attempts < 1 || r.Attempts > MaxAttempts) {
		return fmt.Errorf("%w: attempts %d out of range", ErrInvariantViolation, r.Attempts)
	}
	if r.Won() && len(r.Pattern) != r.Attempts {
		return fmt.Errorf("%w: %d pattern rows for %d attempts", ErrInvariantViolation, len(r.Pattern), r.Attempts)
	}
	if !r.Won() && len(r.Pattern) != MaxAttempts {
		return fmt.Errorf("%w: %d pattern rows for a failed puzzle", ErrInvariantViolation, len(r.Pattern))
	}
	return nil
}

// Player is a chat-platform user observed in at least one result. The id is
// platform-assigned and immutable; the display name tracks the last value
// seen on an inbound message.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
