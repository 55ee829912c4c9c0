// Package parser turns free-form share text into a canonical result
// fragment. Parsing is pure and deterministic: the same text always yields
// the same fragment, and malformed input is a normal not-a-result outcome,
// never an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wordle-tracker/internal/domain"
)

// headerPattern matches the share header line, e.g. "Wordle 1,234 3/6".
// Case and surrounding whitespace are tolerated; the puzzle number may carry
// thousands separators; attempts is a digit or X for a failed puzzle.
var headerPattern = regexp.MustCompile(`(?i)^\s*wordle\s+(\d[\d,.]*)\s+([1-6X])/6\s*$`)

// cellAlphabet maps every accepted grid glyph to its cell state. The
// high-contrast share palette (orange/blue) maps onto the same states as
// the default palette.
var cellAlphabet = map[rune]domain.CellState{
	'\U0001F7E9': domain.CellHit,     // 🟩
	'\U0001F7E7': domain.CellHit,     // 🟧
	'\U0001F7E8': domain.CellPresent, // 🟨
	'\U0001F7E6': domain.CellPresent, // 🟦
	'\u2B1C':     domain.CellMiss,    // ⬜
	'\u2B1B':     domain.CellMiss,    // ⬛
}

// Parse extracts a result fragment from raw share text. The second return
// is false when the text does not encode a valid result.
func Parse(raw string) (*domain.ParsedResult, bool) {
	lines := strings.Split(raw, "\n")

	headerAt := -1
	var puzzle, attempts int
	for i, line := range lines {
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(stripSeparators(m[1]))
		if err != nil || n <= 0 {
			return nil, false
		}
		puzzle = n
		if strings.EqualFold(m[2], "X") {
			attempts = domain.FailedAttempts
		} else {
			attempts, _ = strconv.Atoi(m[2])
		}
		headerAt = i
		break
	}
	if headerAt == -1 {
		return nil, false
	}

	pattern, ok := collectRows(lines[headerAt+1:])
	if !ok {
		return nil, false
	}

	if len(pattern) == 0 || len(pattern) > domain.MaxAttempts {
		return nil, false
	}
	width := len(pattern[0])
	for _, row := range pattern[1:] {
		if len(row) != width {
			return nil, false
		}
	}
	if attempts == domain.FailedAttempts {
		// A failed puzzle always shows all six rows.
		if len(pattern) != domain.MaxAttempts {
			return nil, false
		}
	} else if len(pattern) != attempts {
		return nil, false
	}

	return &domain.ParsedResult{
		PuzzleNumber: puzzle,
		Attempts:     attempts,
		Pattern:      pattern,
	}, true
}

// collectRows gathers consecutive grid rows following the header. Blank
// lines before the grid are skipped; the first non-grid line after the grid
// ends collection. A row mixing grid glyphs with anything else is a parse
// failure for the whole message.
func collectRows(lines []string) (domain.GuessPattern, bool) {
	var pattern domain.GuessPattern
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(pattern) == 0 {
				continue
			}
			break
		}
		row, mixed := parseRow(trimmed)
		if mixed {
			return nil, false
		}
		if row == nil {
			break
		}
		pattern = append(pattern, row)
	}
	return pattern, true
}

// parseRow decodes a single grid row. It returns (nil, false) for a line
// that is not a grid row at all, and (nil, true) for a line that starts as
// a grid row but contains a foreign glyph.
func parseRow(line string) ([]domain.CellState, bool) {
	var row []domain.CellState
	for _, r := range line {
		state, ok := cellAlphabet[r]
		if !ok {
			if len(row) == 0 {
				return nil, false
			}
			return nil, true
		}
		row = append(row, state)
	}
	return row, false
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || r == '.' {
			return -1
		}
		return r
	}, s)
}
