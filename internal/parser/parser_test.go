package parser

import (
	"testing"

	"github.com/wordle-tracker/internal/domain"
)

func TestParseShareText(t *testing.T) {
	raw := "Wordle 1,234 3/6\n🟩🟨⬜⬜⬜\n⬜🟩🟩⬜⬜\n🟩🟩🟩🟩🟩"

	result, ok := Parse(raw)
	if !ok {
		t.Fatal("expected a valid result")
	}
	if result.PuzzleNumber != 1234 {
		t.Errorf("puzzle number = %d, want 1234", result.PuzzleNumber)
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
	if len(result.Pattern) != 3 {
		t.Fatalf("pattern rows = %d, want 3", len(result.Pattern))
	}
	if result.Pattern[0][0] != domain.CellHit || result.Pattern[0][1] != domain.CellPresent {
		t.Errorf("first row decoded incorrectly: %v", result.Pattern[0])
	}
	last := result.Pattern[2]
	for i, cell := range last {
		if cell != domain.CellHit {
			t.Errorf("winning row cell %d = %v, want hit", i, cell)
		}
	}
}

func TestParseFailedPuzzle(t *testing.T) {
	raw := "Wordle 942 X/6\n" +
		"⬜⬜🟨⬜⬜\n⬜🟩⬜⬜⬜\n🟩🟩⬜⬜⬜\n🟩🟩🟨⬜⬜\n🟩🟩🟩🟩⬜\n🟩🟩🟩🟩⬜"

	result, ok := Parse(raw)
	if !ok {
		t.Fatal("expected a valid result")
	}
	if result.Attempts != domain.FailedAttempts {
		t.Errorf("attempts = %d, want FailedAttempts", result.Attempts)
	}
	if len(result.Pattern) != 6 {
		t.Errorf("pattern rows = %d, want 6", len(result.Pattern))
	}
}

func TestParseToleratesVariants(t *testing.T) {
	cases := map[string]string{
		"lowercase header":   "wordle 500 2/6\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"extra whitespace":   "  Wordle   500   2/6  \n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"blank line in body": "Wordle 500 2/6\n\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"dark mode grid":     "Wordle 500 2/6\n🟨🟨⬛⬛🟨\n🟩🟩🟩🟩🟩",
		"high contrast grid": "Wordle 500 2/6\n🟦🟦⬜⬜🟦\n🟧🟧🟧🟧🟧",
		"leading chatter":    "look at this!\nWordle 500 2/6\n🟨🟨⬜⬜🟨\n🟩🟩🟩🟩🟩",
		"trailing chatter":   "Wordle 500 2/6\n🟨🟨⬜⬜🟨\n🟩🟩🟩🟩🟩\n\nso close yesterday",
	}

	for name, raw := range cases {
		result, ok := Parse(raw)
		if !ok {
			t.Errorf("%s: expected a valid result", name)
			continue
		}
		if result.PuzzleNumber != 500 || result.Attempts != 2 {
			t.Errorf("%s: got puzzle %d attempts %d", name, result.PuzzleNumber, result.Attempts)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":                 "",
		"plain chatter":         "good morning everyone",
		"header only":           "Wordle 500 3/6",
		"zero puzzle number":    "Wordle 0 2/6\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"attempts above six":    "Wordle 500 7/6\n🟩🟩🟩🟩🟩",
		"row count mismatch":    "Wordle 500 3/6\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"ragged row widths":     "Wordle 500 2/6\n🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"seven rows":            "Wordle 500 X/6\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜",
		"failure with two rows": "Wordle 500 X/6\n⬜⬜⬜⬜⬜\n⬜⬜⬜⬜⬜",
		"foreign glyph in row":  "Wordle 500 2/6\n🟨🟨❌🟨🟨\n🟩🟩🟩🟩🟩",
		"text before grid":      "Wordle 500 2/6\nnice one\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
	}

	for name, raw := range cases {
		if result, ok := Parse(raw); ok {
			t.Errorf("%s: expected rejection, got %+v", name, result)
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	raw := "Wordle 1,234 3/6\n🟩🟨⬜⬜⬜\n⬜🟩🟩⬜⬜\n🟩🟩🟩🟩🟩"

	first, ok := Parse(raw)
	if !ok {
		t.Fatal("expected a valid result")
	}
	second, _ := Parse(raw)
	if first.PuzzleNumber != second.PuzzleNumber || first.Attempts != second.Attempts {
		t.Error("repeated parses disagree")
	}
	if first.Pattern.Encode() != second.Pattern.Encode() {
		t.Error("repeated parses produced different patterns")
	}
}

func TestGuessPatternRoundTrip(t *testing.T) {
	result, ok := Parse("Wordle 500 2/6\n🟨🟨⬜⬛🟨\n🟩🟩🟩🟩🟩")
	if !ok {
		t.Fatal("expected a valid result")
	}

	encoded := result.Pattern.Encode()
	if encoded != "PPMMP/HHHHH" {
		t.Errorf("encoded pattern = %q", encoded)
	}
	decoded, err := domain.DecodeGuessPattern(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Encode() != encoded {
		t.Errorf("round trip mismatch: %q != %q", decoded.Encode(), encoded)
	}
}
