// Package stats computes derived statistics over a player's ordered result
// history. Computation is a pure function of the input sequence; callers
// may cache snapshots as long as they invalidate on newly recorded results.
package stats

import (
	"github.com/wordle-tracker/internal/domain"
)

// Engine computes stats snapshots. The point award table is fixed at
// construction.
type Engine struct {
	points domain.PointValues
}

// NewEngine creates an engine with the given point award table.
func NewEngine(points domain.PointValues) *Engine {
	return &Engine{points: points}
}

// Compute derives a snapshot from a history ordered by puzzle number
// ascending. An empty history yields a zero snapshot.
func (e *Engine) Compute(history []domain.Result) domain.StatsSnapshot {
	var snap domain.StatsSnapshot

	streak := 0
	prevPuzzle := 0
	attemptsSum := 0

	for i := range history {
		r := &history[i]
		snap.TotalGames++

		if r.Won() {
			snap.Wins++
			snap.Distribution[r.Attempts-1]++
			snap.Points += e.points.ByAttempts[r.Attempts-1]
			attemptsSum += r.Attempts

			// A win extends the streak only on the very next puzzle;
			// a missed day starts a fresh streak of one.
			if streak > 0 && r.PuzzleNumber == prevPuzzle+1 {
				streak++
			} else {
				streak = 1
			}
			if streak > snap.BestStreak {
				snap.BestStreak = streak
			}
		} else {
			snap.Losses++
			snap.Points += e.points.Fail
			streak = 0
		}
		prevPuzzle = r.PuzzleNumber
	}

	snap.CurrentStreak = streak
	if snap.TotalGames > 0 {
		snap.WinRate = float64(snap.Wins) / float64(snap.TotalGames)
	}
	if snap.Wins > 0 {
		snap.MeanAttempts = float64(attemptsSum) / float64(snap.Wins)
	}
	return snap
}
