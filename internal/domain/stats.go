package domain

// PointValues maps an attempts bucket to the points it awards on the points
// leaderboard. ByAttempts[0] is the award for a one-guess solve.
type PointValues struct {
	ByAttempts [MaxAttempts]int
	Fail       int
}

// DefaultPointValues returns the standard award table.
func DefaultPointValues() PointValues {
	return PointValues{
		ByAttempts: [MaxAttempts]int{10, 5, 4, 3, 2, 1},
		Fail:       -5,
	}
}

// StatsSnapshot is a derived, never-stored view of one player's result
// history. It is recomputed in full from the ordered history; the redis
// cache may memoize it between recorded results.
type StatsSnapshot struct {
	PlayerID      string           `json:"player_id"`
	GuildID       string           `json:"guild_id,omitempty"`
	TotalGames    int              `json:"total_games"`
	Wins          int              `json:"wins"`
	Losses        int              `json:"losses"`
	Distribution  [MaxAttempts]int `json:"distribution"`
	WinRate       float64          `json:"win_rate"`
	MeanAttempts  float64          `json:"mean_attempts"`
	CurrentStreak int              `json:"current_streak"`
	BestStreak    int              `json:"best_streak"`
	Points        int              `json:"points"`
}

// HasMean reports whether the mean-attempts figure is defined. With zero
// wins there is no data, not a zero.
func (s *StatsSnapshot) HasMean() bool {
	return s.Wins > 0
}

// Metric selects the value a guild leaderboard is ranked by.
type Metric string

const (
	MetricMeanAttempts  Metric = "mean_attempts"
	MetricWinRate       Metric = "win_rate"
	MetricCurrentStreak Metric = "current_streak"
	MetricBestStreak    Metric = "best_streak"
	MetricPoints        Metric = "points"
)

// Metrics lists every supported leaderboard metric.
var Metrics = []Metric{
	MetricMeanAttempts,
	MetricWinRate,
	MetricCurrentStreak,
	MetricBestStreak,
	MetricPoints,
}

// Ascending reports whether a lower value ranks higher for this metric.
// Only mean attempts is a lower-is-better board.
func (m Metric) Ascending() bool {
	return m == MetricMeanAttempts
}

// ParseMetric validates a metric name from an external caller.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if s == string(m) {
			return m, nil
		}
	}
	return "", ErrUnknownMetric
}

// Standing is one row of a guild leaderboard.
type Standing struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	DisplayName string  `json:"display_name,omitempty"`
	Value       float64 `json:"value"`
	Games       int     `json:"games"`
}
