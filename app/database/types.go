package database

import (
	"time"
)

// ImportAttempt is one recorded run of the import pipeline, successful
// or not. Recipe content is never stored; only the attempt metadata
// needed for the stats endpoint.
type ImportAttempt struct {
	ID         int64
	SourceURL  string
	Strategy   string
	Confidence float64
	DurationMs int64
	Outcome    string
	CreatedAt  time.Time
}

// StrategyStats aggregates attempts per extraction strategy.
type StrategyStats struct {
	Strategy      string
	Attempts      int
	Successes     int
	AvgConfidence float64
}

type AttemptRepository interface {
	RecordAttempt(sourceURL, strategyName string, confidence float64, duration time.Duration, outcome string) error

	GetAttemptCount() (int, error)
	GetOutcomeCounts() (map[string]int, error)
	GetStrategyStats() ([]StrategyStats, error)
	GetRecentAttempts(limit int) ([]ImportAttempt, error)
}
