package database

import (
	"fmt"
	"time"
)

// ImportRepository handles database operations for import attempts
type ImportRepository struct {
	db *DB
}

// NewImportRepository creates a new import attempt repository
func NewImportRepository(db *DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// RecordAttempt stores one import attempt record
func (r *ImportRepository) RecordAttempt(sourceURL, strategyName string, confidence float64, duration time.Duration, outcome string) error {
	_, err := r.db.Exec(`
		INSERT INTO import_attempts (source_url, strategy, confidence, duration_ms, outcome)
		VALUES (?, ?, ?, ?, ?)
	`, sourceURL, strategyName, confidence, duration.Milliseconds(), outcome)

	if err != nil {
		return fmt.Errorf("failed to record import attempt: %w", err)
	}

	return nil
}

// GetAttemptCount returns the total number of recorded attempts
func (r *ImportRepository) GetAttemptCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM import_attempts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get attempt count: %w", err)
	}
	return count, nil
}

// GetOutcomeCounts returns attempt counts grouped by outcome
func (r *ImportRepository) GetOutcomeCounts() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT outcome, COUNT(*)
		FROM import_attempts
		GROUP BY outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		counts[outcome] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcome rows: %w", err)
	}

	return counts, nil
}

// GetStrategyStats returns per-strategy aggregates, most used first.
// Attempts that failed before strategy selection carry an empty strategy
// and are excluded.
func (r *ImportRepository) GetStrategyStats() ([]StrategyStats, error) {
	rows, err := r.db.Query(`
		SELECT strategy,
		       COUNT(*) as attempts,
		       SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END) as successes,
		       AVG(confidence) as avg_confidence
		FROM import_attempts
		WHERE strategy != ''
		GROUP BY strategy
		ORDER BY attempts DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy stats: %w", err)
	}
	defer rows.Close()

	var stats []StrategyStats
	for rows.Next() {
		var s StrategyStats
		if err := rows.Scan(&s.Strategy, &s.Attempts, &s.Successes, &s.AvgConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan strategy row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategy rows: %w", err)
	}

	return stats, nil
}

// GetRecentAttempts returns the most recent attempts, newest first
func (r *ImportRepository) GetRecentAttempts(limit int) ([]ImportAttempt, error) {
	rows, err := r.db.Query(`
		SELECT id, source_url, strategy, confidence, duration_ms, outcome, created_at
		FROM import_attempts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent attempts: %w", err)
	}
	defer rows.Close()

	var attempts []ImportAttempt
	for rows.Next() {
		var a ImportAttempt
		err := rows.Scan(
			&a.ID, &a.SourceURL, &a.Strategy, &a.Confidence,
			&a.DurationMs, &a.Outcome, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempt rows: %w", err)
	}

	return attempts, nil
}
