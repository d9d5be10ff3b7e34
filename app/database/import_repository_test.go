package database

import (
	"path/filepath"
	"testing"
	"time"
)

func testRepository(t *testing.T) *ImportRepository {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewImportRepository(db)
}

func TestRecordAndCountAttempts(t *testing.T) {
	repo := testRepository(t)

	if err := repo.RecordAttempt("https://example.com/a", "jsonld", 0.95, 120*time.Millisecond, "success"); err != nil {
		t.Fatalf("Failed to record attempt: %v", err)
	}
	if err := repo.RecordAttempt("https://example.com/b", "", 0, 40*time.Millisecond, "fetch_failed"); err != nil {
		t.Fatalf("Failed to record attempt: %v", err)
	}

	count, err := repo.GetAttemptCount()
	if err != nil {
		t.Fatalf("Failed to get attempt count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 attempts, got %d", count)
	}
}

func TestOutcomeCounts(t *testing.T) {
	repo := testRepository(t)

	repo.RecordAttempt("https://example.com/a", "jsonld", 0.95, time.Millisecond, "success")
	repo.RecordAttempt("https://example.com/b", "jsonld", 0.95, time.Millisecond, "success")
	repo.RecordAttempt("https://example.com/c", "fallback", 0.6, time.Millisecond, "extraction_failed")

	counts, err := repo.GetOutcomeCounts()
	if err != nil {
		t.Fatalf("Failed to get outcome counts: %v", err)
	}
	if counts["success"] != 2 {
		t.Errorf("Expected 2 successes, got %d", counts["success"])
	}
	if counts["extraction_failed"] != 1 {
		t.Errorf("Expected 1 extraction failure, got %d", counts["extraction_failed"])
	}
}

func TestStrategyStatsExcludeUnselected(t *testing.T) {
	repo := testRepository(t)

	repo.RecordAttempt("https://example.com/a", "jsonld", 0.95, time.Millisecond, "success")
	repo.RecordAttempt("https://example.com/b", "jsonld", 0.95, time.Millisecond, "success")
	repo.RecordAttempt("https://example.com/c", "video", 1.0, time.Millisecond, "success")
	repo.RecordAttempt("https://example.com/d", "", 0, time.Millisecond, "fetch_failed")

	stats, err := repo.GetStrategyStats()
	if err != nil {
		t.Fatalf("Failed to get strategy stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 strategies, got %d", len(stats))
	}
	if stats[0].Strategy != "jsonld" {
		t.Errorf("Expected most used strategy first, got '%s'", stats[0].Strategy)
	}
	if stats[0].Attempts != 2 || stats[0].Successes != 2 {
		t.Errorf("Expected 2/2 for jsonld, got %d/%d", stats[0].Attempts, stats[0].Successes)
	}
	if stats[0].AvgConfidence < 0.94 || stats[0].AvgConfidence > 0.96 {
		t.Errorf("Expected avg confidence near 0.95, got %f", stats[0].AvgConfidence)
	}
}

func TestRecentAttemptsNewestFirst(t *testing.T) {
	repo := testRepository(t)

	repo.RecordAttempt("https://example.com/first", "jsonld", 0.95, time.Millisecond, "success")
	repo.RecordAttempt("https://example.com/second", "microdata", 0.8, time.Millisecond, "success")

	attempts, err := repo.GetRecentAttempts(10)
	if err != nil {
		t.Fatalf("Failed to get recent attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].SourceURL != "https://example.com/second" {
		t.Errorf("Expected newest attempt first, got '%s'", attempts[0].SourceURL)
	}
	if attempts[0].Strategy != "microdata" || attempts[0].Outcome != "success" {
		t.Errorf("Unexpected attempt fields: %+v", attempts[0])
	}
}
