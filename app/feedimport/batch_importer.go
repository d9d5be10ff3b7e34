package feedimport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/importer"
	"github.com/mealstash/recipe-comb/app/recipe"
)

const (
	DefaultLimit = 5
	MaxLimit     = 20
)

// EntryResult is the outcome of importing one feed entry. Failed entries
// carry an error string instead of a recipe; a bad entry never aborts
// the batch.
type EntryResult struct {
	Title  string               `json:"title"`
	Link   string               `json:"link"`
	Recipe *recipe.ImportResult `json:"recipe,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// BatchResult is the full response for one feed batch import.
type BatchResult struct {
	FeedTitle string        `json:"feed_title"`
	FeedURL   string        `json:"feed_url"`
	Entries   []EntryResult `json:"entries"`
}

// BatchImporter parses an RSS/Atom feed and runs the import pipeline
// over its entry links, bounded by the requested limit.
type BatchImporter struct {
	fetcher    *fetch.Fetcher
	imp        *importer.Importer
	feedParser *gofeed.Parser
}

func NewBatchImporter(fetcher *fetch.Fetcher, imp *importer.Importer) *BatchImporter {
	return &BatchImporter{
		fetcher:    fetcher,
		imp:        imp,
		feedParser: gofeed.NewParser(),
	}
}

// Run fetches and parses the feed, then imports up to limit entries
// sequentially. A limit outside [1, MaxLimit] falls back to the default
// or the cap.
func (b *BatchImporter) Run(ctx context.Context, feedURL string, limit int) (*BatchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	source, err := b.fetcher.Run(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := b.feedParser.Parse(strings.NewReader(source.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	result := &BatchResult{
		FeedTitle: parsed.Title,
		FeedURL:   feedURL,
		Entries:   []EntryResult{},
	}

	for _, item := range parsed.Items {
		if len(result.Entries) >= limit {
			break
		}
		if item == nil || item.Link == "" {
			continue
		}

		entry := EntryResult{Title: item.Title, Link: item.Link}

		imported, err := b.imp.ImportFromURL(ctx, item.Link)
		if err != nil {
			slog.Debug("Feed entry import failed", "link", item.Link, "error", err)
			entry.Error = err.Error()
		} else {
			entry.Recipe = imported
		}

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}
