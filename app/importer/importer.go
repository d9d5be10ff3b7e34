package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/ingredient"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/strategy"
)

// Outcome labels recorded per import attempt.
const (
	OutcomeSuccess          = "success"
	OutcomeFetchFailed      = "fetch_failed"
	OutcomeNoStrategy       = "no_strategy"
	OutcomeExtractionFailed = "extraction_failed"
)

// AttemptRecorder receives one record per import attempt for the stats
// endpoint. Recording failures are logged and swallowed; history is
// never allowed to break an import.
type AttemptRecorder interface {
	RecordAttempt(sourceURL, strategyName string, confidence float64, duration time.Duration, outcome string) error
}

// Importer wires the fetcher, the strategy selector and the enrichment
// pass into the two public entry points. Each call owns its own source
// and result; nothing is shared between concurrent imports.
type Importer struct {
	fetcher  *fetch.Fetcher
	selector *strategy.Selector
	enricher *strategy.Enricher
	parser   *ingredient.Parser
	recorder AttemptRecorder
}

func NewImporter(fetcher *fetch.Fetcher, selector *strategy.Selector,
	enricher *strategy.Enricher, recorder AttemptRecorder) *Importer {
	return &Importer{
		fetcher:  fetcher,
		selector: selector,
		enricher: enricher,
		parser:   ingredient.NewParser(),
		recorder: recorder,
	}
}

// ImportFromURL fetches the source, arbitrates strategies, extracts, and
// enriches. It fails with a FetchError, ErrNoStrategyMatched or
// ErrExtractionFailed; it never cascades past a confident miss.
func (i *Importer) ImportFromURL(ctx context.Context, url string) (*recipe.ImportResult, error) {
	started := time.Now()

	source, err := i.fetcher.Run(ctx, url)
	if err != nil {
		i.record(url, "", 0, started, OutcomeFetchFailed)
		return nil, &FetchError{URL: url, Err: err}
	}

	result, selection, err := i.selector.Run(ctx, source)
	if err != nil {
		outcome := OutcomeNoStrategy
		if err == ErrExtractionFailed {
			outcome = OutcomeExtractionFailed
		}
		i.record(url, selection.Strategy, selection.Confidence, started, outcome)
		return nil, err
	}

	enriched := i.enricher.Run(source, result)

	i.record(url, selection.Strategy, selection.Confidence, started, OutcomeSuccess)

	slog.Info("Import completed",
		"url", url,
		"strategy", selection.Strategy,
		"confidence", selection.Confidence,
		"ingredients", enriched.IngredientCount(),
		"directions", len(enriched.Directions),
		"duration", time.Since(started))

	return enriched, nil
}

// ImportFromText runs the ingredient parser over pasted free-text lines
// and wraps the result. No network, no strategies.
func (i *Importer) ImportFromText(lines []string) *recipe.ImportResult {
	ingredients := i.parser.ParseList(lines)

	result := &recipe.ImportResult{
		Ingredients: ingredients,
		Directions:  []string{},
		SourceKind:  recipe.SourceKindManual,
	}
	if len(ingredients) > 0 {
		result.Confidence.Ingredients = 0.9
	}

	return result
}

// ParseIngredientLines exposes the ingredient parser standalone.
func (i *Importer) ParseIngredientLines(lines []string) []recipe.Ingredient {
	return i.parser.ParseList(lines)
}

func (i *Importer) record(url, strategyName string, confidence float64, started time.Time, outcome string) {
	if i.recorder == nil {
		return
	}
	if err := i.recorder.RecordAttempt(url, strategyName, confidence, time.Since(started), outcome); err != nil {
		slog.Warn("Failed to record import attempt", "url", url, "error", err)
	}
}
