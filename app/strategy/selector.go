package strategy

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/recipe"
)

var (
	// ErrNoStrategyMatched means every strategy scored 0 confidence:
	// the source is unsupported.
	ErrNoStrategyMatched = errors.New("no extraction strategy matched the source")

	// ErrExtractionFailed means the selected strategy found nothing
	// usable on deeper inspection. A confident miss is not retried
	// against a lower-confidence strategy: it indicates malformed
	// content, not a wrong choice.
	ErrExtractionFailed = errors.New("selected strategy could not extract a recipe")
)

// Selection records which strategy won arbitration and with what score.
type Selection struct {
	Strategy   string
	Confidence float64
}

// Selector scores every registered strategy against a source and runs
// the winner. Registration order breaks ties.
type Selector struct {
	strategies []Strategy
}

func NewSelector(strategies ...Strategy) *Selector {
	return &Selector{strategies: strategies}
}

// Run picks the highest-confidence strategy, short-circuiting on a
// perfect score, and invokes its extraction exactly once.
func (s *Selector) Run(ctx context.Context, src *fetch.Source) (*recipe.ImportResult, Selection, error) {
	var best Strategy
	bestConfidence := 0.0

	for _, candidate := range s.strategies {
		confidence := candidate.Confidence(src)
		slog.Debug("Strategy scored", "strategy", candidate.Name(), "confidence", confidence)

		if confidence > bestConfidence {
			best = candidate
			bestConfidence = confidence
		}
		if confidence == 1.0 {
			break
		}
	}

	if best == nil || bestConfidence == 0 {
		return nil, Selection{}, ErrNoStrategyMatched
	}

	selection := Selection{Strategy: best.Name(), Confidence: bestConfidence}
	slog.Debug("Strategy selected", "strategy", selection.Strategy, "confidence", selection.Confidence)

	result := best.Extract(ctx, src)
	if result == nil {
		// Explicitly no cascade: the confident winner is trusted once.
		return nil, selection, ErrExtractionFailed
	}

	return result, selection, nil
}
