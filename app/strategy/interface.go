package strategy

import (
	"context"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/recipe"
)

// Strategy is one extraction technique. Confidence is a cheap structural
// probe over the fetched source and never does extraction work. Extract
// may return nil even after the strategy was selected: deeper inspection
// found nothing usable.
type Strategy interface {
	Name() string
	Confidence(src *fetch.Source) float64
	Extract(ctx context.Context, src *fetch.Source) *recipe.ImportResult
}
