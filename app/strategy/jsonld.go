package strategy

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/recipe"
)

const jsonLDFieldConfidence = 0.95

// JSONLDStrategy extracts from script blocks declared as structured
// linked data. This is the highest-quality path for the majority of
// recipe sites.
type JSONLDStrategy struct{}

func NewJSONLDStrategy() *JSONLDStrategy {
	return &JSONLDStrategy{}
}

func (s *JSONLDStrategy) Name() string {
	return "jsonld"
}

func (s *JSONLDStrategy) Confidence(src *fetch.Source) float64 {
	blocks := src.Doc.Find(`script[type="application/ld+json"]`)
	if blocks.Length() == 0 {
		return 0
	}

	mentionsRecipe := false
	blocks.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if strings.Contains(block.Text(), `"Recipe"`) {
			mentionsRecipe = true
			return false
		}
		return true
	})

	if mentionsRecipe {
		return jsonLDFieldConfidence
	}
	return 0.3
}

func (s *JSONLDStrategy) Extract(_ context.Context, src *fetch.Source) *recipe.ImportResult {
	var result *recipe.ImportResult

	src.Doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		node := parseRecipeBlock(block.Text())
		if node == nil {
			return true
		}

		if built := buildFromRecipeJSON(node, src.URL, jsonLDFieldConfidence); built != nil {
			result = built
			return false
		}
		return true
	})

	return result
}

// parseRecipeBlock parses one ld+json block and searches it for a
// Recipe-typed object. A parse failure gets a single repair attempt for
// the common defect of literal newlines inside string values; a block
// that still fails contributes nothing.
func parseRecipeBlock(text string) map[string]any {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		repaired := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(text)
		if err := json.Unmarshal([]byte(repaired), &value); err != nil {
			slog.Debug("Skipping malformed ld+json block", "error", err)
			return nil
		}
	}

	return findRecipeNode(value, 0)
}
