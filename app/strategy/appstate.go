package strategy

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/recipe"
)

const appStateFieldConfidence = 0.85

// stateScriptSelectors are the known shapes of server-rendered
// application state: a page-embedded JSON blob the site's own frontend
// hydrates from.
var stateScriptSelectors = []string{
	`script#__NEXT_DATA__`,
	`script#__INITIAL_STATE__`,
	`script[type="application/json"][data-app-state]`,
}

// statePaths are common property-path shapes probed before falling back
// to a full recursive search.
var statePaths = [][]string{
	{"props", "pageProps", "recipe"},
	{"props", "pageProps", "data", "recipe"},
	{"recipe"},
	{"data", "recipe"},
	{"state", "recipe"},
}

// AppStateStrategy extracts from embedded-application-state blobs.
type AppStateStrategy struct{}

func NewAppStateStrategy() *AppStateStrategy {
	return &AppStateStrategy{}
}

func (s *AppStateStrategy) Name() string {
	return "appstate"
}

func (s *AppStateStrategy) Confidence(src *fetch.Source) float64 {
	for _, selector := range stateScriptSelectors {
		if src.Doc.Find(selector).Length() > 0 {
			return appStateFieldConfidence
		}
	}
	return 0
}

func (s *AppStateStrategy) Extract(_ context.Context, src *fetch.Source) *recipe.ImportResult {
	for _, selector := range stateScriptSelectors {
		text := src.Doc.Find(selector).First().Text()
		if text == "" {
			continue
		}

		var value any
		if err := json.Unmarshal([]byte(text), &value); err != nil {
			slog.Debug("Skipping unparsable state blob", "selector", selector, "error", err)
			continue
		}

		node := findStateRecipe(value)
		if node == nil {
			continue
		}

		if result := buildFromRecipeJSON(node, src.URL, appStateFieldConfidence); result != nil {
			return result
		}
	}

	return nil
}

// findStateRecipe probes the well-known property paths first, then falls
// back to the bounded recursive search. State blobs carry no @type, so a
// candidate must additionally look like a recipe before it is accepted.
func findStateRecipe(value any) map[string]any {
	root, ok := value.(map[string]any)
	if ok {
		for _, path := range statePaths {
			if node := followPath(root, path); node != nil && looksLikeRecipe(node) {
				return node
			}
		}
	}

	if node := findRecipeNode(value, 0); node != nil {
		return node
	}

	return findUntypedRecipe(value, 0)
}

func followPath(node map[string]any, path []string) map[string]any {
	current := node
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// findUntypedRecipe is the full-recursion fallback for blobs without
// schema.org typing, validating each candidate via looksLikeRecipe.
func findUntypedRecipe(value any, depth int) map[string]any {
	if depth > maxSearchDepth {
		return nil
	}

	switch v := value.(type) {
	case map[string]any:
		if looksLikeRecipe(v) {
			return v
		}
		for _, child := range v {
			if node := findUntypedRecipe(child, depth+1); node != nil {
				return node
			}
		}
	case []any:
		for _, child := range v {
			if node := findUntypedRecipe(child, depth+1); node != nil {
				return node
			}
		}
	}

	return nil
}
