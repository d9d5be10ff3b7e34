package strategy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/ingredient"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/textutil"
)

const microdataFieldConfidence = 0.8

// MicrodataStrategy extracts from itemprop/itemtype attributes. Sites
// with microdata often have it only half-filled, so this strategy keeps
// a pointer to the HTML fallback for its two quality checks: substitute
// better-looking HTML ingredients, and self-defer entirely when
// microdata has no directions but plain HTML does.
type MicrodataStrategy struct {
	fallback *HTMLFallbackStrategy
	parser   *ingredient.Parser
}

func NewMicrodataStrategy(fallback *HTMLFallbackStrategy) *MicrodataStrategy {
	return &MicrodataStrategy{
		fallback: fallback,
		parser:   ingredient.NewParser(),
	}
}

func (s *MicrodataStrategy) Name() string {
	return "microdata"
}

func (s *MicrodataStrategy) Confidence(src *fetch.Source) float64 {
	if recipeScope(src.Doc).Length() > 0 {
		return microdataFieldConfidence
	}
	return 0
}

func (s *MicrodataStrategy) Extract(ctx context.Context, src *fetch.Source) *recipe.ImportResult {
	scope := recipeScope(src.Doc).First()
	if scope.Length() == 0 {
		return nil
	}

	lines := itempropLines(scope, "recipeIngredient", "ingredients")
	directions := itempropLines(scope, "recipeInstructions", "instructions")
	for i, direction := range directions {
		directions[i] = numberedPrefixPattern.ReplaceAllString(direction, "")
	}

	// Quality check: microdata ingredients with no recognizable
	// quantity anywhere are usually truncated names. If a plain HTML
	// re-scan looks qualitatively better, use it instead.
	if !anyHasQuantity(lines) {
		rescan := s.fallback.ExtractIngredientLines(src.Doc)
		if anyHasQuantity(rescan) && len(rescan) >= len(lines) {
			slog.Debug("Microdata ingredients lack quantities, substituting HTML re-scan",
				"microdata_lines", len(lines), "rescan_lines", len(rescan))
			lines = rescan
		}
	}

	// Self-defer: microdata without directions while the page's own
	// markup has them means an incomplete card. This is the one narrow
	// exception to the no-cascade rule: microdata hands the whole
	// extraction to the HTML fallback rather than returning an
	// incomplete result.
	if len(directions) == 0 {
		if htmlDirections := ExtractDirections(src.Doc); len(htmlDirections) > 0 {
			slog.Debug("Microdata has no directions, deferring to HTML fallback")
			return s.fallback.Extract(ctx, src)
		}
	}

	ingredients := s.parser.ParseList(lines)
	if len(ingredients) == 0 && len(directions) == 0 {
		return nil
	}

	result := &recipe.ImportResult{
		Name:        itempropText(scope, "name"),
		Serves:      itempropText(scope, "recipeYield"),
		Time:        parseISODuration(itempropAttr(scope, "totalTime")),
		Ingredients: ingredients,
		Directions:  directions,
		Notes:       itempropText(scope, "description"),
		ImageURL:    itempropImage(scope),
		Course:      itempropText(scope, "recipeCategory"),
		Cuisine:     itempropText(scope, "recipeCuisine"),
		Nutrition:   microdataNutrition(scope),
		SourceURL:   src.URL,
		SourceKind:  recipe.SourceKindURL,
	}

	result.Confidence = confidenceFor(result, microdataFieldConfidence)

	return result
}

func recipeScope(doc *goquery.Document) *goquery.Selection {
	return doc.Find(`[itemtype*="schema.org/Recipe"], [itemtype*="data-vocabulary.org/Recipe"]`)
}

func itempropLines(scope *goquery.Selection, props ...string) []string {
	var lines []string
	for _, prop := range props {
		scope.Find(`[itemprop="` + prop + `"]`).Each(func(_ int, node *goquery.Selection) {
			if line := textutil.CollapseWhitespace(node.Text()); line != "" {
				lines = append(lines, line)
			}
		})
		if len(lines) > 0 {
			break
		}
	}
	return lines
}

func itempropText(scope *goquery.Selection, prop string) string {
	node := scope.Find(`[itemprop="` + prop + `"]`).First()
	if node.Length() == 0 {
		return ""
	}
	if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return textutil.CollapseWhitespace(content)
	}
	return textutil.CollapseWhitespace(node.Text())
}

// itempropAttr reads the content/datetime attribute forms used for
// machine-readable values like ISO durations.
func itempropAttr(scope *goquery.Selection, prop string) string {
	node := scope.Find(`[itemprop="` + prop + `"]`).First()
	if node.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"content", "datetime"} {
		if value, ok := node.Attr(attr); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(node.Text())
}

func itempropImage(scope *goquery.Selection) string {
	node := scope.Find(`[itemprop="image"]`).First()
	if node.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "content", "href"} {
		if value, ok := node.Attr(attr); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func microdataNutrition(scope *goquery.Selection) *recipe.NutritionInfo {
	nutrition := scope.Find(`[itemprop="nutrition"]`).First()
	if nutrition.Length() == 0 {
		return nil
	}

	info := &recipe.NutritionInfo{
		Calories:     int(leadingNumber(itempropText(nutrition, "calories"))),
		Fat:          leadingNumber(itempropText(nutrition, "fatContent")),
		Protein:      leadingNumber(itempropText(nutrition, "proteinContent")),
		Carbohydrate: leadingNumber(itempropText(nutrition, "carbohydrateContent")),
		Sugar:        leadingNumber(itempropText(nutrition, "sugarContent")),
		Fiber:        leadingNumber(itempropText(nutrition, "fiberContent")),
		Sodium:       leadingNumber(itempropText(nutrition, "sodiumContent")),
	}

	if *info == (recipe.NutritionInfo{}) {
		return nil
	}
	return info
}

func anyHasQuantity(lines []string) bool {
	for _, line := range lines {
		normalized := textutil.NormalizeUnits(textutil.NormalizeFractions(line))
		if textutil.MeasurementPattern.MatchString(normalized) || leadingQuantityPattern.MatchString(normalized) {
			return true
		}
	}
	return false
}
