package strategy

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/ingredient"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/textutil"
)

var (
	drinkCoursePattern = regexp.MustCompile(`(?i)drink|cocktail|beverage`)
	glassPattern       = regexp.MustCompile(`(?i)(?:glass(?:ware)?|served? in)\s*:?\s+(?:an?\s+)?([A-Za-z][A-Za-z' -]{2,40}?(?:glass|mug|flute|coupe|tumbler))`)
	garnishPattern     = regexp.MustCompile(`(?i)garnish(?:ed)?\s*(?:with|:)\s+([A-Za-z][A-Za-z0-9',& -]{2,60})`)
)

// Enricher is the post-extraction pass: section recovery for sources
// whose structured data is flat while their HTML is sectioned, and
// glass/garnish mining for drink recipes. Every step builds a new result
// so a failed enrichment leaves the original intact.
type Enricher struct {
	profiles *ProfileCache
	parser   *ingredient.Parser
}

func NewEnricher(profiles *ProfileCache) *Enricher {
	return &Enricher{
		profiles: profiles,
		parser:   ingredient.NewParser(),
	}
}

// Run applies both enrichment steps and returns the enriched copy.
func (e *Enricher) Run(src *fetch.Source, result *recipe.ImportResult) *recipe.ImportResult {
	enriched := e.recoverSections(src, result)
	return e.enrichDrink(src, enriched)
}

// recoverSections re-extracts ingredients through the site profile when
// the winning result came back flat but the site is known to render
// sectioned HTML. The substitution must carry sections and at least as
// many real lines, otherwise the original wins.
func (e *Enricher) recoverSections(src *fetch.Source, result *recipe.ImportResult) *recipe.ImportResult {
	if result.HasSections() || len(result.Ingredients) == 0 {
		return result
	}

	profile, ok := e.profiles.ForURL(src.URL)
	if !ok || !profile.SectionedHTML {
		return result
	}

	lines := ExtractWithProfile(src.Doc, profile)
	if len(lines) == 0 {
		return result
	}

	reparsed := e.parser.ParseList(lines)

	substituted := *result
	substituted.Ingredients = reparsed
	if !substituted.HasSections() || substituted.IngredientCount() < result.IngredientCount() {
		return result
	}

	slog.Debug("Recovered ingredient sections from HTML",
		"url", src.URL, "sections", true, "lines", substituted.IngredientCount())

	return &substituted
}

// enrichDrink mines glass and garnish metadata from the page text for
// drink-type results.
func (e *Enricher) enrichDrink(src *fetch.Source, result *recipe.ImportResult) *recipe.ImportResult {
	if !drinkCoursePattern.MatchString(result.Course) &&
		!drinkCoursePattern.MatchString(result.Subcategory) {
		return result
	}
	if result.Glass != "" && result.Garnish != "" {
		return result
	}

	text := src.Doc.Find("body").Text()

	enriched := *result
	if enriched.Glass == "" {
		if m := glassPattern.FindStringSubmatch(text); m != nil {
			enriched.Glass = strings.ToLower(textutil.CollapseWhitespace(m[1]))
		}
	}
	if enriched.Garnish == "" {
		if m := garnishPattern.FindStringSubmatch(text); m != nil {
			enriched.Garnish = textutil.CollapseWhitespace(m[1])
		}
	}

	return &enriched
}
