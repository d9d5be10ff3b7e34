package strategy

import (
	"context"
	"regexp"
	"strings"

	"codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/ingredient"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/textutil"
)

const (
	fallbackIngredientConfidence = 0.6
	fallbackDirectionConfidence  = 0.55
	fallbackNameConfidence       = 0.5
)

var (
	ingredientHeadingPattern = regexp.MustCompile(`(?i)ingredient`)
	stopHeadingPattern       = regexp.MustCompile(`(?i)direction|method|step|note|garnish|instruction|nutrition`)
	directionHeadingPattern  = regexp.MustCompile(`(?i)direction|instruction|method|step`)
	directionStopPattern     = regexp.MustCompile(`(?i)ingredient|note|nutrition|equipment`)
	numberedPrefixPattern    = regexp.MustCompile(`^\s*(?:step\s*)?\d+\s*[.):]\s*`)
	leadingQuantityPattern   = regexp.MustCompile(`^[\d½⅓⅔¼¾⅕⅖⅙⅚⅛⅜⅒]`)
	servesPattern            = regexp.MustCompile(`(?i)(?:serves|servings?|yield)s?\s*:?\s*(\d+(?:\s*[-–]\s*\d+)?)`)
)

// pluginSelectors are generic recipe-card selector sets tried after the
// named site profiles.
var pluginSelectors = []string{
	".recipe-ingredients li",
	"ul.ingredients li",
	"[itemprop='recipeIngredient']",
	"[class*='ingredient-list'] li",
}

// foodWords is the short token list backing the aggressive last-resort
// list scan: a bare line mentioning one of these is probably an
// ingredient even without a quantity.
var foodWords = []string{
	"salt", "pepper", "oil", "butter", "flour", "sugar", "onion",
	"garlic", "egg", "water", "milk", "cream", "cheese", "chicken",
	"beef", "pork", "lemon", "vanilla", "basil", "parsley",
}

// HTMLFallbackStrategy is the last line: no structured signal exists and
// ingredients are dug out of plain markup by a ladder of heuristics.
type HTMLFallbackStrategy struct {
	profiles *ProfileCache
	parser   *ingredient.Parser
}

func NewHTMLFallbackStrategy(profiles *ProfileCache) *HTMLFallbackStrategy {
	return &HTMLFallbackStrategy{
		profiles: profiles,
		parser:   ingredient.NewParser(),
	}
}

func (s *HTMLFallbackStrategy) Name() string {
	return "html-fallback"
}

func (s *HTMLFallbackStrategy) Confidence(src *fetch.Source) float64 {
	// Video URLs belong to the video strategy, whatever the body holds.
	if VideoID(src.URL) != "" {
		return 0
	}
	if strings.TrimSpace(src.Body) == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(src.Body), "ingredient") {
		return fallbackIngredientConfidence
	}
	return 0.3
}

func (s *HTMLFallbackStrategy) Extract(_ context.Context, src *fetch.Source) *recipe.ImportResult {
	lines := s.ExtractIngredientLines(src.Doc)
	if len(lines) == 0 {
		return nil
	}

	var repaired []string
	for _, line := range lines {
		repaired = append(repaired, SplitConcatenatedIngredients(line)...)
	}

	ingredients := s.parser.ParseList(repaired)
	if len(ingredients) == 0 {
		return nil
	}

	directions := ExtractDirections(src.Doc)

	result := &recipe.ImportResult{
		Name:        pageName(src.Doc),
		Serves:      pageServes(src.Doc),
		Ingredients: ingredients,
		Directions:  directions,
		Notes:       pageNotes(src.Doc, src.Body),
		ImageURL:    metaContent(src.Doc, `meta[property="og:image"]`),
		SourceURL:   src.URL,
		SourceKind:  recipe.SourceKindURL,
	}

	result.Confidence.Ingredients = fallbackIngredientConfidence
	if result.Name != "" {
		result.Confidence.Name = fallbackNameConfidence
	}
	if len(directions) > 0 {
		result.Confidence.Directions = fallbackDirectionConfidence
	}
	if result.Serves != "" {
		result.Confidence.Serves = fallbackNameConfidence
	}

	return result
}

// ExtractIngredientLines runs the heuristic ladder: site profiles, the
// two-column table pattern, plugin selector sets, heading-scan, the
// aggressive all-lists scan, and finally bullet-character splitting.
// First non-empty rung wins.
func (s *HTMLFallbackStrategy) ExtractIngredientLines(doc *goquery.Document) []string {
	for _, profile := range s.profiles.All() {
		if lines := ExtractWithProfile(doc, profile); len(lines) > 0 {
			return lines
		}
	}

	if lines := twoColumnTableLines(doc); len(lines) > 0 {
		return lines
	}

	for _, selector := range pluginSelectors {
		if lines := selectionLines(doc.Find(selector)); len(lines) > 0 {
			return lines
		}
	}

	if lines := headingScanLines(doc); len(lines) > 0 {
		return lines
	}

	if lines := aggressiveListScan(doc); len(lines) > 0 {
		return lines
	}

	return bulletSplitLines(doc)
}

// ExtractWithProfile applies one declarative site profile. Profiles are
// side-effect-free; a miss just returns nothing.
func ExtractWithProfile(doc *goquery.Document, profile SiteProfile) []string {
	container := doc.Find(profile.Container)
	if container.Length() == 0 {
		return nil
	}

	var lines []string

	switch profile.Mode {
	case ModeContainerSections:
		sections := container.Find(profile.Section)
		if sections.Length() == 0 {
			return selectionLines(container.Find(profile.Line))
		}
		sections.Each(func(_ int, section *goquery.Selection) {
			if header := textutil.CollapseWhitespace(section.Find(profile.Header).First().Text()); header != "" {
				lines = append(lines, "["+header+"]")
			}
			lines = append(lines, selectionLines(section.Find(profile.Line))...)
		})

	case ModeSiblingHeaders:
		container.Children().Each(func(_ int, child *goquery.Selection) {
			if profile.Header != "" && child.Is(profile.Header) {
				if header := textutil.CollapseWhitespace(child.Text()); header != "" {
					lines = append(lines, "["+header+"]")
				}
				return
			}
			if child.Is(profile.Line) {
				if line := textutil.CollapseWhitespace(child.Text()); line != "" {
					lines = append(lines, line)
				}
				return
			}
			lines = append(lines, selectionLines(child.Find(profile.Line))...)
		})

	default: // ModeFlatList
		lines = selectionLines(container.Find(profile.Line))
	}

	return lines
}

// twoColumnTableLines recognizes the amount-column/name-column table
// layout some older sites use.
func twoColumnTableLines(doc *goquery.Document) []string {
	var lines []string

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var rows []string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() != 2 {
				return
			}
			amount := textutil.CollapseWhitespace(cells.Eq(0).Text())
			name := textutil.CollapseWhitespace(cells.Eq(1).Text())
			if amount == "" || name == "" || !leadingQuantityPattern.MatchString(amount) {
				return
			}
			rows = append(rows, amount+" "+name)
		})

		if len(rows) >= 2 {
			lines = rows
			return false
		}
		return true
	})

	return lines
}

// headingScanLines finds a heading mentioning "ingredient" and walks its
// following siblings, collecting list items and sub-headers until a
// directions-like heading appears.
func headingScanLines(doc *goquery.Document) []string {
	var lines []string

	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		text := textutil.CollapseWhitespace(heading.Text())
		if !ingredientHeadingPattern.MatchString(text) || stopHeadingPattern.MatchString(text) {
			return true
		}

		for node := heading.Next(); node.Length() > 0; node = node.Next() {
			nodeText := textutil.CollapseWhitespace(node.Text())

			if node.Is("h1, h2, h3, h4, h5, h6") {
				if stopHeadingPattern.MatchString(nodeText) {
					break
				}
				// Sub-heading between lists labels a section.
				if nodeText != "" {
					lines = append(lines, "["+nodeText+"]")
				}
				continue
			}

			if node.Is("ul, ol") {
				lines = append(lines, selectionLines(node.Find("li"))...)
				continue
			}

			lines = append(lines, selectionLines(node.Find("ul li, ol li"))...)
		}

		return len(lines) == 0
	})

	return dropMarkerOnly(lines)
}

// aggressiveListScan keeps any list item on the page that looks like an
// ingredient: a measurement pattern, a leading quantity, or a common
// food word.
func aggressiveListScan(doc *goquery.Document) []string {
	var lines []string

	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		text := textutil.CollapseWhitespace(item.Text())
		if looksLikeIngredientLine(text) {
			lines = append(lines, text)
		}
	})

	return lines
}

// bulletSplitLines handles sites that lay ingredients out as plain text
// separated by bullet characters instead of list markup.
func bulletSplitLines(doc *goquery.Document) []string {
	var lines []string

	doc.Find("p, div").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		text := block.Text()
		if !strings.Contains(text, "•") {
			return true
		}

		var found []string
		for _, part := range strings.Split(text, "•") {
			part = textutil.CollapseWhitespace(part)
			if part != "" && looksLikeIngredientLine(part) {
				found = append(found, part)
			}
		}

		if len(found) >= 2 {
			lines = found
			return false
		}
		return true
	})

	return lines
}

func looksLikeIngredientLine(text string) bool {
	if text == "" || len(text) > 200 {
		return false
	}

	normalized := textutil.NormalizeUnits(textutil.NormalizeFractions(text))
	if textutil.MeasurementPattern.MatchString(normalized) {
		return true
	}
	if leadingQuantityPattern.MatchString(normalized) {
		return true
	}

	lower := strings.ToLower(text)
	for _, word := range foodWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// ExtractDirections runs the direction-side heading scan: find a
// directions-like heading, collect list items and paragraphs until an
// ingredients-like heading, strip numbered prefixes.
func ExtractDirections(doc *goquery.Document) []string {
	var directions []string

	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		text := textutil.CollapseWhitespace(heading.Text())
		if !directionHeadingPattern.MatchString(text) {
			return true
		}

		for node := heading.Next(); node.Length() > 0; node = node.Next() {
			if node.Is("h1, h2, h3, h4, h5, h6") {
				if directionStopPattern.MatchString(textutil.CollapseWhitespace(node.Text())) {
					break
				}
				continue
			}

			if node.Is("ul, ol") {
				node.Find("li").Each(func(_ int, item *goquery.Selection) {
					appendDirectionLine(&directions, item.Text())
				})
				continue
			}

			if node.Is("p") {
				appendDirectionLine(&directions, node.Text())
				continue
			}

			node.Find("ol li, ul li, p").Each(func(_ int, item *goquery.Selection) {
				appendDirectionLine(&directions, item.Text())
			})
		}

		return len(directions) == 0
	})

	return directions
}

func appendDirectionLine(directions *[]string, text string) {
	text = textutil.CollapseWhitespace(numberedPrefixPattern.ReplaceAllString(textutil.CollapseWhitespace(text), ""))
	if text != "" {
		*directions = append(*directions, text)
	}
}

// SplitConcatenatedIngredients repairs lines where markup loss merged
// several ingredients together, inserting a boundary immediately before
// every interior measurement token.
func SplitConcatenatedIngredients(line string) []string {
	normalized := textutil.NormalizeUnits(textutil.NormalizeFractions(line))

	matches := textutil.MeasurementPattern.FindAllStringIndex(normalized, -1)
	if len(matches) < 2 {
		return []string{line}
	}

	var parts []string
	start := 0
	for _, match := range matches[1:] {
		part := textutil.CollapseWhitespace(normalized[start:match[0]])
		if part != "" {
			parts = append(parts, part)
		}
		start = match[0]
	}
	if tail := textutil.CollapseWhitespace(normalized[start:]); tail != "" {
		parts = append(parts, tail)
	}

	return parts
}

// dropMarkerOnly discards a scan result that found section markers but
// not a single actual line.
func dropMarkerOnly(lines []string) []string {
	for _, line := range lines {
		if !strings.HasPrefix(line, "[") {
			return lines
		}
	}
	return nil
}

func selectionLines(sel *goquery.Selection) []string {
	var lines []string
	sel.Each(func(_ int, node *goquery.Selection) {
		if line := textutil.CollapseWhitespace(node.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	return lines
}

func pageName(doc *goquery.Document) string {
	if name := metaContent(doc, `meta[property="og:title"]`); name != "" {
		return name
	}
	if name := textutil.CollapseWhitespace(doc.Find("h1").First().Text()); name != "" {
		return name
	}
	return textutil.CollapseWhitespace(doc.Find("title").First().Text())
}

func pageServes(doc *goquery.Document) string {
	text := doc.Find("body").Text()
	if m := servesPattern.FindStringSubmatch(text); m != nil {
		return textutil.CollapseWhitespace(m[1])
	}
	return ""
}

// pageNotes prefers the page's own description meta; failing that it
// asks readability for the article excerpt.
func pageNotes(doc *goquery.Document, body string) string {
	if notes := metaContent(doc, `meta[property="og:description"]`); notes != "" {
		return notes
	}
	if notes := metaContent(doc, `meta[name="description"]`); notes != "" {
		return notes
	}

	article, err := readability.FromReader(strings.NewReader(body), nil)
	if err != nil {
		return ""
	}
	return textutil.CollapseWhitespace(article.Excerpt)
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return textutil.CollapseWhitespace(content)
}
