package ingredient

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/textutil"
)

// Parser turns free-text ingredient lines into structured records,
// detecting inline and block section headers along the way. It is
// stateless; one instance can serve concurrent imports.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

const maxHeaderLength = 60

var (
	bracketMarkerPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*`)
	parenMarkerPattern   = regexp.MustCompile(`^\(([^)]+)\)\s*`)
	digitPattern         = regexp.MustCompile(`\d`)

	// Leading amount: optional whole number, then a number or unicode
	// fraction, optionally hyphenated into a range ("2-3").
	amountPattern = regexp.MustCompile(`^((?:\d+\s+)?(?:\d+(?:\.\d+)?|[½⅓⅔¼¾⅕⅖⅙⅚⅛⅜⅒])(?:\s*[-–]\s*(?:\d+(?:\.\d+)?|[½⅓⅔¼¾⅕⅖⅙⅚⅛⅜⅒]))?)\s+(.+)$`)

	bakerPercentPattern = regexp.MustCompile(`^(.+?),\s*(\d+(?:\.\d+)?)%\s*[–-]`)

	optionalPattern = regexp.MustCompile(`(?i)\s*(?:\(optional\)|,\s*optional)\s*$`)
)

var fractionValues = map[rune]float64{
	'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75,
	'⅕': 0.2, '⅖': 0.4, '⅙': 1.0 / 6, '⅚': 5.0 / 6,
	'⅛': 0.125, '⅜': 0.375, '⅒': 0.1,
}

// ParseList parses raw ingredient lines, one ingredient per line.
// Unparseable lines are dropped; the batch never fails as a whole.
func (p *Parser) ParseList(rawLines []string) []recipe.Ingredient {
	ingredients := make([]recipe.Ingredient, 0, len(rawLines))

	lines := p.rewriteBlockHeaders(rawLines)

	currentSection := ""
	for _, line := range lines {
		line = textutil.DecodeHTML(line)
		if line == "" {
			continue
		}

		section, rest := p.splitInlineMarker(line)
		if section != "" {
			currentSection = section
		}

		if rest == "" {
			// Marker-only line: keep it so empty sections are not lost.
			if section != "" {
				ingredients = append(ingredients, recipe.Ingredient{Section: section})
			}
			continue
		}

		ing := p.parseLine(rest)
		if ing.Name == "" {
			continue
		}
		ing.Section = currentSection
		ingredients = append(ingredients, ing)
	}

	return p.applyOrdering(ingredients)
}

// rewriteBlockHeaders reclassifies a line as a section marker when it
// ends with a colon, contains no digit, and is short enough to be a
// heading rather than an ingredient with a trailing note.
func (p *Parser) rewriteBlockHeaders(rawLines []string) []string {
	lines := make([]string, 0, len(rawLines))
	for _, raw := range rawLines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") &&
			!digitPattern.MatchString(line) &&
			len(line) < maxHeaderLength {
			name := strings.TrimSpace(strings.TrimSuffix(line, ":"))
			if name != "" {
				line = "[" + name + "]"
			}
		}

		lines = append(lines, line)
	}
	return lines
}

// splitInlineMarker detects a bracketed or parenthetical section marker
// at the start of the line and strips it, returning the section name and
// the remainder. "(For the Sauce)" and "(Sauce)" are equivalent.
func (p *Parser) splitInlineMarker(line string) (string, string) {
	if m := bracketMarkerPattern.FindStringSubmatch(line); m != nil {
		return cleanSectionName(m[1]), strings.TrimSpace(line[len(m[0]):])
	}

	if m := parenMarkerPattern.FindStringSubmatch(line); m != nil {
		name := cleanSectionName(m[1])
		// "(optional)" is an ingredient attribute, not a section.
		if !strings.EqualFold(name, "optional") {
			return name, strings.TrimSpace(line[len(m[0]):])
		}
	}

	return "", line
}

func cleanSectionName(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "for the ") {
		name = strings.TrimSpace(name[len("for the "):])
	} else if strings.HasPrefix(lower, "for ") {
		name = strings.TrimSpace(name[len("for "):])
	}
	return name
}

// parseLine splits a marker-free line into amount, unit, name and
// preparation. Lines with no leading quantity come back as bare names.
func (p *Parser) parseLine(line string) recipe.Ingredient {
	var ing recipe.Ingredient

	if optionalPattern.MatchString(line) {
		ing.IsOptional = true
		line = optionalPattern.ReplaceAllString(line, "")
	}

	if _, percent, ok := ExtractBakerPercent(line); ok {
		ing.BakerPercent = percent
	}

	rest := line
	if m := amountPattern.FindStringSubmatch(line); m != nil {
		ing.Amount = textutil.NormalizeFractions(textutil.CollapseWhitespace(m[1]))
		rest = m[2]
	}

	fields := strings.Fields(rest)
	if len(fields) > 1 && textutil.IsCanonicalUnit(fields[0]) && ing.Amount != "" {
		ing.Unit = strings.ToLower(fields[0])
		rest = strings.Join(fields[1:], " ")
	}

	name, preparation := splitPreparation(rest)
	ing.Name = strings.TrimSpace(name)
	ing.Preparation = preparation

	return ing
}

// splitPreparation peels a trailing comma clause off the name:
// "sifted flour, for dusting" -> ("sifted flour", "for dusting").
// A comma clause carrying a percent sign is baker's-percentage notation
// and stays with the name.
func splitPreparation(text string) (string, string) {
	idx := strings.LastIndex(text, ",")
	if idx < 0 {
		return text, ""
	}

	clause := strings.TrimSpace(text[idx+1:])
	if clause == "" || strings.Contains(clause, "%") {
		return text, ""
	}

	return strings.TrimSpace(text[:idx]), clause
}

// ExtractBakerPercent recognizes the "<name>, <number>% –" convention
// used in bread formulas and returns the name and numeric percentage.
func ExtractBakerPercent(line string) (string, string, bool) {
	m := bakerPercentPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// applyOrdering keeps source order verbatim whenever any section marker
// exists; sections matter more than any derived ordering. A flat list is
// stably sorted by descending quantity magnitude.
func (p *Parser) applyOrdering(ingredients []recipe.Ingredient) []recipe.Ingredient {
	for _, ing := range ingredients {
		if ing.Section != "" {
			return ingredients
		}
	}

	sort.SliceStable(ingredients, func(i, j int) bool {
		return amountMagnitude(ingredients[i].Amount) > amountMagnitude(ingredients[j].Amount)
	})

	return ingredients
}

// amountMagnitude converts a display amount ("1 ½", "2-3") to a float
// for ordering. Ranges count as their lower bound; unparsable amounts
// are 0 so bare-name lines sink to the end without reshuffling.
func amountMagnitude(amount string) float64 {
	if amount == "" {
		return 0
	}

	// Take the lower bound of a range.
	for _, sep := range []string{"-", "–"} {
		if idx := strings.Index(amount, sep); idx > 0 {
			amount = amount[:idx]
		}
	}

	total := 0.0
	for _, field := range strings.Fields(amount) {
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			total += v
			continue
		}
		for _, r := range field {
			if v, ok := fractionValues[r]; ok {
				total += v
			}
		}
	}
	return total
}
