package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// Stateless text cleanup shared by every parser in the pipeline. All
// functions here are pure; DecodeHTML is idempotent.

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var numericEntityPattern = regexp.MustCompile(`&#(x?[0-9a-fA-F]+);`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// namedEntities is deliberately a fixed table rather than a full HTML5
// entity set: recipe sources in the wild use a handful of entities.
var namedEntities = []struct {
	entity string
	text   string
}{
	{"&nbsp;", " "},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&apos;", "'"},
	{"&rsquo;", "’"},
	{"&lsquo;", "‘"},
	{"&rdquo;", "”"},
	{"&ldquo;", "“"},
	{"&ndash;", "–"},
	{"&mdash;", "—"},
	{"&frac12;", "½"},
	{"&frac14;", "¼"},
	{"&frac34;", "¾"},
	{"&deg;", "°"},
	{"&amp;", "&"},
}

// textualFractions maps ASCII fraction spellings to their unicode
// codepoints. Longer denominators first so "1/2" never clips "1/12".
var textualFractions = []struct {
	ascii   string
	unicode string
}{
	{"1/10", "⅒"},
	{"1/2", "½"},
	{"1/3", "⅓"},
	{"2/3", "⅔"},
	{"1/4", "¼"},
	{"3/4", "¾"},
	{"1/5", "⅕"},
	{"2/5", "⅖"},
	{"1/6", "⅙"},
	{"5/6", "⅚"},
	{"1/8", "⅛"},
	{"3/8", "⅜"},
}

type unitRule struct {
	pattern   *regexp.Regexp
	canonical string
}

// unitRules normalize plural and abbreviated unit spellings to one
// canonical token per unit. Whole-word, case-insensitive.
var unitRules = []unitRule{
	{regexp.MustCompile(`(?i)\btablespoons?\b|\btbsps?\b\.?|\btbs\b\.?`), "tbsp"},
	{regexp.MustCompile(`(?i)\bteaspoons?\b|\btsps?\b\.?`), "tsp"},
	{regexp.MustCompile(`(?i)\bcups?\b`), "cup"},
	{regexp.MustCompile(`(?i)\bounces?\b|\boz\b\.?`), "oz"},
	{regexp.MustCompile(`(?i)\bfluid oz\b|\bfl\.? ?oz\b\.?`), "fl oz"},
	{regexp.MustCompile(`(?i)\bpounds?\b|\blbs?\b\.?`), "lb"},
	{regexp.MustCompile(`(?i)\bgrams?\b|\bgr\b\.?`), "g"},
	{regexp.MustCompile(`(?i)\bkilograms?\b|\bkgs?\b\.?`), "kg"},
	{regexp.MustCompile(`(?i)\bmillilit(?:er|re)s?\b|\bmls?\b\.?`), "ml"},
	{regexp.MustCompile(`(?i)\blit(?:er|re)s?\b`), "l"},
	{regexp.MustCompile(`(?i)\bquarts?\b|\bqts?\b\.?`), "qt"},
	{regexp.MustCompile(`(?i)\bpints?\b|\bpts?\b\.?`), "pt"},
	{regexp.MustCompile(`(?i)\bgallons?\b|\bgals?\b\.?`), "gal"},
	{regexp.MustCompile(`(?i)\bcloves?\b`), "clove"},
	{regexp.MustCompile(`(?i)\bpinch(?:es)?\b`), "pinch"},
	{regexp.MustCompile(`(?i)\bdash(?:es)?\b`), "dash"},
	{regexp.MustCompile(`(?i)\bsticks?\b`), "stick"},
	{regexp.MustCompile(`(?i)\bcans?\b`), "can"},
	{regexp.MustCompile(`(?i)\bpackages?\b|\bpkgs?\b\.?`), "package"},
	{regexp.MustCompile(`(?i)\bslices?\b`), "slice"},
	{regexp.MustCompile(`(?i)\bbunch(?:es)?\b`), "bunch"},
	{regexp.MustCompile(`(?i)\bsprigs?\b`), "sprig"},
}

// MeasurementPattern matches a quantity token followed by a canonical
// unit word, used by strategies to decide whether a line "looks like" an
// ingredient.
var MeasurementPattern = regexp.MustCompile(`(?i)(\d+|[½⅓⅔¼¾⅕⅖⅙⅚⅛⅜⅒])[\s-]*(tbsp|tsp|cup|oz|fl oz|lb|g|kg|ml|l|qt|pt|gal|clove|pinch|dash|stick|can|package|slice|bunch|sprig)s?\b`)

// DecodeHTML decodes numeric, hex and fixed-table entities, strips tags,
// normalizes fraction spellings and unit tokens, and collapses
// whitespace. Running it on an already-decoded string is a no-op.
func DecodeHTML(text string) string {
	out := text

	// Entities are decoded to a fixed point before tags are stripped:
	// double-encoded input ("&amp;lt;") and entity-encoded markup
	// ("&lt;b&gt;") fully resolve in one call, so a second call finds
	// nothing left to decode. Every entity decodes to something shorter,
	// so the loop terminates.
	for {
		decoded := decodeEntities(out)
		if decoded == out {
			break
		}
		out = decoded
	}

	out = tagPattern.ReplaceAllString(out, " ")

	out = NormalizeFractions(out)
	out = NormalizeUnits(out)

	return CollapseWhitespace(out)
}

func decodeEntities(text string) string {
	out := numericEntityPattern.ReplaceAllStringFunc(text, decodeNumericEntity)
	for _, e := range namedEntities {
		out = strings.ReplaceAll(out, e.entity, e.text)
	}
	return out
}

// NormalizeFractions replaces ASCII fraction spellings with unicode
// fraction characters. "1 1/2 cups" becomes "1 ½ cups" with the leading
// whole number kept as-is.
func NormalizeFractions(text string) string {
	for _, f := range textualFractions {
		text = strings.ReplaceAll(text, f.ascii, f.unicode)
	}
	return text
}

// NormalizeUnits rewrites plural and abbreviated unit spellings to their
// canonical token.
func NormalizeUnits(text string) string {
	for _, rule := range unitRules {
		text = rule.pattern.ReplaceAllString(text, rule.canonical)
	}
	return text
}

// CollapseWhitespace trims the string and squeezes internal runs of
// whitespace to single spaces.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// IsCanonicalUnit reports whether token is one of the canonical unit
// spellings produced by NormalizeUnits.
func IsCanonicalUnit(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, rule := range unitRules {
		if token == rule.canonical {
			return true
		}
	}
	return false
}

func decodeNumericEntity(entity string) string {
	body := entity[2 : len(entity)-1]

	base := 10
	if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
		base = 16
		body = body[1:]
	}

	code, err := strconv.ParseInt(body, base, 32)
	if err != nil || code <= 0 {
		return entity
	}

	return string(rune(code))
}
