package strategy

import (
	"context"
	"strings"
	"testing"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/recipe"
)

func mustSource(t *testing.T, url, body string) *fetch.Source {
	t.Helper()
	source, err := fetch.Parse(url, body)
	if err != nil {
		t.Fatalf("failed to build test source: %v", err)
	}
	return source
}

const jsonLDPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":"Soup",
"recipeIngredient":["1 cup water"],"recipeInstructions":["Boil it."]}
</script>
</head><body></body></html>`

func TestJSONLDConfidence(t *testing.T) {
	strategy := NewJSONLDStrategy()

	src := mustSource(t, "https://example.com/soup", jsonLDPage)
	if got := strategy.Confidence(src); got != 0.95 {
		t.Errorf("Expected confidence 0.95 for a Recipe ld+json page, got %f", got)
	}

	plain := mustSource(t, "https://example.com", "<html><body><p>hello</p></body></html>")
	if got := strategy.Confidence(plain); got != 0 {
		t.Errorf("Expected confidence 0 without ld+json, got %f", got)
	}
}

func TestJSONLDExtract(t *testing.T) {
	strategy := NewJSONLDStrategy()
	src := mustSource(t, "https://example.com/soup", jsonLDPage)

	result := strategy.Extract(context.Background(), src)

	if result == nil {
		t.Fatalf("Expected a result")
	}
	if result.Name != "Soup" {
		t.Errorf("Expected name 'Soup', got '%s'", result.Name)
	}
	if result.SourceKind != recipe.SourceKindURL {
		t.Errorf("Expected source kind 'url', got '%s'", result.SourceKind)
	}
}

func TestJSONLDExtractRepairsLiteralNewlines(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
{"@type":"Recipe","name":"Broken
Bread","recipeIngredient":["2 cups flour"],"recipeInstructions":["Bake."]}
</script></head><body></body></html>`

	strategy := NewJSONLDStrategy()
	src := mustSource(t, "https://example.com/bread", page)

	result := strategy.Extract(context.Background(), src)

	if result == nil {
		t.Fatalf("Expected the repair attempt to salvage the block")
	}
	if !strings.Contains(result.Name, "Broken") {
		t.Errorf("Expected repaired name, got '%s'", result.Name)
	}
}

func TestJSONLDExtractSkipsBadBlockAndContinues(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{not json at all</script>
<script type="application/ld+json">
{"@type":"Recipe","name":"Second Block","recipeIngredient":["1 cup rice"],"recipeInstructions":["Cook."]}
</script>
</head><body></body></html>`

	strategy := NewJSONLDStrategy()
	src := mustSource(t, "https://example.com", page)

	result := strategy.Extract(context.Background(), src)

	if result == nil || result.Name != "Second Block" {
		t.Fatalf("Expected the second block to win after the first fails, got %+v", result)
	}
}

func TestAppStateStrategy(t *testing.T) {
	page := `<html><head>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"recipe":{"name":"Noodles",
"ingredients":["200 g noodles","1 tbsp soy sauce"],
"instructions":["Boil noodles.","Toss with sauce."]}}}}
</script>
</head><body></body></html>`

	strategy := NewAppStateStrategy()
	src := mustSource(t, "https://example.com/noodles", page)

	if got := strategy.Confidence(src); got != 0.85 {
		t.Errorf("Expected confidence 0.85, got %f", got)
	}

	result := strategy.Extract(context.Background(), src)
	if result == nil {
		t.Fatalf("Expected a result")
	}
	if result.Name != "Noodles" {
		t.Errorf("Expected name 'Noodles', got '%s'", result.Name)
	}
	if len(result.Directions) != 2 {
		t.Errorf("Expected 2 directions, got %v", result.Directions)
	}
}

func TestAppStateRejectsNonRecipeBlob(t *testing.T) {
	page := `<html><head>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"article":{"headline":"News","paragraphs":["a","b"]}}}}
</script>
</head><body></body></html>`

	strategy := NewAppStateStrategy()
	src := mustSource(t, "https://example.com/news", page)

	if result := strategy.Extract(context.Background(), src); result != nil {
		t.Errorf("Expected nil for a blob that does not look like a recipe, got %+v", result)
	}
}

const microdataPage = `<html><body>
<div itemscope itemtype="https://schema.org/Recipe">
  <h1 itemprop="name">Tacos</h1>
  <meta itemprop="totalTime" content="PT25M">
  <span itemprop="recipeYield">4 servings</span>
  <ul>
    <li itemprop="recipeIngredient">2 cups shredded chicken</li>
    <li itemprop="recipeIngredient">8 small tortillas</li>
  </ul>
  <ol>
    <li itemprop="recipeInstructions">Warm the tortillas.</li>
    <li itemprop="recipeInstructions">Fill and serve.</li>
  </ol>
</div>
</body></html>`

func TestMicrodataExtract(t *testing.T) {
	strategy := NewMicrodataStrategy(NewHTMLFallbackStrategy(NewProfileCache("")))
	src := mustSource(t, "https://example.com/tacos", microdataPage)

	if got := strategy.Confidence(src); got != 0.8 {
		t.Errorf("Expected confidence 0.8, got %f", got)
	}

	result := strategy.Extract(context.Background(), src)
	if result == nil {
		t.Fatalf("Expected a result")
	}
	if result.Name != "Tacos" {
		t.Errorf("Expected name 'Tacos', got '%s'", result.Name)
	}
	if result.Time != "25 min" {
		t.Errorf("Expected time '25 min', got '%s'", result.Time)
	}
	if result.Serves != "4 servings" {
		t.Errorf("Expected serves '4 servings', got '%s'", result.Serves)
	}
	if len(result.Directions) != 2 {
		t.Errorf("Expected 2 directions, got %v", result.Directions)
	}
	if result.Confidence.Ingredients != 0.8 {
		t.Errorf("Expected ingredient confidence 0.8, got %f", result.Confidence.Ingredients)
	}
}

func TestMicrodataDefersWhenDirectionsMissing(t *testing.T) {
	// Microdata carries ingredients but no instructions, while plain
	// HTML has a directions section. Microdata must self-defer.
	page := `<html><body>
<div itemscope itemtype="https://schema.org/Recipe">
  <h1 itemprop="name">Flatbread</h1>
  <ul><li itemprop="recipeIngredient">2 cups flour</li></ul>
</div>
<h2>Ingredients</h2>
<ul><li>2 cups flour</li><li>1 cup water</li></ul>
<h2>Directions</h2>
<ol><li>Knead the dough.</li><li>Cook on a hot pan.</li></ol>
</body></html>`

	fallback := NewHTMLFallbackStrategy(NewProfileCache(""))
	strategy := NewMicrodataStrategy(fallback)
	src := mustSource(t, "https://example.com/flatbread", page)

	result := strategy.Extract(context.Background(), src)

	if result == nil {
		t.Fatalf("Expected the deferred fallback extraction to produce a result")
	}
	if len(result.Directions) != 2 {
		t.Errorf("Expected directions from the HTML fallback, got %v", result.Directions)
	}
	if result.Confidence.Ingredients != fallbackIngredientConfidence {
		t.Errorf("Expected fallback-band ingredient confidence, got %f", result.Confidence.Ingredients)
	}
}

func TestVideoConfidence(t *testing.T) {
	videoSrc := mustSource(t, "https://youtu.be/dQw4w9WgXcQ", "<html></html>")
	pageSrc := mustSource(t, "https://example.com/recipe", "<html></html>")

	video := NewVideoStrategy()
	if got := video.Confidence(videoSrc); got != 1.0 {
		t.Errorf("Expected video confidence 1.0 for a video URL, got %f", got)
	}
	if got := video.Confidence(pageSrc); got != 0 {
		t.Errorf("Expected video confidence 0 for a plain URL, got %f", got)
	}

	// Non-video strategies score 0 on a bare video page.
	profiles := NewProfileCache("")
	fallback := NewHTMLFallbackStrategy(profiles)
	for _, s := range []Strategy{
		NewJSONLDStrategy(),
		NewAppStateStrategy(),
		NewMicrodataStrategy(fallback),
	} {
		if got := s.Confidence(videoSrc); got != 0 {
			t.Errorf("Expected %s confidence 0 on bare video page, got %f", s.Name(), got)
		}
	}
}

func TestVideoIDPatterns(t *testing.T) {
	cases := map[string]string{
		"https://youtu.be/dQw4w9WgXcQ":                       "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":        "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?list=x&v=dQw4w9WgXcQ": "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":         "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":          "dQw4w9WgXcQ",
		"https://example.com/watch?v=short":                  "",
	}

	for url, expected := range cases {
		if got := VideoID(url); got != expected {
			t.Errorf("VideoID(%q): expected %q, got %q", url, expected, got)
		}
	}
}

func TestParseVideoDescription(t *testing.T) {
	description := strings.Join([]string{
		"The best weeknight stir fry!",
		"INGREDIENTS:",
		"2 cups broccoli",
		"1 tbsp soy sauce",
		"2 cloves garlic",
		"0:00 Intro",
		"https://example.com/blog",
		"Follow me on Instagram!",
		"DIRECTIONS:",
		"1. Heat the wok.",
		"2. Stir fry everything.",
		"NOTES:",
		"Use day-old rice.",
		"Prep time: 10 minutes",
		"Cook time: 15 minutes",
	}, "\n")

	parsed := parseVideoDescription(description)

	if len(parsed.ingredientLines) != 3 {
		t.Fatalf("Expected 3 ingredient lines, got %v", parsed.ingredientLines)
	}
	if len(parsed.directions) != 2 {
		t.Fatalf("Expected 2 directions, got %v", parsed.directions)
	}
	if parsed.directions[0] != "Heat the wok." {
		t.Errorf("Expected numbered prefix stripped, got '%s'", parsed.directions[0])
	}
	if !strings.Contains(parsed.notes, "day-old rice") {
		t.Errorf("Expected notes captured, got '%s'", parsed.notes)
	}
	if parsed.time != "25 min" {
		t.Errorf("Expected combined prep+cook '25 min', got '%s'", parsed.time)
	}
	if len(parsed.chapters) != 1 || parsed.chapters[0] != "Intro" {
		t.Errorf("Expected chapter 'Intro', got %v", parsed.chapters)
	}
}

func TestParseVideoDescriptionAutoPromotesMeasurementLines(t *testing.T) {
	parsed := parseVideoDescription("2 cups flour\n1 tsp salt\nhave fun cooking")

	if len(parsed.ingredientLines) != 2 {
		t.Errorf("Expected measurement lines auto-promoted to ingredients, got %v",
			parsed.ingredientLines)
	}
}

func TestExtractCaptionSteps(t *testing.T) {
	payload := `<transcript>
<text start="1" dur="3">add the onions to the pan</text>
<text start="4" dur="3">so yeah that is my story</text>
<text start="8" dur="3">stir until golden</text>
<text start="12" dur="3">add the onions to the pan</text>
</transcript>`

	steps := ExtractCaptionSteps(payload)

	if len(steps) != 2 {
		t.Fatalf("Expected 2 deduplicated action steps, got %v", steps)
	}
	if steps[0] != "add the onions to the pan" || steps[1] != "stir until golden" {
		t.Errorf("Unexpected steps: %v", steps)
	}
}

func TestSelectorPicksHighestConfidence(t *testing.T) {
	profiles := NewProfileCache("")
	fallback := NewHTMLFallbackStrategy(profiles)
	selector := NewSelector(
		NewVideoStrategy(),
		NewJSONLDStrategy(),
		NewAppStateStrategy(),
		NewMicrodataStrategy(fallback),
		fallback,
	)

	src := mustSource(t, "https://example.com/soup", jsonLDPage)

	result, selection, err := selector.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if selection.Strategy != "jsonld" {
		t.Errorf("Expected jsonld to win, got '%s'", selection.Strategy)
	}
	if selection.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %f", selection.Confidence)
	}
	if result.Name != "Soup" {
		t.Errorf("Expected name 'Soup', got '%s'", result.Name)
	}
}

func TestSelectorNoStrategyMatched(t *testing.T) {
	selector := NewSelector(NewVideoStrategy(), NewJSONLDStrategy())
	src := mustSource(t, "https://example.com/about", "<html><body><p>About us</p></body></html>")

	_, _, err := selector.Run(context.Background(), src)

	if err != ErrNoStrategyMatched {
		t.Errorf("Expected ErrNoStrategyMatched, got %v", err)
	}
}

func TestSelectorConfidentMissIsNotCascaded(t *testing.T) {
	// ld+json mentions Recipe but the object carries neither
	// ingredients nor directions: the selected strategy fails and the
	// selector must not fall through to the HTML fallback, even though
	// the page body would satisfy it.
	page := `<html><head>
<script type="application/ld+json">{"@type":"Recipe","name":"Husk"}</script>
</head><body>
<h2>Ingredients</h2><ul><li>1 cup water</li></ul>
</body></html>`

	profiles := NewProfileCache("")
	fallback := NewHTMLFallbackStrategy(profiles)
	selector := NewSelector(NewJSONLDStrategy(), fallback)
	src := mustSource(t, "https://example.com/husk", page)

	result, selection, err := selector.Run(context.Background(), src)

	if err != ErrExtractionFailed {
		t.Fatalf("Expected ErrExtractionFailed, got %v (result %+v)", err, result)
	}
	if selection.Strategy != "jsonld" {
		t.Errorf("Expected the failing winner to be jsonld, got '%s'", selection.Strategy)
	}
}

func TestSelectorTieBrokenByRegistrationOrder(t *testing.T) {
	first := &stubStrategy{name: "first", confidence: 0.5}
	second := &stubStrategy{name: "second", confidence: 0.5}
	selector := NewSelector(first, second)

	src := mustSource(t, "https://example.com", "<html></html>")

	_, selection, err := selector.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if selection.Strategy != "first" {
		t.Errorf("Expected declaration order to break the tie, got '%s'", selection.Strategy)
	}
}

type stubStrategy struct {
	name       string
	confidence float64
}

func (s *stubStrategy) Name() string                            { return s.name }
func (s *stubStrategy) Confidence(_ *fetch.Source) float64      { return s.confidence }
func (s *stubStrategy) Extract(_ context.Context, src *fetch.Source) *recipe.ImportResult {
	return &recipe.ImportResult{Name: s.name, SourceURL: src.URL, SourceKind: recipe.SourceKindURL}
}
