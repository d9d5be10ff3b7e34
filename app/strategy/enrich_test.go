package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mealstash/recipe-comb/app/recipe"
)

func sectionedProfileCache(t *testing.T) *ProfileCache {
	t.Helper()

	dir := t.TempDir()
	profile := `host: flatdata.test
mode: container-sections
container: .ingredients
section: .group
header: h4
line: li
sectioned_html: true
`
	if err := os.WriteFile(filepath.Join(dir, "flatdata.yml"), []byte(profile), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewProfileCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}
	return cache
}

const sectionedPage = `<html><body>
<div class="ingredients">
  <div class="group">
    <h4>Base</h4>
    <ul><li>2 cups flour</li><li>1 cup water</li></ul>
  </div>
  <div class="group">
    <h4>Topping</h4>
    <ul><li>1 cup cheese</li></ul>
  </div>
</div>
</body></html>`

func TestEnricherRecoversSections(t *testing.T) {
	enricher := NewEnricher(sectionedProfileCache(t))
	src := mustSource(t, "https://flatdata.test/pizza", sectionedPage)

	flat := &recipe.ImportResult{
		Name: "Pizza",
		Ingredients: []recipe.Ingredient{
			{Name: "flour", Amount: "2", Unit: "cup"},
			{Name: "water", Amount: "1", Unit: "cup"},
			{Name: "cheese", Amount: "1", Unit: "cup"},
		},
		SourceKind: recipe.SourceKindURL,
	}

	enriched := enricher.Run(src, flat)

	if !enriched.HasSections() {
		t.Fatalf("Expected sections recovered from HTML, got %v", enriched.Ingredients)
	}
	if enriched.IngredientCount() < flat.IngredientCount() {
		t.Errorf("Expected at least as many ingredients after recovery")
	}

	// The original result must be untouched.
	if flat.HasSections() {
		t.Errorf("Expected the pre-enrichment result to stay flat")
	}
}

func TestEnricherKeepsOriginalWhenRecoveryIsWorse(t *testing.T) {
	enricher := NewEnricher(sectionedProfileCache(t))
	// Page profile matches but the container only yields one line.
	page := `<html><body>
<div class="ingredients"><div class="group"><h4>Base</h4><ul><li>2 cups flour</li></ul></div></div>
</body></html>`
	src := mustSource(t, "https://flatdata.test/pizza", page)

	flat := &recipe.ImportResult{
		Ingredients: []recipe.Ingredient{
			{Name: "flour"}, {Name: "water"}, {Name: "cheese"},
		},
		SourceKind: recipe.SourceKindURL,
	}

	enriched := enricher.Run(src, flat)

	if enriched.HasSections() {
		t.Errorf("Expected the original flat result kept when recovery drops lines")
	}
	if len(enriched.Ingredients) != 3 {
		t.Errorf("Expected 3 original ingredients, got %d", len(enriched.Ingredients))
	}
}

func TestEnricherSkipsUnknownHost(t *testing.T) {
	enricher := NewEnricher(sectionedProfileCache(t))
	src := mustSource(t, "https://unknown.test/pizza", sectionedPage)

	flat := &recipe.ImportResult{
		Ingredients: []recipe.Ingredient{{Name: "flour"}},
		SourceKind:  recipe.SourceKindURL,
	}

	enriched := enricher.Run(src, flat)

	if enriched.HasSections() {
		t.Errorf("Expected no recovery without a matching profile")
	}
}

func TestEnricherDrinkMetadata(t *testing.T) {
	page := `<html><body>
<p>Shake well and strain. Serve in a chilled coupe glass.</p>
<p>Garnish with a lemon twist.</p>
</body></html>`

	enricher := NewEnricher(NewProfileCache(""))
	src := mustSource(t, "https://example.com/drink", page)

	result := &recipe.ImportResult{
		Name:        "Sidecar",
		Course:      "Cocktail",
		Ingredients: []recipe.Ingredient{{Name: "cognac", Amount: "2", Unit: "oz"}},
		SourceKind:  recipe.SourceKindURL,
	}

	enriched := enricher.Run(src, result)

	if enriched.Glass == "" {
		t.Errorf("Expected a glass to be mined from the page")
	}
	if enriched.Garnish == "" {
		t.Errorf("Expected a garnish to be mined from the page")
	}
	if result.Glass != "" || result.Garnish != "" {
		t.Errorf("Expected the original result untouched")
	}
}

func TestEnricherNonDrinkLeftAlone(t *testing.T) {
	page := `<html><body><p>Serve in a tall glass. Garnish with mint.</p></body></html>`

	enricher := NewEnricher(NewProfileCache(""))
	src := mustSource(t, "https://example.com/stew", page)

	result := &recipe.ImportResult{
		Name:       "Stew",
		Course:     "Main",
		SourceKind: recipe.SourceKindURL,
	}

	enriched := enricher.Run(src, result)

	if enriched.Glass != "" || enriched.Garnish != "" {
		t.Errorf("Expected no drink enrichment for a main course")
	}
}
