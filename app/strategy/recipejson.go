package strategy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mealstash/recipe-comb/app/ingredient"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/textutil"
)

// Shared normalization of a recipe-shaped JSON object into an
// ImportResult. Both the JSON-LD and the embedded-application-state
// strategies funnel their candidates through here.

// maxSearchDepth bounds the recursive search through arbitrarily nested
// JSON so adversarial documents terminate.
const maxSearchDepth = 10

// findRecipeNode walks an arbitrary JSON value looking for the first
// object whose declared @type is "Recipe" (scalar or member of a type
// array). The search short-circuits on the first match and descends
// through @graph and any nested object or array.
func findRecipeNode(value any, depth int) map[string]any {
	if depth > maxSearchDepth {
		return nil
	}

	switch v := value.(type) {
	case map[string]any:
		if hasRecipeType(v) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			if node := findRecipeNode(graph, depth+1); node != nil {
				return node
			}
		}
		for _, child := range v {
			if node := findRecipeNode(child, depth+1); node != nil {
				return node
			}
		}
	case []any:
		for _, child := range v {
			if node := findRecipeNode(child, depth+1); node != nil {
				return node
			}
		}
	}

	return nil
}

func hasRecipeType(node map[string]any) bool {
	declared, ok := node["@type"]
	if !ok {
		return false
	}

	switch t := declared.(type) {
	case string:
		return strings.EqualFold(t, "Recipe")
	case []any:
		for _, entry := range t {
			if s, ok := entry.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

// looksLikeRecipe validates an untyped candidate object: it must carry a
// name and at least one of an ingredient or instruction collection.
// Used by the application-state strategy where no @type exists.
func looksLikeRecipe(node map[string]any) bool {
	if stringField(node, "name", "title") == "" {
		return false
	}
	for _, key := range []string{"recipeIngredient", "ingredients", "recipeInstructions", "instructions"} {
		if _, ok := node[key]; ok {
			return true
		}
	}
	return false
}

// buildFromRecipeJSON turns a recipe-shaped object into an ImportResult.
// A candidate with neither ingredients nor directions is rejected as not
// a recipe.
func buildFromRecipeJSON(node map[string]any, sourceURL string, fieldConfidence float64) *recipe.ImportResult {
	lines := collectIngredientLines(node)
	directions := collectDirections(node)

	if len(lines) == 0 && len(directions) == 0 {
		return nil
	}

	parser := ingredient.NewParser()
	ingredients := parser.ParseList(lines)

	result := &recipe.ImportResult{
		Name:        textutil.DecodeHTML(stringField(node, "name", "title", "headline")),
		Serves:      yieldField(node),
		Time:        durationField(node),
		Ingredients: ingredients,
		Directions:  directions,
		Notes:       textutil.DecodeHTML(stringField(node, "description")),
		ImageURL:    imageField(node),
		Course:      firstOfStringOrList(node, "recipeCategory"),
		Cuisine:     firstOfStringOrList(node, "recipeCuisine"),
		Nutrition:   nutritionField(node),
		Equipment:   equipmentField(node),
		SourceURL:   sourceURL,
		SourceKind:  recipe.SourceKindURL,
	}

	result.Confidence = confidenceFor(result, fieldConfidence)

	return result
}

// confidenceFor assigns the band score to every populated field and 0 to
// every absent one.
func confidenceFor(r *recipe.ImportResult, band float64) recipe.Confidence {
	var c recipe.Confidence
	if r.Name != "" {
		c.Name = band
	}
	if len(r.Ingredients) > 0 {
		c.Ingredients = band
	}
	if len(r.Directions) > 0 {
		c.Directions = band
	}
	if r.Serves != "" {
		c.Serves = band
	}
	if r.Time != "" {
		c.Time = band
	}
	if r.Course != "" {
		c.Course = band
	}
	if r.Cuisine != "" {
		c.Cuisine = band
	}
	return c
}

// collectIngredientLines flattens the ingredient collection. Four item
// shapes appear in the wild: plain strings, {text|name} objects,
// quantity/unit/name triples, and section groups with nested items.
func collectIngredientLines(node map[string]any) []string {
	raw, ok := firstPresent(node, "recipeIngredient", "ingredients")
	if !ok {
		return nil
	}

	items, ok := raw.([]any)
	if !ok {
		if s, ok := raw.(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}

	var lines []string
	for _, item := range items {
		lines = append(lines, ingredientItemLines(item)...)
	}
	return lines
}

func ingredientItemLines(item any) []string {
	switch v := item.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return []string{v}
		}
	case map[string]any:
		// Section group: a label plus nested items.
		if nested, ok := firstPresent(v, "itemListElement", "items", "ingredients"); ok {
			label := stringField(v, "name", "title")
			var lines []string
			if label != "" {
				lines = append(lines, "["+label+"]")
			}
			if children, ok := nested.([]any); ok {
				for _, child := range children {
					lines = append(lines, ingredientItemLines(child)...)
				}
			}
			return lines
		}

		// Quantity/unit/name triple.
		name := stringField(v, "name", "text", "ingredient")
		quantity := stringField(v, "quantity", "amount")
		unit := stringField(v, "unit")
		if name != "" {
			parts := make([]string, 0, 3)
			if quantity != "" {
				parts = append(parts, quantity)
			}
			if unit != "" {
				parts = append(parts, unit)
			}
			parts = append(parts, name)
			return []string{strings.Join(parts, " ")}
		}
	}
	return nil
}

// collectDirections flattens the instruction collection: plain strings,
// HowToStep objects, and named HowToSection groups.
func collectDirections(node map[string]any) []string {
	raw, ok := firstPresent(node, "recipeInstructions", "instructions")
	if !ok {
		return nil
	}

	var directions []string
	appendDirection := func(text string) {
		text = textutil.DecodeHTML(text)
		if text != "" {
			directions = append(directions, text)
		}
	}

	var walk func(item any)
	walk = func(item any) {
		switch v := item.(type) {
		case string:
			appendDirection(v)
		case []any:
			for _, child := range v {
				walk(child)
			}
		case map[string]any:
			if nested, ok := firstPresent(v, "itemListElement", "steps"); ok {
				if label := stringField(v, "name"); label != "" {
					appendDirection(label + ":")
				}
				walk(nested)
				return
			}
			appendDirection(stringField(v, "text", "name"))
		}
	}
	walk(raw)

	return directions
}

func yieldField(node map[string]any) string {
	raw, ok := firstPresent(node, "recipeYield", "yield")
	if !ok {
		return ""
	}

	switch v := raw.(type) {
	case string:
		return textutil.CollapseWhitespace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return textutil.CollapseWhitespace(s)
			}
		}
	}
	return ""
}

// durationField prefers totalTime and falls back to prep+cook combined.
func durationField(node map[string]any) string {
	if total := parseISODuration(stringField(node, "totalTime")); total != "" {
		return total
	}

	prep := isoDurationMinutes(stringField(node, "prepTime"))
	cook := isoDurationMinutes(stringField(node, "cookTime"))
	if prep+cook == 0 {
		return ""
	}
	return formatMinutes(prep + cook)
}

var isoDurationPattern = regexp.MustCompile(`(?i)^PT(?:(\d+)H)?(?:(\d+)M)?`)

// parseISODuration renders "PT1H30M" as "1 h 30 min".
func parseISODuration(value string) string {
	minutes := isoDurationMinutes(value)
	if minutes == 0 {
		return ""
	}
	return formatMinutes(minutes)
}

func isoDurationMinutes(value string) int {
	m := isoDurationPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes
}

func formatMinutes(total int) string {
	hours := total / 60
	minutes := total % 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%d h %d min", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d h", hours)
	default:
		return fmt.Sprintf("%d min", minutes)
	}
}

func imageField(node map[string]any) string {
	raw, ok := node["image"]
	if !ok {
		return ""
	}

	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		return stringField(v, "url", "contentUrl")
	case []any:
		if len(v) > 0 {
			return imageField(map[string]any{"image": v[0]})
		}
	}
	return ""
}

func nutritionField(node map[string]any) *recipe.NutritionInfo {
	raw, ok := node["nutrition"]
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	info := &recipe.NutritionInfo{
		Calories:     int(leadingNumber(stringField(m, "calories"))),
		Fat:          leadingNumber(stringField(m, "fatContent")),
		SaturatedFat: leadingNumber(stringField(m, "saturatedFatContent")),
		Protein:      leadingNumber(stringField(m, "proteinContent")),
		Carbohydrate: leadingNumber(stringField(m, "carbohydrateContent")),
		Sugar:        leadingNumber(stringField(m, "sugarContent")),
		Fiber:        leadingNumber(stringField(m, "fiberContent")),
		Sodium:       leadingNumber(stringField(m, "sodiumContent")),
	}

	if *info == (recipe.NutritionInfo{}) {
		return nil
	}
	return info
}

func equipmentField(node map[string]any) []string {
	raw, ok := node["tool"]
	if !ok {
		return nil
	}

	var equipment []string
	appendTool := func(name string) {
		name = textutil.CollapseWhitespace(name)
		if name != "" {
			equipment = append(equipment, name)
		}
	}

	switch v := raw.(type) {
	case string:
		appendTool(v)
	case map[string]any:
		appendTool(stringField(v, "name"))
	case []any:
		for _, item := range v {
			switch tool := item.(type) {
			case string:
				appendTool(tool)
			case map[string]any:
				appendTool(stringField(tool, "name"))
			}
		}
	}
	return equipment
}

var leadingNumberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func leadingNumber(value string) float64 {
	m := leadingNumberPattern.FindString(value)
	if m == "" {
		return 0
	}
	n, _ := strconv.ParseFloat(m, 64)
	return n
}

func stringField(node map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := node[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstOfStringOrList(node map[string]any, key string) string {
	raw, ok := node[key]
	if !ok {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstPresent(node map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := node[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
