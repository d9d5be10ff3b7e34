package recipe

// SourceKind describes where an import originated.
type SourceKind string

const (
	SourceKindURL    SourceKind = "url"
	SourceKindVideo  SourceKind = "video"
	SourceKindManual SourceKind = "manual-text"
)

// Ingredient is one structured ingredient line. A pure section marker is
// represented as an Ingredient with an empty Name and a populated Section.
type Ingredient struct {
	Name         string `json:"name"`
	Amount       string `json:"amount,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Preparation  string `json:"preparation,omitempty"`
	Section      string `json:"section,omitempty"`
	IsOptional   bool   `json:"is_optional,omitempty"`
	BakerPercent string `json:"baker_percent,omitempty"`
}

// IsSectionMarker reports whether the ingredient only labels a group.
func (i Ingredient) IsSectionMarker() bool {
	return i.Name == "" && i.Section != ""
}

// NutritionInfo is built only from explicit numeric fields in a source,
// never inferred.
type NutritionInfo struct {
	Calories     int     `json:"calories,omitempty"`
	Fat          float64 `json:"fat,omitempty"`
	SaturatedFat float64 `json:"saturated_fat,omitempty"`
	Protein      float64 `json:"protein,omitempty"`
	Carbohydrate float64 `json:"carbohydrate,omitempty"`
	Sugar        float64 `json:"sugar,omitempty"`
	Fiber        float64 `json:"fiber,omitempty"`
	Sodium       float64 `json:"sodium,omitempty"`
}

// Confidence carries per-field trust scores in [0,1]. Scores are
// informational for a downstream reviewer; they never gate inclusion.
// An absent field always carries 0.
type Confidence struct {
	Name        float64 `json:"name"`
	Ingredients float64 `json:"ingredients"`
	Directions  float64 `json:"directions"`
	Serves      float64 `json:"serves"`
	Time        float64 `json:"time"`
	Course      float64 `json:"course"`
	Cuisine     float64 `json:"cuisine"`
}

// ImportResult is the pipeline output. Instances are never mutated after
// construction; enrichment steps build a new value so a partial result
// stays usable when enrichment fails.
type ImportResult struct {
	Name        string         `json:"name,omitempty"`
	Course      string         `json:"course,omitempty"`
	Cuisine     string         `json:"cuisine,omitempty"`
	Subcategory string         `json:"subcategory,omitempty"`
	Serves      string         `json:"serves,omitempty"`
	Time        string         `json:"time,omitempty"`
	Ingredients []Ingredient   `json:"ingredients"`
	Directions  []string       `json:"directions"`
	Notes       string         `json:"notes,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Nutrition   *NutritionInfo `json:"nutrition,omitempty"`
	Equipment   []string       `json:"equipment,omitempty"`
	Glass       string         `json:"glass,omitempty"`
	Garnish     string         `json:"garnish,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	SourceKind  SourceKind     `json:"source_kind"`
	Confidence  Confidence     `json:"confidence"`
}

// HasSections reports whether any ingredient carries a section label.
func (r *ImportResult) HasSections() bool {
	for _, ing := range r.Ingredients {
		if ing.Section != "" {
			return true
		}
	}
	return false
}

// IngredientCount returns the number of non-marker ingredients.
func (r *ImportResult) IngredientCount() int {
	n := 0
	for _, ing := range r.Ingredients {
		if !ing.IsSectionMarker() {
			n++
		}
	}
	return n
}
