package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/ingredient"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/textutil"
)

const (
	videoIngredientConfidence = 0.7
	videoDirectionConfidence  = 0.6
	maxCaptionSteps           = 15
	minDescriptionIngredients = 3
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
}

var (
	timestampLinePattern  = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	chapterPattern        = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)\s+[-–]?\s*(.+)$`)
	shortDescriptionRegex = regexp.MustCompile(`"shortDescription":"((?:[^"\\]|\\.)*)"`)
	captionTextPattern    = regexp.MustCompile(`(?s)<text[^>]*>(.*?)</text>`)
	prepTimePattern       = regexp.MustCompile(`(?i)prep(?:aration)?\s*time\s*:?\s*(\d+)\s*(?:min|minute)`)
	cookTimePattern       = regexp.MustCompile(`(?i)cook(?:ing)?\s*time\s*:?\s*(\d+)\s*(?:min|minute)`)
	totalTimePattern      = regexp.MustCompile(`(?i)total\s*time\s*:?\s*(\d+)\s*(?:min|minute)`)
)

var socialLineMarkers = []string{
	"instagram", "facebook", "twitter", "tiktok", "patreon",
	"subscribe", "follow me", "follow us", "merch", "discord",
}

// cookingVerbs lead the caption sentences that get promoted to coarse
// direction steps.
var cookingVerbs = []string{
	"add", "mix", "stir", "combine", "whisk", "pour", "heat", "bake",
	"boil", "simmer", "chop", "slice", "dice", "fold", "knead", "season",
	"preheat", "melt", "fry", "saute", "sauté", "roast", "grill", "blend",
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoStrategy handles known video-platform URLs: metadata via the
// oEmbed endpoint, recipe content mined from the description, and timed
// captions or chapter markers as a last resort for directions.
type VideoStrategy struct {
	client *resty.Client
	parser *ingredient.Parser
}

func NewVideoStrategy() *VideoStrategy {
	return &VideoStrategy{
		client: resty.New().SetHeader("Accept", "application/json"),
		parser: ingredient.NewParser(),
	}
}

func (s *VideoStrategy) Name() string {
	return "video"
}

// Confidence is 1.0 exactly when the URL carries a known video ID
// pattern. The signal is unambiguous, so the selector short-circuits.
func (s *VideoStrategy) Confidence(src *fetch.Source) float64 {
	if VideoID(src.URL) != "" {
		return 1.0
	}
	return 0
}

// VideoID extracts the 11-character video identifier from a platform
// URL, or returns "".
func VideoID(url string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func (s *VideoStrategy) Extract(ctx context.Context, src *fetch.Source) *recipe.ImportResult {
	id := VideoID(src.URL)
	if id == "" {
		return nil
	}

	meta := s.fetchOEmbed(ctx, id)
	description := videoDescription(src)

	parsed := parseVideoDescription(description)

	directions := parsed.directions
	if len(parsed.ingredientLines) < minDescriptionIngredients {
		if steps := s.captionSteps(ctx, id); len(steps) > 0 {
			if len(directions) == 0 {
				directions = steps
			}
		} else if len(directions) == 0 {
			directions = parsed.chapters
		}
	}

	ingredients := s.parser.ParseList(parsed.ingredientLines)
	if len(ingredients) == 0 && len(directions) == 0 {
		return nil
	}

	result := &recipe.ImportResult{
		Name:        meta.Title,
		Time:        parsed.time,
		Ingredients: ingredients,
		Directions:  directions,
		Notes:       parsed.notes,
		ImageURL:    meta.ThumbnailURL,
		SourceURL:   src.URL,
		SourceKind:  recipe.SourceKindVideo,
	}

	if result.Name != "" {
		result.Confidence.Name = 1.0
	}
	if len(ingredients) > 0 {
		result.Confidence.Ingredients = videoIngredientConfidence
	}
	if len(directions) > 0 {
		result.Confidence.Directions = videoDirectionConfidence
	}
	if result.Time != "" {
		result.Confidence.Time = videoDirectionConfidence
	}

	return result
}

func (s *VideoStrategy) fetchOEmbed(ctx context.Context, id string) oembedResponse {
	var meta oembedResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":    "https://www.youtube.com/watch?v=" + id,
			"format": "json",
		}).
		SetResult(&meta).
		Get("https://www.youtube.com/oembed")

	if err != nil || resp.IsError() {
		slog.Debug("oEmbed lookup failed", "video", id, "error", err)
		return oembedResponse{}
	}

	return meta
}

// videoDescription digs the full description out of the player response
// blob in the fetched watch page, falling back to the meta description.
func videoDescription(src *fetch.Source) string {
	if m := shortDescriptionRegex.FindStringSubmatch(src.Body); m != nil {
		var decoded string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &decoded); err == nil {
			return decoded
		}
	}
	return metaContent(src.Doc, `meta[name="description"]`)
}

type parsedDescription struct {
	ingredientLines []string
	directions      []string
	chapters        []string
	notes           string
	time            string
}

// parseVideoDescription walks the description line by line. Keyword
// headers switch the active section; a measurement-looking line before
// any header is auto-promoted to ingredients; timestamp, URL and
// social-link lines are skipped everywhere.
func parseVideoDescription(description string) parsedDescription {
	var parsed parsedDescription
	var noteLines []string

	current := ""
	for _, raw := range strings.Split(description, "\n") {
		line := textutil.CollapseWhitespace(raw)
		if line == "" {
			continue
		}

		if m := chapterPattern.FindStringSubmatch(line); m != nil {
			parsed.chapters = append(parsed.chapters, textutil.CollapseWhitespace(m[2]))
			continue
		}
		if skipDescriptionLine(line) {
			continue
		}

		if section := descriptionHeader(line); section != "" {
			current = section
			continue
		}

		switch current {
		case "ingredients":
			parsed.ingredientLines = append(parsed.ingredientLines, line)
		case "directions":
			parsed.directions = append(parsed.directions, numberedPrefixPattern.ReplaceAllString(line, ""))
		case "notes":
			noteLines = append(noteLines, line)
		default:
			// No header seen yet: a measurement-looking line is still
			// an ingredient, but the section stays undecided.
			normalized := textutil.NormalizeUnits(textutil.NormalizeFractions(line))
			if textutil.MeasurementPattern.MatchString(normalized) {
				parsed.ingredientLines = append(parsed.ingredientLines, line)
			}
		}
	}

	parsed.notes = strings.Join(noteLines, " ")
	parsed.time = descriptionTime(description)

	return parsed
}

func descriptionHeader(line string) string {
	lower := strings.ToLower(strings.Trim(line, ":- "))
	if len(lower) > 40 {
		return ""
	}
	switch {
	case strings.Contains(lower, "ingredient"):
		return "ingredients"
	case strings.Contains(lower, "direction"), strings.Contains(lower, "instruction"),
		strings.Contains(lower, "method"), strings.Contains(lower, "steps"):
		return "directions"
	case strings.Contains(lower, "note"):
		return "notes"
	}
	return ""
}

func skipDescriptionLine(line string) bool {
	if timestampLinePattern.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "http") || strings.Contains(lower, "www.") {
		return true
	}
	for _, marker := range socialLineMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// descriptionTime extracts explicit time phrases, combining prep and
// cook when no total is stated.
func descriptionTime(description string) string {
	if m := totalTimePattern.FindStringSubmatch(description); m != nil {
		return m[1] + " min"
	}

	total := 0
	if m := prepTimePattern.FindStringSubmatch(description); m != nil {
		total += atoiSafe(m[1])
	}
	if m := cookTimePattern.FindStringSubmatch(description); m != nil {
		total += atoiSafe(m[1])
	}
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%d min", total)
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// captionSteps fetches the timed caption track and keeps deduplicated
// sentences that begin with a cooking-action verb, capped at 15.
func (s *VideoStrategy) captionSteps(ctx context.Context, id string) []string {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"lang": "en", "v": id}).
		Get("https://video.google.com/timedtext")

	if err != nil || resp.IsError() {
		slog.Debug("Caption fetch failed", "video", id, "error", err)
		return nil
	}

	return ExtractCaptionSteps(resp.String())
}

// ExtractCaptionSteps parses a timedtext XML payload into action-led
// direction steps.
func ExtractCaptionSteps(payload string) []string {
	var steps []string
	seen := make(map[string]bool)

	for _, m := range captionTextPattern.FindAllStringSubmatch(payload, -1) {
		sentence := textutil.DecodeHTML(m[1])
		if sentence == "" || !startsWithCookingVerb(sentence) {
			continue
		}

		key := strings.ToLower(sentence)
		if seen[key] {
			continue
		}
		seen[key] = true

		steps = append(steps, sentence)
		if len(steps) >= maxCaptionSteps {
			break
		}
	}

	return steps
}

func startsWithCookingVerb(sentence string) bool {
	fields := strings.Fields(strings.ToLower(sentence))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,!")
	for _, verb := range cookingVerbs {
		if first == verb {
			return true
		}
	}
	return false
}
