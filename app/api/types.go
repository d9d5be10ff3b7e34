package api

import (
	"context"

	"github.com/mealstash/recipe-comb/app/database"
	"github.com/mealstash/recipe-comb/app/feedimport"
	"github.com/mealstash/recipe-comb/app/importer"
	"github.com/mealstash/recipe-comb/app/recipe"
	"github.com/mealstash/recipe-comb/app/strategy"
)

type ImporterInterface interface {
	ImportFromURL(ctx context.Context, url string) (*recipe.ImportResult, error)
	ImportFromText(lines []string) *recipe.ImportResult
	ParseIngredientLines(lines []string) []recipe.Ingredient
}

var _ ImporterInterface = (*importer.Importer)(nil)

type BatchImporterInterface interface {
	Run(ctx context.Context, feedURL string, limit int) (*feedimport.BatchResult, error)
}

var _ BatchImporterInterface = (*feedimport.BatchImporter)(nil)

type Handler struct {
	imp         ImporterInterface
	batch       BatchImporterInterface
	attemptRepo database.AttemptRepository
	profiles    *strategy.ProfileCache
}

// ImportRequest is the body for POST /import.
type ImportRequest struct {
	URL string `json:"url" binding:"required"`
}

// ParseRequest is the body for POST /parse. Lines takes precedence;
// Text is split on newlines when Lines is empty.
type ParseRequest struct {
	Lines []string `json:"lines"`
	Text  string   `json:"text"`
}

// FeedImportRequest is the body for POST /import/feed.
type FeedImportRequest struct {
	URL   string `json:"url" binding:"required"`
	Limit int    `json:"limit"`
}
