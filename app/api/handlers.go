package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealstash/recipe-comb/app/cfg"
	"github.com/mealstash/recipe-comb/app/database"
	"github.com/mealstash/recipe-comb/app/importer"
	"github.com/mealstash/recipe-comb/app/strategy"
)

func NewHandler(imp ImporterInterface, batch BatchImporterInterface,
	attemptRepo database.AttemptRepository, profiles *strategy.ProfileCache) *Handler {
	return &Handler{
		imp:         imp,
		batch:       batch,
		attemptRepo: attemptRepo,
		profiles:    profiles,
	}
}

// ImportRecipe runs the full pipeline for one URL. Pipeline failures map
// to status codes by kind: upstream fetch problems are 502, pages the
// pipeline cannot handle are 422.
func (h *Handler) ImportRecipe(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'url' field"})
		return
	}

	result, err := h.imp.ImportFromURL(c.Request.Context(), req.URL)
	if err != nil {
		h.importError(c, req.URL, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ParseIngredients runs the ingredient parser over pasted free text.
func (h *Handler) ParseIngredients(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	lines := req.Lines
	if len(lines) == 0 && req.Text != "" {
		lines = strings.Split(req.Text, "\n")
	}
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide 'lines' or 'text'"})
		return
	}

	c.JSON(http.StatusOK, h.imp.ImportFromText(lines))
}

// ImportFeed imports recipes linked from an RSS/Atom feed.
func (h *Handler) ImportFeed(c *gin.Context) {
	var req FeedImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'url' field"})
		return
	}

	result, err := h.batch.Run(c.Request.Context(), req.URL, req.Limit)
	if err != nil {
		slog.Error("Feed import failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch or parse feed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if count, err := h.attemptRepo.GetAttemptCount(); err == nil {
		health["import_attempts"] = count
	}

	health["loaded_profiles"] = len(h.profiles.All())

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	total, err := h.attemptRepo.GetAttemptCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_attempt_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["total_attempts"] = total

	if outcomes, err := h.attemptRepo.GetOutcomeCounts(); err == nil {
		stats["outcomes"] = outcomes
	}

	if strategies, err := h.attemptRepo.GetStrategyStats(); err == nil {
		list := make([]map[string]interface{}, 0, len(strategies))
		for _, s := range strategies {
			list = append(list, map[string]interface{}{
				"strategy":       s.Strategy,
				"attempts":       s.Attempts,
				"successes":      s.Successes,
				"avg_confidence": s.AvgConfidence,
			})
		}
		stats["strategies"] = list
	}

	if recent, err := h.attemptRepo.GetRecentAttempts(10); err == nil {
		list := make([]map[string]interface{}, 0, len(recent))
		for _, a := range recent {
			list = append(list, map[string]interface{}{
				"source_url":  a.SourceURL,
				"strategy":    a.Strategy,
				"confidence":  a.Confidence,
				"duration_ms": a.DurationMs,
				"outcome":     a.Outcome,
				"created_at":  a.CreatedAt.Format(time.RFC3339),
			})
		}
		stats["recent"] = list
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) importError(c *gin.Context, url string, err error) {
	switch {
	case importer.IsFetchError(err):
		slog.Error("Fetch failed", "url", url, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch source", "details": err.Error()})
	case err == importer.ErrNoStrategyMatched:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No extraction strategy matched the source"})
	case err == importer.ErrExtractionFailed:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not extract a recipe from the source"})
	default:
		slog.Error("Import failed", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
	}
}
