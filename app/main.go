package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mealstash/recipe-comb/app/api"
	"github.com/mealstash/recipe-comb/app/cfg"
	"github.com/mealstash/recipe-comb/app/database"
	"github.com/mealstash/recipe-comb/app/feedimport"
	"github.com/mealstash/recipe-comb/app/fetch"
	"github.com/mealstash/recipe-comb/app/importer"
	"github.com/mealstash/recipe-comb/app/strategy"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Recipe Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	profiles := strategy.NewProfileCache(appCfg.ProfilesDir)
	if err := profiles.Run(); err != nil {
		slog.Error("Failed to load site profiles", "dir", appCfg.ProfilesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Site profiles loaded", "count", len(profiles.All()))

	fetcher := fetch.NewFetcher(appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)

	// Registration order doubles as the tie-breaker when strategies
	// score the same confidence.
	fallback := strategy.NewHTMLFallbackStrategy(profiles)
	selector := strategy.NewSelector(
		strategy.NewVideoStrategy(),
		strategy.NewJSONLDStrategy(),
		strategy.NewAppStateStrategy(),
		strategy.NewMicrodataStrategy(fallback),
		fallback,
	)

	attemptRepo := database.NewImportRepository(db)
	imp := importer.NewImporter(fetcher, selector, strategy.NewEnricher(profiles), attemptRepo)
	batch := feedimport.NewBatchImporter(fetcher, imp)

	apiHandler := api.NewHandler(imp, batch, attemptRepo, profiles)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Recipe Comb server shutdown complete")
}
