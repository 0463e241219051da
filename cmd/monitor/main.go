package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mavericks/crisis-monitor/internal/api"
	"github.com/mavericks/crisis-monitor/internal/config"
	"github.com/mavericks/crisis-monitor/internal/monitor"
	"github.com/mavericks/crisis-monitor/internal/notifications"
	"github.com/mavericks/crisis-monitor/internal/scheduler"
	"github.com/mavericks/crisis-monitor/internal/sentiment"
	"github.com/mavericks/crisis-monitor/internal/sources"
	"github.com/mavericks/crisis-monitor/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting crisis monitor")

	alertStore, err := newStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize alert store: %v", err)
	}
	defer alertStore.Close()

	// Optional remote analyzer; without it the adapter scores with the
	// keyword heuristic.
	var analyzer sentiment.Analyzer
	if cfg.SentimentAPIURL != "" {
		analyzer = sentiment.NewRemoteAnalyzer(cfg.SentimentAPIURL)
		logrus.Infof("Using remote sentiment analyzer at %s", cfg.SentimentAPIURL)
	} else {
		logrus.Warn("No sentiment analyzer configured, falling back to keyword heuristic")
	}
	scorer := sentiment.NewAdapter(analyzer)

	srcs := []sources.Source{
		sources.NewTwitterSource(cfg.TwitterBearerToken),
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent, cfg.RedditSubreddits),
		sources.NewNewsFeedSource(cfg.NewsFeedEnabled),
	}
	for _, src := range srcs {
		if !src.IsEnabled() {
			logrus.Warnf("Source %s is disabled (missing credentials or switched off)", src.Name())
		}
	}

	var notifier monitor.Notifier
	if svc := notifications.NewService(cfg); svc.Enabled() {
		notifier = svc
	}

	monitorService := monitor.NewService(alertStore, srcs, scorer, notifier, cfg.DefaultQuery, cfg.MaxResultsPerSource)

	schedulerService := scheduler.NewService(alertStore, cfg.RetentionHours)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start maintenance scheduler: %v", err)
	}
	defer schedulerService.Stop()

	apiServer := api.NewServer(cfg.APIKey, alertStore, monitorService)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	monitorService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func newStore(cfg *config.Config) (store.AlertStore, error) {
	if cfg.DBPath == "" {
		logrus.Info("Using in-memory alert store")
		return store.NewMemoryStore(), nil
	}

	logrus.Infof("Using SQLite alert store at %s", cfg.DBPath)
	return store.NewSQLiteStore(cfg.DBPath)
}
