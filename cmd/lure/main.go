package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lurelab/lure/internal/api"
	"github.com/lurelab/lure/internal/classifier"
	"github.com/lurelab/lure/internal/config"
	"github.com/lurelab/lure/internal/engine"
	"github.com/lurelab/lure/internal/events"
	"github.com/lurelab/lure/internal/extractor"
	"github.com/lurelab/lure/internal/groq"
	"github.com/lurelab/lure/internal/responder"
	"github.com/lurelab/lure/internal/session"
	"github.com/lurelab/lure/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("lure starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (optional — without it, finished sessions are not archived)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — finished sessions will not be archived")
	}

	// NATS (optional — without it, no downstream events)
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		var err error
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set — running without event publishing")
	}

	// LLM providers
	if cfg.GroqAPIKey == "" {
		slog.Error("GROQ_API_KEY is required")
		os.Exit(1)
	}
	providers := []responder.Provider{groq.NewClient(cfg.GroqAPIKey)}
	if cfg.GroqRecoveryKey != "" {
		providers = append(providers, groq.NewClient(cfg.GroqRecoveryKey))
	}
	slog.Info("llm providers ready", "count", len(providers), "model", cfg.Model)

	rsp := responder.New(providers, responder.Settings{
		Model:          cfg.Model,
		FallbackModel:  cfg.FallbackModel,
		AttemptTimeout: time.Duration(cfg.AttemptTimeout * float64(time.Second)),
		GlobalBudget:   time.Duration(cfg.GlobalBudget * float64(time.Second)),
	}, slog.Default())

	persona := session.Persona{
		Name:       cfg.PersonaName,
		Age:        cfg.PersonaAge,
		Gender:     cfg.PersonaGender,
		Occupation: cfg.PersonaOccupation,
		Location:   cfg.PersonaLocation,
		Bank:       cfg.PersonaBank,
		Language:   cfg.PersonaLanguage,
	}

	scoring := classifier.ScoringV1
	scoring.Threshold = cfg.ScamThreshold

	repo := session.NewMemoryRepository(cfg.MaxTrackedSessions)

	var archive engine.Archiver
	var stats api.StatsProvider
	if db != nil {
		archive = db
		stats = db
	}
	var notify engine.Notifier
	if publisher != nil {
		notify = publisher
	}

	eng := engine.New(
		classifier.New(scoring),
		extractor.New(cfg.MaxTrackedSessions),
		rsp,
		repo,
		archive,
		notify,
		persona,
		slog.Default(),
	)

	srv := api.NewServer(cfg.Port, eng, repo, stats, cfg.APIKey)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("lure ready", "port", cfg.Port, "persona", persona.Name)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("lure stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
