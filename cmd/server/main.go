// Time Agent - historical escape-archive server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/time-agent/internal/api"
	"github.com/ashureev/time-agent/internal/archive"
	"github.com/ashureev/time-agent/internal/catalog"
	"github.com/ashureev/time-agent/internal/config"
	"github.com/ashureev/time-agent/internal/game"
	"github.com/ashureev/time-agent/internal/generator"
	"github.com/ashureev/time-agent/internal/identity"
	"github.com/ashureev/time-agent/internal/live"
	"github.com/ashureev/time-agent/internal/middleware"
	"github.com/ashureev/time-agent/internal/observability"
	"github.com/ashureev/time-agent/internal/room"
	"github.com/ashureev/time-agent/internal/session"
	"github.com/ashureev/time-agent/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize storage.
	var blobs store.BlobStore
	if cfg.InMemory() {
		blobs = store.NewMemory()
		slog.Info("Using in-memory archive store")
	} else {
		db, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		blobs = db
	}
	defer func() {
		if closeErr := blobs.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	if err := blobs.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Initialize archives.
	static, err := catalog.Load()
	if err != nil {
		slog.Error("Failed to load built-in catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded", "topics", len(static.Keys()))

	archiveSvc := archive.NewService(store.NewArchiveStore(blobs), archive.Limits{
		MaxPuzzlesPerTopic: cfg.Archive.MaxPuzzlesPerTopic,
		MaxTopics:          cfg.Archive.MaxTopics,
	})

	// Initialize services.
	sessions := session.NewManager(session.Options{
		ForcedRevealAttempts: cfg.Game.ForcedRevealAttempts,
		Countdown:            cfg.Game.Countdown,
	})
	builder := room.NewBuilder(static, archiveSvc, room.WithSampleSize(cfg.Game.SessionSize))

	var provider generator.Provider
	if cfg.AIEnabled() {
		p, err := generator.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		if err != nil {
			slog.Warn("Failed to initialize generation provider, AI mode disabled", "error", err)
		} else {
			provider = p
		}
	}
	if provider == nil {
		slog.Info("AI mode disabled (OPENAI_API_KEY not set)")
	}

	gameSvc := game.NewService(game.Config{
		SessionSize:       cfg.Game.SessionSize,
		GenerationTimeout: cfg.Game.GenerationTimeout,
	}, builder, sessions, provider, archiveSvc, static)

	// Initialize handlers.
	baseHandler := api.NewHandler(gameSvc, cfg.Game.ForcedRevealAttempts)
	sessionHandler := api.NewSessionHandler(baseHandler)
	healthHandler := api.NewHealthHandler(blobs)
	wsHandler := live.NewHandler(gameSvc, cfg.AllowedOrigins, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.MaxBody(cfg.MaxRequestBodyBytes))

	// Public routes.
	r.Handle("/metrics", observability.Handler())
	healthHandler.RegisterHealth(r)

	// Player routes carry an anonymous identity.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(cfg.IsDevelopment()))
		sessionHandler.RegisterRoutes(r)
		r.Get("/ws/sessions/{id}", wsHandler.ServeHTTP)
	})

	// Generation calls can take up to GenerationTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout for WebSocket streams
		IdleTimeout:  120 * time.Second,
	}

	// Start TTL worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartTTLWorker(ctx, sessions, cfg.Game.SessionTTL, func(string) {
		observability.SetLiveSessions(sessions.Len())
	})

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
