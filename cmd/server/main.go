// Package main is the entrypoint for the auctionreel API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-kim/auctionreel/internal/api"
	"github.com/greg-kim/auctionreel/internal/api/handler"
	mw "github.com/greg-kim/auctionreel/internal/api/middleware"
	"github.com/greg-kim/auctionreel/internal/cache"
	"github.com/greg-kim/auctionreel/internal/config"
	"github.com/greg-kim/auctionreel/internal/jobstore"
	"github.com/greg-kim/auctionreel/internal/listing"
	"github.com/greg-kim/auctionreel/internal/pipeline"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"listing_source", cfg.Listing.Source,
		"script_mock_only", cfg.ScriptMockOnly(),
		"speech_mock_only", cfg.SpeechMockOnly(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Postgres when the listing source needs it
	var pool *pgxpool.Pool
	if cfg.Listing.Source == "postgres" {
		pool, err = listing.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := listing.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")
	}

	// 3. Cache: Redis when configured, otherwise noop
	var jobCache cache.Cache = cache.NoopCache{}
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		jobCache = redisCache
		slog.Info("redis connected")
	} else {
		slog.Info("redis not configured, status mirror and rate limiting disabled")
	}

	// 4. Listing catalog
	catalog, err := listing.NewCatalog(cfg.Listing.Source, cfg.Listing.DataDir, pool)
	if err != nil {
		return fmt.Errorf("build listing catalog: %w", err)
	}

	// 5. Pipeline service and worker pool
	svc := pipeline.NewService(cfg, jobstore.NewMemoryStore(), jobCache, catalog, logger)
	svc.Start(ctx)

	// 6. Build router with dependencies
	uploadDir := filepath.Join(cfg.Paths.TempDir, "uploads")
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(jobCache, 60),

		HealthHandler:         handler.NewHealthHandler(jobCache, cfg.Video.FFmpegPath),
		CreateJobHandler:      handler.NewCreateJobHandler(svc),
		CreateDocumentHandler: handler.NewCreateDocumentJobHandler(svc, uploadDir, cfg.Pipeline.MaxUploadBytes),
		GetJobHandler:         handler.NewGetJobHandler(svc),
		ListJobsHandler:       handler.NewListJobsHandler(svc),
		DeleteJobHandler:      handler.NewDeleteJobHandler(svc),
		VideoHandler:          handler.NewVideoHandler(cfg.Paths.OutputDir),
		ListProperties:        handler.NewListPropertiesHandler(catalog.Default()),
		UploadProperty:        uploadPropertyHandler(catalog),
		TemplateHandler:       handler.NewTemplateHandler(),
	}
	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Workers observe the cancelled signal context; give in-flight jobs a
	// moment to notice before exiting.
	svc.Wait()
	slog.Info("server stopped gracefully")
	return nil
}

// uploadPropertyHandler wires listing upload against the file source when
// it is configured; other sources do not accept uploads.
func uploadPropertyHandler(catalog *listing.Catalog) http.HandlerFunc {
	src, err := catalog.Select("file")
	if err != nil {
		return handler.NewUploadPropertyHandler(nil)
	}
	fileSrc, ok := src.(*listing.FileSource)
	if !ok {
		return handler.NewUploadPropertyHandler(nil)
	}
	return handler.NewUploadPropertyHandler(fileSrc)
}
