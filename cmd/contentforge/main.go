// Package main is the entry point for the contentforge server. It loads
// configuration, connects the optional backing services, restores the
// persisted working set and serves the operator API with graceful
// shutdown support.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"contentforge/internal/ai"
	"contentforge/internal/cache"
	"contentforge/internal/config"
	"contentforge/internal/database"
	"contentforge/internal/fetch"
	"contentforge/internal/handlers"
	"contentforge/internal/middleware"
	"contentforge/internal/pipeline"
	"contentforge/internal/quality"
	"contentforge/internal/render"
	"contentforge/internal/router"
	"contentforge/internal/serp"
	"contentforge/internal/sitemap"
	"contentforge/internal/storage"
	"contentforge/internal/store"
	"contentforge/internal/studio"
	"contentforge/internal/wordpress"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	ctx := context.Background()
	checks := map[string]handlers.Check{}

	// PostgreSQL is optional; without it the working set lives in memory.
	var db *sql.DB
	if cfg.HasDatabase() {
		db, err = database.Connect(ctx, database.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode))
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		checks["postgres"] = db.PingContext
	} else {
		slog.Warn("postgres not configured, working set will not survive a restart")
	}

	// Derived-data cache: Valkey when configured, process memory otherwise.
	var derived interface {
		cache.Store
		handlers.Purger
	}
	if cfg.HasValkey() {
		var valkeyClient *redis.Client
		valkeyClient, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		derived = cache.NewValkeyStore(valkeyClient, cfg.CacheTTL)
		checks["valkey"] = func(ctx context.Context) error { return valkeyClient.Ping(ctx).Err() }
	} else {
		derived = cache.NewMemoryStore(cfg.CacheTTL)
	}

	// Outbound fetch layer with relay fallback.
	relays := fetch.DefaultRelays
	if len(cfg.RelayEndpoints) > 0 {
		relays = make([]fetch.Relay, len(cfg.RelayEndpoints))
		for i, r := range cfg.RelayEndpoints {
			relays[i] = fetch.Relay(r)
		}
	}
	fetcher := fetch.New(fetch.WithRelays(relays))

	// AI providers.
	registry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, ModelImage: cfg.OpenAIModelImage, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, ModelImage: cfg.GeminiModelImage, BaseURL: cfg.GeminiBaseURL, FallbackModels: cfg.GeminiFallbackModels},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	}, cfg.ImageProviders)
	if len(registry.Available()) == 0 {
		slog.Error("no ai provider configured, set at least one provider API key")
		os.Exit(1)
	}
	slog.Info("ai providers initialized",
		"active", registry.ActiveName(),
		"available", registry.Available(),
		"images", registry.SupportsImageGeneration(),
	)
	gateway := ai.NewGateway()

	search := serp.New(cfg.SerperKey, cfg.SerperBaseURL, fetcher)
	if !search.Configured() {
		slog.Warn("serper not configured, research and videos disabled")
	}

	deps := pipeline.Deps{
		Generator: registry,
		Gateway:   gateway,
		Search:    search,
		Images:    registry,
		Moderator: registry,
		Cache:     derived,

		VideoQueries: serp.VideoQueries,
	}

	// Generated images go to S3 when configured; otherwise they stay inline
	// until publish uploads them to WordPress.
	archive, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3BucketPublic, cfg.S3PublicURL)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if archive != nil {
		deps.Archive = archive
		slog.Info("s3 image archive enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketPublic)
	}

	gen := pipeline.New(deps, pipeline.Options{
		Limits:           quality.Limits{MinStandard: cfg.MinWordsStandard, MinPillar: cfg.MinWordsPillar, Max: cfg.MaxWords},
		MinInternalLinks: cfg.MinInternalLinks,
		Videos:           pipeline.DefaultOptions().Videos,
		References:       pipeline.DefaultOptions().References,
	})

	wp := wordpress.New(cfg.WPURL, cfg.WPUsername, cfg.WPAppPassword, fetcher)
	if !wp.Configured() {
		slog.Warn("wordpress not configured, publishing disabled")
	}

	studioDeps := studio.Deps{
		Generator: gen,
		Publisher: wp,
		Analyzer:  sitemap.NewAnalyzer(registry, gateway),
		Crawler:   sitemap.NewCrawler(fetcher, cfg.Concurrency),
	}
	var (
		itemStore *store.ItemStore
		pageStore *store.PageStore
		history   handlers.PublishHistory
	)
	if db != nil {
		itemStore = store.NewItemStore(db)
		pageStore = store.NewPageStore(db)
		publishLog := store.NewPublishLogStore(db)
		studioDeps.Items, studioDeps.Pages, studioDeps.PublishLog = itemStore, pageStore, publishLog
		history = publishLog
	}

	st := studio.New(studioDeps, studio.Options{Concurrency: cfg.Concurrency})
	if db != nil {
		if err := restore(ctx, st, itemStore, pageStore); err != nil {
			slog.Error("failed to restore working set", "error", err)
			os.Exit(1)
		}
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize preview renderer", "error", err)
		os.Exit(1)
	}

	op := handlers.NewOperator(handlers.OperatorDeps{
		Studio:    st,
		Providers: registry,
		Site:      wp,
		Cache:     derived,
		History:   history,
		Preview:   renderer,
	})

	// Ten background starts per client per minute.
	limiter := middleware.NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	r := router.New(op, handlers.Health(checks), router.Auth{
		Username:     cfg.OperatorUser,
		PasswordHash: cfg.OperatorPasswordHash,
	}, limiter)
	if cfg.OperatorPasswordHash == "" {
		slog.Warn("operator password not set, the API is unauthenticated")
	}

	// Generation runs in the background, so requests stay short; publishing
	// uploads images and can take longer.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// In-flight items are abandoned; they come back idle on the next start.
	st.Close()
	slog.Info("server stopped gracefully")
}

// restore loads the persisted items and pages into the studio.
func restore(ctx context.Context, st *studio.Studio, items *store.ItemStore, pages *store.PageStore) error {
	savedItems, err := items.List(ctx)
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	savedPages, err := pages.List(ctx)
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}
	st.Restore(savedItems, savedPages)
	return nil
}
