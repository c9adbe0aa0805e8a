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

	"github.com/spf13/cobra"

	"hktravel/internal/cache"
	"hktravel/internal/catalog"
	"hktravel/internal/config"
	"hktravel/internal/handler"
	"hktravel/internal/history"
	"hktravel/internal/hub"
	"hktravel/internal/ingestor"
	"hktravel/internal/middleware"
	"hktravel/internal/store"
	"hktravel/internal/weather"
	"hktravel/pkg/openweather"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting hktravel server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"weather_enabled", cfg.WeatherEnabled(),
		"redis_enabled", cfg.RedisEnabled,
		"history_enabled", cfg.HistoryEnabled,
		"gtfs_enabled", cfg.GTFSEnabled(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.NewSampleStore()
	client := newTransportClient(cfg, cat, logger)

	c, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	warmer := cache.NewCacheWarmer(c, cat, cfg.CacheTTL, logger)

	if cfg.GTFSEnabled() {
		importer := ingestor.NewRouteImporter(cfg.GTFSURL, cfg.GTFSCacheDir, cat, cfg.GTFSUpdateInterval, logger)
		importer.SetOnUpdate(func(ctx context.Context) {
			if err := c.DeletePattern(ctx, cache.PatternStopRoutes); err != nil {
				logger.Warn("failed to clear stop routes cache", "error", err)
			}
			if err := warmer.WarmAll(ctx); err != nil {
				logger.Warn("cache warm after route import failed", "error", err)
			}
		})
		go importer.Start(ctx)
	}

	if cfg.CacheWarmOnStart {
		if err := warmer.WarmAll(ctx); err != nil {
			logger.Warn("cache warm failed", "error", err)
		}
		go warmer.ScheduleMidnightRefresh(ctx)
	}

	var repo *history.Repository
	if cfg.HistoryEnabled {
		repo, err = history.Open(ctx, cfg.HistoryDBPath, logger)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer repo.Close()
	}

	weatherSvc := weather.New(newWeatherFetcher(cfg), c, weather.Options{
		Lat: cfg.WeatherLat,
		Lon: cfg.WeatherLon,
		TTL: cfg.WeatherCacheTTL,
	}, logger)

	arrivals := store.New(cfg.ArrivalStaleAfter)
	wsHub := hub.NewHub(logger)
	ing := ingestor.New(client, arrivals, wsHub, wsHub, ingestor.Options{
		PollInterval: cfg.PollInterval,
		DefaultStops: cfg.DefaultStops,
	}, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)

	router := &handler.Router{
		Catalog:        handler.NewCatalogHandler(cat, c, cfg.CacheTTL, logger),
		Transport:      handler.NewTransportHandler(client, arrivals, wsHub, logger),
		Plan:           handler.NewPlanHandler(client, cat, repo, logger),
		Weather:        handler.NewWeatherHandler(weatherSvc, logger),
		WS:             handler.NewWSHandler(wsHub, arrivals, cat, cfg.CORSAllowedOrigins, logger),
		Health:         handler.NewHealthHandler(ing, arrivals),
		Stats:          handler.NewStatsHandler(cat, arrivals, wsHub, limiter),
		Limiter:        limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	}
	if repo != nil {
		router.History = handler.NewHistoryHandler(repo, logger)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go wsHub.Run(ctx)

	go ing.Run(ctx)

	go cleanupLimiter(ctx, limiter, cfg.RateLimitWindow, logger)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openCache connects to Redis when enabled and falls back to process memory
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.Cache, error) {
	if !cfg.RedisEnabled {
		return cache.New(cache.NewMemoryBackend(), cache.DefaultPrefix, logger), nil
	}

	backend, err := cache.NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return cache.New(backend, cache.DefaultPrefix, logger), nil
}

func newWeatherFetcher(cfg *config.Config) weather.Fetcher {
	if !cfg.WeatherEnabled() {
		return nil
	}
	return openweather.New(cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, cfg.WeatherLang)
}

func cleanupLimiter(ctx context.Context, limiter *middleware.RateLimiter, window time.Duration, logger *slog.Logger) {
	if window <= 0 {
		return
	}
	ticker := time.NewTicker(2 * window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(); n > 0 {
				logger.Debug("rate limiter cleanup", "removed", n)
			}
		}
	}
}
