package cache

import (
	"context"
	"log/slog"
	"time"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
)

// CacheWarmer pre-populates the cache with catalog data so read endpoints can
// serve it without touching the store.
type CacheWarmer struct {
	cache  *Cache
	store  *catalog.Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewCacheWarmer(cache *Cache, store *catalog.Store, ttl time.Duration, logger *slog.Logger) *CacheWarmer {
	return &CacheWarmer{
		cache:  cache,
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "cache_warmer"),
		now:    time.Now,
	}
}

func (w *CacheWarmer) WarmAll(ctx context.Context) error {
	start := time.Now()
	w.logger.Info("starting cache warming")

	if err := w.warmCatalog(ctx); err != nil {
		w.logger.Error("failed to warm catalog", "error", err)
	}

	if err := w.warmLineStations(ctx); err != nil {
		w.logger.Error("failed to warm line stations", "error", err)
	}

	if err := w.warmStopRoutes(ctx); err != nil {
		w.logger.Error("failed to warm stop routes", "error", err)
	}

	w.logger.Info("cache warming completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// CatalogSnapshot is the full catalog as cached under KeyCatalog
type CatalogSnapshot struct {
	Locations   []*domain.Location   `json:"locations"`
	Stations    []*domain.MTRStation `json:"stations"`
	BusRoutes   []*domain.BusRoute   `json:"busRoutes"`
	Version     string               `json:"version"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

func (w *CacheWarmer) buildSnapshot() *CatalogSnapshot {
	stats := w.store.Stats()
	return &CatalogSnapshot{
		Locations:   w.store.SearchLocations("", 0),
		Stations:    w.store.AllStations(),
		BusRoutes:   w.store.AllBusRoutes(),
		Version:     stats.LastUpdate.Format("2006-01-02"),
		GeneratedAt: w.now(),
	}
}

func (w *CacheWarmer) warmCatalog(ctx context.Context) error {
	start := time.Now()

	snap := w.buildSnapshot()
	if err := w.cache.SetJSONCompressed(ctx, KeyCatalog, snap, w.ttl); err != nil {
		return err
	}
	if err := w.cache.SetJSON(ctx, KeyStations, snap.Stations, w.ttl); err != nil {
		return err
	}
	if err := w.cache.SetJSON(ctx, KeyBusRoutes, snap.BusRoutes, w.ttl); err != nil {
		return err
	}
	if err := w.cache.SetJSON(ctx, KeyLocations, snap.Locations, w.ttl); err != nil {
		return err
	}
	if err := w.cache.Set(ctx, KeyCatalogVersion, []byte(snap.Version), w.ttl); err != nil {
		return err
	}

	w.logger.Info("warmed catalog",
		"locations", len(snap.Locations),
		"stations", len(snap.Stations),
		"bus_routes", len(snap.BusRoutes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (w *CacheWarmer) warmLineStations(ctx context.Context) error {
	start := time.Now()
	warmed := 0

	for line := range catalog.LineNames {
		stations := w.store.StationsByLine(line)
		if len(stations) == 0 {
			continue
		}
		if err := w.cache.SetJSON(ctx, KeyLineStations(line), stations, w.ttl); err != nil {
			w.logger.Debug("failed to cache line stations", "line", line, "error", err)
			continue
		}
		warmed++
	}

	w.logger.Info("warmed line stations",
		"lines_warmed", warmed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (w *CacheWarmer) warmStopRoutes(ctx context.Context) error {
	start := time.Now()
	seen := make(map[string]bool)
	warmed := 0

	for _, r := range w.store.AllBusRoutes() {
		for _, stop := range r.Stops {
			if seen[stop.ID] {
				continue
			}
			seen[stop.ID] = true

			routes := w.store.BusRoutesForStop(stop.ID)
			if err := w.cache.SetJSON(ctx, KeyStopRoutes(stop.ID), routes, w.ttl); err != nil {
				w.logger.Debug("failed to cache stop routes", "stop_id", stop.ID, "error", err)
				continue
			}
			warmed++
		}
	}

	w.logger.Info("warmed stop routes",
		"stops_warmed", warmed,
		"total_stops", len(seen),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ScheduleMidnightRefresh re-warms the cache shortly after every midnight until ctx ends
func (w *CacheWarmer) ScheduleMidnightRefresh(ctx context.Context) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 5, 0, 0, now.Location())
		wait := next.Sub(now)

		w.logger.Info("scheduled next cache refresh", "at", next, "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			w.logger.Info("midnight cache refresh starting")
			if err := w.WarmAll(ctx); err != nil {
				w.logger.Error("midnight cache refresh failed", "error", err)
			}
		}
	}
}
