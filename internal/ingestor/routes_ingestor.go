package ingestor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hktravel/internal/catalog"
	"hktravel/pkg/gtfs"
)

// RouteImporter periodically replaces the catalog's bus routes with those
// from a static GTFS feed.
type RouteImporter struct {
	downloader     *gtfs.Downloader
	parser         *gtfs.Parser
	catalog        *catalog.Store
	cacheDir       string
	updateInterval time.Duration
	logger         *slog.Logger
	onUpdate       func(context.Context)

	ready   bool
	readyMu sync.RWMutex
}

func NewRouteImporter(url, cacheDir string, cat *catalog.Store, updateInterval time.Duration, logger *slog.Logger) *RouteImporter {
	if cacheDir == "" {
		cacheDir = gtfs.DefaultCacheDir()
	}
	if updateInterval <= 0 {
		updateInterval = 24 * time.Hour
	}
	return &RouteImporter{
		downloader:     gtfs.NewDownloader(url, logger),
		parser:         gtfs.NewParser(logger),
		catalog:        cat,
		cacheDir:       cacheDir,
		updateInterval: updateInterval,
		logger:         logger.With("component", "route_importer"),
	}
}

func (i *RouteImporter) Start(ctx context.Context) {
	i.Update(ctx)

	ticker := time.NewTicker(i.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Update(ctx)
		}
	}
}

// Update downloads the feed and loads its routes, reporting whether the
// catalog changed. A failed or unchanged update keeps the current routes.
func (i *RouteImporter) Update(ctx context.Context) bool {
	start := time.Now()

	reader, data, err := i.downloader.Download(ctx)
	if errors.Is(err, gtfs.ErrNotModified) {
		i.logger.Debug("bus routes unchanged")
		return false
	}
	if err != nil {
		i.logger.Error("failed to download GTFS", "error", err)
		return false
	}

	fingerprint := gtfs.DataFingerprint(data)
	result, cachePath, cacheErr := gtfs.LoadParsedResult(i.cacheDir, fingerprint)
	if cacheErr == nil {
		i.logger.Info("loaded parsed GTFS cache", "path", cachePath)
	} else {
		i.logger.Debug("parsed GTFS cache miss", "path", cachePath, "error", cacheErr)
		result, err = i.parser.Parse(reader)
		if err != nil {
			i.logger.Error("failed to parse GTFS", "error", err)
			return false
		}
		if savedPath, saveErr := gtfs.SaveParsedResult(i.cacheDir, fingerprint, result); saveErr != nil {
			i.logger.Warn("failed to persist parsed GTFS cache", "error", saveErr)
		} else {
			i.logger.Debug("persisted parsed GTFS cache", "path", savedPath)
		}
	}

	if len(result.Routes) == 0 {
		i.logger.Warn("GTFS feed has no usable bus routes, keeping current routes")
		return false
	}

	i.catalog.ReplaceBusRoutes(result.Routes)
	i.setReady(true)

	if i.onUpdate != nil {
		i.onUpdate(ctx)
	}

	i.logger.Info("bus routes imported",
		"routes", len(result.Routes),
		"stops", result.Stops,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return true
}

func (i *RouteImporter) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *RouteImporter) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}

// SetOnUpdate registers a hook run after each successful import
func (i *RouteImporter) SetOnUpdate(fn func(context.Context)) {
	i.onUpdate = fn
}
