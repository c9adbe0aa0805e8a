package ingestor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"hktravel/internal/domain"
	"hktravel/internal/store"
	"hktravel/pkg/hktransport"
)

// Source provides live transport data
type Source interface {
	Arrivals(ctx context.Context, stopID string) ([]domain.RealTimeArrival, error)
	ServiceStatus(ctx context.Context) ([]domain.ServiceStatus, error)
}

type Broadcaster interface {
	Broadcast(deltas []domain.ArrivalDelta)
	BroadcastStatus(statuses []domain.ServiceStatus)
}

// StopProvider reports which stops currently have watchers
type StopProvider interface {
	SubscribedStops() []string
}

type Options struct {
	PollInterval time.Duration
	DefaultStops []string
	// MaxConcurrent bounds parallel arrival fetches per poll
	MaxConcurrent int
}

type Ingestor struct {
	source      Source
	store       *store.ArrivalStore
	broadcaster Broadcaster
	stops       StopProvider
	opts        Options
	logger      *slog.Logger

	ready   bool
	readyMu sync.RWMutex
}

func New(source Source, st *store.ArrivalStore, broadcaster Broadcaster, stops StopProvider, opts Options, logger *slog.Logger) *Ingestor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &Ingestor{
		source:      source,
		store:       st,
		broadcaster: broadcaster,
		stops:       stops,
		opts:        opts,
		logger:      logger.With("component", "ingestor"),
	}
}

func (i *Ingestor) Run(ctx context.Context) {
	ticker := time.NewTicker(i.opts.PollInterval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(i.opts.PollInterval * 3)
	defer pruneTicker.Stop()

	i.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Poll(ctx)
		case <-pruneTicker.C:
			i.prune()
		}
	}
}

// Poll fetches service status and arrivals for every watched stop once
func (i *Ingestor) Poll(ctx context.Context) {
	start := time.Now()

	statusOK := i.pollStatus(ctx)

	stopIDs := i.watchedStops()
	deltas, fetched, failed := i.pollArrivals(ctx, stopIDs)

	if i.broadcaster != nil {
		i.broadcaster.Broadcast(deltas)
	}

	if !i.IsReady() && (statusOK || fetched > 0) {
		i.setReady(true)
		i.logger.Info("ingestor ready", "stops", len(stopIDs))
	}

	i.logger.Debug("poll completed",
		"stops", len(stopIDs),
		"fetched", fetched,
		"failed", failed,
		"deltas", len(deltas),
		"total", i.store.Count(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (i *Ingestor) pollStatus(ctx context.Context) bool {
	statuses, err := i.source.ServiceStatus(ctx)
	if err != nil {
		i.logFetchError("failed to fetch service status", "", err)
		return false
	}
	if i.store.SetStatuses(statuses) && i.broadcaster != nil {
		i.broadcaster.BroadcastStatus(statuses)
	}
	return true
}

func (i *Ingestor) pollArrivals(ctx context.Context, stopIDs []string) ([]domain.ArrivalDelta, int, int) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		deltas  []domain.ArrivalDelta
		fetched int
		failed  int
	)
	sem := make(chan struct{}, i.opts.MaxConcurrent)

	for _, id := range stopIDs {
		wg.Add(1)
		go func(stopID string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			arrivals, err := i.source.Arrivals(ctx, stopID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				i.logFetchError("failed to fetch arrivals", stopID, err)
				return
			}
			fetched++
			if d, changed := i.store.Update(stopID, arrivals); changed {
				deltas = append(deltas, d)
			}
		}(id)
	}

	wg.Wait()

	sort.Slice(deltas, func(a, b int) bool { return deltas[a].StopID < deltas[b].StopID })
	return deltas, fetched, failed
}

func (i *Ingestor) logFetchError(msg, stopID string, err error) {
	attrs := []any{"error", err}
	if stopID != "" {
		attrs = append(attrs, "stop_id", stopID)
	}
	if errors.Is(err, hktransport.ErrRateLimited) || errors.Is(err, context.Canceled) {
		i.logger.Warn(msg, attrs...)
		return
	}
	i.logger.Error(msg, attrs...)
}

func (i *Ingestor) watchedStops() []string {
	seen := make(map[string]struct{})
	var ids []string

	add := func(id string) {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range i.opts.DefaultStops {
		add(id)
	}
	if i.stops != nil {
		for _, id := range i.stops.SubscribedStops() {
			add(id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (i *Ingestor) prune() {
	deltas := i.store.PruneStale()
	if len(deltas) > 0 {
		if i.broadcaster != nil {
			i.broadcaster.Broadcast(deltas)
		}
		i.logger.Info("pruned stale boards", "count", len(deltas))
	}
}

func (i *Ingestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *Ingestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}
