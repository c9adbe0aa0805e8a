package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hktravel/internal/cache"
	"hktravel/internal/domain"
)

const DefaultTTL = 10 * time.Minute

var ErrNotConfigured = errors.New("weather: no api key configured")

// Fetcher retrieves current conditions from an upstream provider
type Fetcher interface {
	Current(ctx context.Context, lat, lon float64) (*domain.WeatherData, error)
}

type Options struct {
	Lat float64
	Lon float64
	TTL time.Duration
}

// Service serves current weather for a fixed point, caching upstream replies
// and falling back to the last good reading when the upstream fails.
type Service struct {
	fetcher Fetcher
	cache   *cache.Cache
	lat     float64
	lon     float64
	ttl     time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	lastGood *domain.WeatherData
}

// New returns a Service. fetcher may be nil when no API key is configured and
// cache may be nil to disable caching.
func New(fetcher Fetcher, c *cache.Cache, opts Options, logger *slog.Logger) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		fetcher: fetcher,
		cache:   c,
		lat:     opts.Lat,
		lon:     opts.Lon,
		ttl:     ttl,
		logger:  logger.With("component", "weather"),
	}
}

func (s *Service) Configured() bool {
	return s.fetcher != nil
}

func (s *Service) Current(ctx context.Context) (*domain.WeatherData, error) {
	if s.fetcher == nil {
		return nil, ErrNotConfigured
	}

	key := cache.KeyWeatherCurrent(s.lat, s.lon)
	if s.cache != nil {
		var cached domain.WeatherData
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("weather cache read failed", "error", err)
		} else if found {
			return &cached, nil
		}
	}

	start := time.Now()
	w, err := s.fetcher.Current(ctx, s.lat, s.lon)
	if err != nil {
		if stale := s.staleCopy(); stale != nil {
			s.logger.Warn("weather fetch failed, serving stale reading",
				"error", err,
				"reading_at", stale.Timestamp,
			)
			return stale, nil
		}
		return nil, fmt.Errorf("fetching weather: %w", err)
	}

	s.logger.Debug("fetched weather",
		"location", w.Location,
		"temperature", w.Temperature,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.mu.Lock()
	c := *w
	s.lastGood = &c
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, w, s.ttl); err != nil {
			s.logger.Warn("weather cache write failed", "error", err)
		}
	}

	return w, nil
}

func (s *Service) staleCopy() *domain.WeatherData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastGood == nil {
		return nil
	}
	c := *s.lastGood
	c.Stale = true
	return &c
}
