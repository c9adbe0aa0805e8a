package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherLat         float64
	WeatherLon         float64
	WeatherLang        string
	WeatherCacheTTL    time.Duration

	TransportLatency       time.Duration
	TransportRatePerMinute int
	TransportSeed          int64
	PollInterval           time.Duration
	ArrivalStaleAfter      time.Duration
	DefaultStops           []string

	RedisEnabled     bool
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CacheTTL         time.Duration
	CacheWarmOnStart bool

	HistoryEnabled bool
	HistoryDBPath  string

	GTFSURL            string
	GTFSCacheDir       string
	GTFSUpdateInterval time.Duration

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RateLimitWhitelist []string

	CORSAllowedOrigins []string
}

// Load reads configuration from the environment, after merging any .env
// files found. Variables already set in the environment take precedence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		OpenWeatherAPIKey:  getEnv("OPENWEATHER_API_KEY", ""),
		OpenWeatherBaseURL: getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		WeatherLat:         getFloatEnv("WEATHER_LAT", 22.3193),
		WeatherLon:         getFloatEnv("WEATHER_LON", 114.1694),
		WeatherLang:        getEnv("WEATHER_LANG", "zh_tw"),
		WeatherCacheTTL:    getDurationEnv("WEATHER_CACHE_TTL", 10*time.Minute),

		TransportLatency:       getDurationEnv("TRANSPORT_LATENCY", 500*time.Millisecond),
		TransportRatePerMinute: getIntEnv("TRANSPORT_RATE_PER_MINUTE", 600),
		TransportSeed:          int64(getIntEnv("TRANSPORT_SEED", 0)),
		PollInterval:           getDurationEnv("POLL_INTERVAL", 15*time.Second),
		ArrivalStaleAfter:      getDurationEnv("ARRIVAL_STALE_AFTER", 2*time.Minute),
		DefaultStops:           getCSVEnv("DEFAULT_STOPS"),

		RedisEnabled:     getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),
		CacheTTL:         getDurationEnv("CACHE_TTL", 24*time.Hour),
		CacheWarmOnStart: getBoolEnv("CACHE_WARM_ON_START", true),

		HistoryEnabled: getBoolEnv("HISTORY_ENABLED", true),
		HistoryDBPath:  getEnv("HISTORY_DB_PATH", "hktravel.db"),

		GTFSURL:            getEnv("GTFS_URL", ""),
		GTFSCacheDir:       getEnv("GTFS_CACHE_DIR", ""),
		GTFSUpdateInterval: getDurationEnv("GTFS_UPDATE_INTERVAL", 24*time.Hour),

		RateLimitPerWindow: getIntEnv("RATE_LIMIT_PER_WINDOW", 120),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitWhitelist: getCSVEnv("RATE_LIMIT_WHITELIST"),

		CORSAllowedOrigins: getCSVEnv("CORS_ALLOWED_ORIGINS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GTFSEnabled reports whether bus routes are imported from a GTFS feed
func (c *Config) GTFSEnabled() bool {
	return c.GTFSURL != ""
}

// WeatherEnabled reports whether an OpenWeatherMap key is configured
func (c *Config) WeatherEnabled() bool {
	return c.OpenWeatherAPIKey != ""
}

func (c *Config) validate() error {
	if c.WeatherLat < -90 || c.WeatherLat > 90 {
		return fmt.Errorf("WEATHER_LAT out of range: %v", c.WeatherLat)
	}
	if c.WeatherLon < -180 || c.WeatherLon > 180 {
		return fmt.Errorf("WEATHER_LON out of range: %v", c.WeatherLon)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.TransportLatency < 0 {
		return fmt.Errorf("TRANSPORT_LATENCY must not be negative")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
