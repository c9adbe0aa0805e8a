package handler

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"hktravel/internal/catalog"
	"hktravel/internal/middleware"
	"hktravel/internal/store"
)

const Version = "1.0.0"

// Stats tracks server-wide metrics
type Stats struct {
	startTime        time.Time
	requestCount     atomic.Int64
	wsConnections    atomic.Int64
	wsMessagesIn     atomic.Int64
	wsMessagesOut    atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	rateLimitBlocked atomic.Int64
}

// Global stats instance
var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()         { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections()    { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections()    { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()     { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut()    { s.wsMessagesOut.Add(1) }
func (s *Stats) IncCacheHits()        { s.cacheHits.Add(1) }
func (s *Stats) IncCacheMisses()      { s.cacheMisses.Add(1) }
func (s *Stats) IncRateLimitBlocked() { s.rateLimitBlocked.Add(1) }

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

type StatsHandler struct {
	catalog  *catalog.Store
	arrivals *store.ArrivalStore
	clients  ClientCounter
	limiter  *middleware.RateLimiter
}

func NewStatsHandler(c *catalog.Store, arrivals *store.ArrivalStore, clients ClientCounter, limiter *middleware.RateLimiter) *StatsHandler {
	return &StatsHandler{
		catalog:  c,
		arrivals: arrivals,
		clients:  clients,
		limiter:  limiter,
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse          `json:"server"`
	Catalog   catalog.Stats                `json:"catalog"`
	Arrivals  ArrivalStatsResponse         `json:"arrivals"`
	WebSocket WebSocketStatsResponse       `json:"websocket"`
	Cache     CacheStatsResponse           `json:"cache"`
	RateLimit *middleware.RateLimiterStats `json:"rate_limit,omitempty"`
	Go        GoStatsResponse              `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
	RateLimited   int64     `json:"rate_limited"`
	Version       string    `json:"version"`
}

type ArrivalStatsResponse struct {
	Boards          int       `json:"boards"`
	Lines           int       `json:"lines"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
}

type WebSocketStatsResponse struct {
	Clients     int   `json:"clients"`
	Connections int64 `json:"connections"`
	MessagesIn  int64 `json:"messages_in"`
	MessagesOut int64 `json:"messages_out"`
}

type CacheStatsResponse struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(ServerStats.startTime)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	hits := ServerStats.cacheHits.Load()
	misses := ServerStats.cacheMisses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	clients := 0
	if h.clients != nil {
		clients = h.clients.ClientCount()
	}

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     ServerStats.startTime,
			RequestCount:  ServerStats.requestCount.Load(),
			RateLimited:   ServerStats.rateLimitBlocked.Load(),
			Version:       Version,
		},
		Catalog: h.catalog.Stats(),
		Arrivals: ArrivalStatsResponse{
			Boards:          h.arrivals.Count(),
			Lines:           len(h.arrivals.Statuses()),
			StatusUpdatedAt: h.arrivals.StatusUpdatedAt(),
		},
		WebSocket: WebSocketStatsResponse{
			Clients:     clients,
			Connections: ServerStats.wsConnections.Load(),
			MessagesIn:  ServerStats.wsMessagesIn.Load(),
			MessagesOut: ServerStats.wsMessagesOut.Load(),
		},
		Cache: CacheStatsResponse{
			Hits:   hits,
			Misses: misses,
			Ratio:  ratio,
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}
	if h.limiter != nil {
		s := h.limiter.Stats()
		response.RateLimit = &s
	}

	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, http.StatusOK, response)
}
