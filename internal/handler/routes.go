package handler

import (
	"log/slog"
	"net/http"

	"hktravel/internal/middleware"
)

// Router bundles the handlers served by NewRouter. History and Stats may be nil.
type Router struct {
	Catalog   *CatalogHandler
	Transport *TransportHandler
	Plan      *PlanHandler
	Weather   *WeatherHandler
	History   *HistoryHandler
	WS        *WSHandler
	Health    *HealthHandler
	Stats     *StatsHandler

	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler builds the HTTP handler tree. The websocket endpoint skips gzip.
func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /v1/locations", rt.Catalog.ListLocations)
	api.HandleFunc("GET /v1/locations/{id}", rt.Catalog.GetLocation)
	api.HandleFunc("GET /v1/mtr/stations", rt.Catalog.ListStations)
	api.HandleFunc("GET /v1/mtr/stations/nearby", rt.Catalog.NearbyStations)
	api.HandleFunc("GET /v1/mtr/stations/{id}", rt.Catalog.GetStation)
	api.HandleFunc("GET /v1/bus/routes", rt.Catalog.ListBusRoutes)
	api.HandleFunc("GET /v1/bus/routes/{id}", rt.Catalog.GetBusRoute)
	api.HandleFunc("GET /v1/bus/stops/{id}/routes", rt.Catalog.StopRoutes)

	api.HandleFunc("GET /v1/stops/{id}/arrivals", rt.Transport.Arrivals)
	api.HandleFunc("GET /v1/lines/{line}/arrivals", rt.Transport.LineArrivals)
	api.HandleFunc("GET /v1/status", rt.Transport.Status)

	api.HandleFunc("POST /v1/routes/plan", rt.Plan.Plan)
	api.HandleFunc("POST /v1/routes/fare", rt.Plan.Fare)
	api.HandleFunc("GET /v1/fares", rt.Plan.FareTable)

	api.HandleFunc("GET /v1/weather", rt.Weather.Current)

	if rt.History != nil {
		api.HandleFunc("GET /v1/history", rt.History.List)
		api.HandleFunc("GET /v1/history/{id}", rt.History.Get)
		api.HandleFunc("DELETE /v1/history", rt.History.Clear)
	}
	if rt.Stats != nil {
		api.HandleFunc("GET /v1/stats", rt.Stats.GetStats)
	}

	api.HandleFunc("GET /healthz", rt.Health.Healthz)
	api.HandleFunc("GET /readyz", rt.Health.Readyz)

	var apiHandler http.Handler = GzipMiddleware(api)
	if rt.Limiter != nil {
		rt.Limiter.OnLimited = ServerStats.IncRateLimitBlocked
		apiHandler = rt.Limiter.Middleware(apiHandler)
	}

	root := http.NewServeMux()
	root.Handle("/", apiHandler)
	if rt.WS != nil {
		root.HandleFunc("GET /v1/ws", rt.WS.ServeWS)
	}

	mws := []func(http.Handler) http.Handler{CountRequests, middleware.CORS(rt.AllowedOrigins)}
	if rt.Logger != nil {
		mws = append(mws, middleware.RequestLogger(rt.Logger))
	}
	return Chain(root, mws...)
}
