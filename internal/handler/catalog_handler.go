package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hktravel/internal/cache"
	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/geo"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	defaultNearbyLimit = 5
)

// CatalogHandler serves locations, MTR stations and bus routes. List
// endpoints read through the cache when one is configured.
type CatalogHandler struct {
	store  *catalog.Store
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCatalogHandler(store *catalog.Store, c *cache.Cache, ttl time.Duration, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("component", "catalog_handler"),
	}
}

type LocationsResponse struct {
	Locations []*domain.Location `json:"locations"`
	Count     int                `json:"count"`
	Query     string             `json:"query,omitempty"`
}

func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}
	if limit == 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	locations := h.store.SearchLocations(q, limit)

	respondJSON(w, http.StatusOK, LocationsResponse{
		Locations: locations,
		Count:     len(locations),
		Query:     q,
	})
}

func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := h.store.GetLocation(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "location not found")
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

type StationsResponse struct {
	Stations []*domain.MTRStation `json:"stations"`
	Count    int                  `json:"count"`
	Line     string               `json:"line,omitempty"`
	LineName string               `json:"lineName,omitempty"`
}

func (h *CatalogHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	line := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("line")))

	var stations []*domain.MTRStation
	if line != "" {
		if _, ok := catalog.LineNames[line]; !ok {
			respondError(w, http.StatusBadRequest, "unknown line: "+line)
			return
		}
		stations = readThrough(r.Context(), h, cache.KeyLineStations(line), func() []*domain.MTRStation {
			return h.store.StationsByLine(line)
		})
	} else {
		stations = readThrough(r.Context(), h, cache.KeyStations, h.store.AllStations)
	}

	resp := StationsResponse{Stations: stations, Count: len(stations), Line: line}
	if line != "" {
		resp.LineName = catalog.LineName(line)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	st, ok := h.store.GetStation(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "station not found")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

type NearbyStationsResponse struct {
	Stations []catalog.StationDistance `json:"stations"`
	Lat      float64                   `json:"lat"`
	Lon      float64                   `json:"lon"`
}

func (h *CatalogHandler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	lat, okLat, errLat := queryFloat(r, "lat")
	lon, okLon, errLon := queryFloat(r, "lon")
	if !okLat || !okLon || errLat != nil || errLon != nil {
		respondError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}
	if !geo.InHongKong(lat, lon) {
		respondError(w, http.StatusBadRequest, "coordinates are outside Hong Kong")
		return
	}

	limit, err := queryInt(r, "limit", defaultNearbyLimit)
	if err != nil || limit <= 0 {
		respondError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}

	respondJSON(w, http.StatusOK, NearbyStationsResponse{
		Stations: h.store.NearestStations(lat, lon, limit),
		Lat:      lat,
		Lon:      lon,
	})
}

type BusRoutesResponse struct {
	Routes []*domain.BusRoute `json:"routes"`
	Count  int                `json:"count"`
}

func (h *CatalogHandler) ListBusRoutes(w http.ResponseWriter, r *http.Request) {
	routes := readThrough(r.Context(), h, cache.KeyBusRoutes, h.store.AllBusRoutes)

	if op := strings.ToUpper(r.URL.Query().Get("operator")); op != "" {
		filtered := make([]*domain.BusRoute, 0, len(routes))
		for _, rt := range routes {
			if string(rt.Operator) == op {
				filtered = append(filtered, rt)
			}
		}
		routes = filtered
	}

	respondJSON(w, http.StatusOK, BusRoutesResponse{Routes: routes, Count: len(routes)})
}

// GetBusRoute accepts either a route ID (KMB-1A) or a route number (1A)
func (h *CatalogHandler) GetBusRoute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rt, ok := h.store.GetBusRoute(id)
	if !ok {
		rt, ok = h.store.GetBusRouteByNumber(id)
	}
	if !ok {
		respondError(w, http.StatusNotFound, "bus route not found")
		return
	}
	respondJSON(w, http.StatusOK, rt)
}

type StopRoutesResponse struct {
	Stop   *domain.BusStop    `json:"stop"`
	Routes []*domain.BusRoute `json:"routes"`
}

func (h *CatalogHandler) StopRoutes(w http.ResponseWriter, r *http.Request) {
	stop, ok := h.store.GetBusStop(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "bus stop not found")
		return
	}

	routes := readThrough(r.Context(), h, cache.KeyStopRoutes(stop.ID), func() []*domain.BusRoute {
		return h.store.BusRoutesForStop(stop.ID)
	})
	respondJSON(w, http.StatusOK, StopRoutesResponse{Stop: stop, Routes: routes})
}

// readThrough serves key from the cache, loading and storing it on a miss.
// Cache failures fall back to load.
func readThrough[T any](ctx context.Context, h *CatalogHandler, key string, load func() []T) []T {
	if h.cache == nil {
		return load()
	}

	var cached []T
	found, err := h.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		h.logger.Warn("cache read failed", "key", key, "error", err)
		return load()
	}
	if found {
		ServerStats.IncCacheHits()
		return cached
	}

	ServerStats.IncCacheMisses()
	fresh := load()
	if err := h.cache.SetJSON(ctx, key, fresh, h.ttl); err != nil {
		h.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return fresh
}
