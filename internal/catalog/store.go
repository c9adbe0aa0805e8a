package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"hktravel/internal/domain"
	"hktravel/internal/geo"
)

type Store struct {
	mu              sync.RWMutex
	locations       map[string]*domain.Location
	stations        map[string]*domain.MTRStation
	stationsByLine  map[string][]string
	busRoutes       map[string]*domain.BusRoute
	busRoutesByNum  map[string]*domain.BusRoute
	busStops        map[string]*domain.BusStop
	busRoutesByStop map[string][]string

	lastUpdate time.Time
}

func NewStore() *Store {
	return &Store{
		locations:       make(map[string]*domain.Location),
		stations:        make(map[string]*domain.MTRStation),
		stationsByLine:  make(map[string][]string),
		busRoutes:       make(map[string]*domain.BusRoute),
		busRoutesByNum:  make(map[string]*domain.BusRoute),
		busStops:        make(map[string]*domain.BusStop),
		busRoutesByStop: make(map[string][]string),
	}
}

// NewSampleStore returns a store loaded with the built-in sample data
func NewSampleStore() *Store {
	s := NewStore()
	s.Load(SampleLocations(), SampleStations(), SampleBusRoutes())
	return s
}

// Load replaces the catalog contents and rebuilds every index
func (s *Store) Load(locations []*domain.Location, stations []*domain.MTRStation, routes []*domain.BusRoute) {
	locs := make(map[string]*domain.Location, len(locations))
	for _, l := range locations {
		c := *l
		locs[l.ID] = &c
	}

	stns := make(map[string]*domain.MTRStation, len(stations))
	byLine := make(map[string][]string)
	for _, st := range stations {
		id := strings.ToUpper(st.ID)
		stns[id] = cloneStation(st)
		for _, line := range st.Lines {
			byLine[strings.ToUpper(line)] = append(byLine[strings.ToUpper(line)], id)
		}
	}

	bus := buildBusIndex(routes)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.locations = locs
	s.stations = stns
	s.stationsByLine = byLine
	s.setBusIndex(bus)
	s.lastUpdate = time.Now()
}

type busIndex struct {
	routes       map[string]*domain.BusRoute
	byNumber     map[string]*domain.BusRoute
	stops        map[string]*domain.BusStop
	routesByStop map[string][]string
}

func buildBusIndex(routes []*domain.BusRoute) busIndex {
	idx := busIndex{
		routes:       make(map[string]*domain.BusRoute, len(routes)),
		byNumber:     make(map[string]*domain.BusRoute, len(routes)),
		stops:        make(map[string]*domain.BusStop),
		routesByStop: make(map[string][]string),
	}
	for _, r := range routes {
		id := strings.ToUpper(r.ID)
		c := r.Clone()
		idx.routes[id] = c
		idx.byNumber[strings.ToUpper(r.Number)] = c
		for i := range c.Stops {
			stop := c.Stops[i]
			stopID := strings.ToUpper(stop.ID)
			idx.stops[stopID] = &stop
			idx.routesByStop[stopID] = append(idx.routesByStop[stopID], id)
		}
	}
	for _, ids := range idx.routesByStop {
		sort.Strings(ids)
	}
	return idx
}

func (s *Store) setBusIndex(idx busIndex) {
	s.busRoutes = idx.routes
	s.busRoutesByNum = idx.byNumber
	s.busStops = idx.stops
	s.busRoutesByStop = idx.routesByStop
}

// SearchLocations matches query case-insensitively against name, Chinese name,
// district and address. An empty query matches everything. limit <= 0 means no limit.
func (s *Store) SearchLocations(query string, limit int) []*domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))

	result := make([]*domain.Location, 0)
	for _, l := range s.locations {
		if q != "" && !matchesLocation(l, q) {
			continue
		}
		c := *l
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func matchesLocation(l *domain.Location, q string) bool {
	return strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(l.NameZH, q) ||
		strings.Contains(strings.ToLower(l.District), q) ||
		strings.Contains(strings.ToLower(l.Address), q)
}

func (s *Store) GetLocation(id string) (*domain.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.locations[id]
	if !ok {
		return nil, false
	}
	c := *l
	return &c, true
}

func (s *Store) AllStations() []*domain.MTRStation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MTRStation, 0, len(s.stations))
	for _, st := range s.stations {
		result = append(result, cloneStation(st))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Store) GetStation(id string) (*domain.MTRStation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stations[strings.ToUpper(id)]
	if !ok {
		return nil, false
	}
	return cloneStation(st), true
}

func (s *Store) StationsByLine(line string) []*domain.MTRStation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.stationsByLine[strings.ToUpper(line)]
	result := make([]*domain.MTRStation, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneStation(s.stations[id]))
	}
	return result
}

// StationDistance pairs a station with its distance from a query point
type StationDistance struct {
	Station        *domain.MTRStation `json:"station"`
	DistanceMeters float64            `json:"distanceMeters"`
}

// NearestStations returns up to n stations ordered by distance from the point
func (s *Store) NearestStations(lat, lon float64, n int) []StationDistance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StationDistance, 0, len(s.stations))
	for _, st := range s.stations {
		result = append(result, StationDistance{
			Station:        cloneStation(st),
			DistanceMeters: geo.DistanceMeters(lat, lon, st.Lat, st.Lon),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DistanceMeters == result[j].DistanceMeters {
			return result[i].Station.ID < result[j].Station.ID
		}
		return result[i].DistanceMeters < result[j].DistanceMeters
	})

	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

func (s *Store) AllBusRoutes() []*domain.BusRoute {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BusRoute, 0, len(s.busRoutes))
	for _, r := range s.busRoutes {
		result = append(result, r.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Store) GetBusRoute(id string) (*domain.BusRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.busRoutes[strings.ToUpper(id)]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (s *Store) GetBusRouteByNumber(number string) (*domain.BusRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.busRoutesByNum[strings.ToUpper(number)]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (s *Store) GetBusStop(id string) (*domain.BusStop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stop, ok := s.busStops[strings.ToUpper(id)]
	if !ok {
		return nil, false
	}
	c := *stop
	return &c, true
}

// BusRoutesForStop lists routes calling at the stop, ordered by route ID
func (s *Store) BusRoutesForStop(stopID string) []*domain.BusRoute {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.busRoutesByStop[strings.ToUpper(stopID)]
	result := make([]*domain.BusRoute, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.busRoutes[id].Clone())
	}
	return result
}

// StopDistance pairs a bus stop with its distance from a query point
type StopDistance struct {
	Stop           *domain.BusStop `json:"stop"`
	DistanceMeters float64         `json:"distanceMeters"`
}

// NearestBusStops returns up to n bus stops ordered by distance from the point
func (s *Store) NearestBusStops(lat, lon float64, n int) []StopDistance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StopDistance, 0, len(s.busStops))
	for _, stop := range s.busStops {
		c := *stop
		result = append(result, StopDistance{
			Stop:           &c,
			DistanceMeters: geo.DistanceMeters(lat, lon, stop.Lat, stop.Lon),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DistanceMeters == result[j].DistanceMeters {
			return result[i].Stop.ID < result[j].Stop.ID
		}
		return result[i].DistanceMeters < result[j].DistanceMeters
	})

	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// HasStop reports whether id is a known MTR station or bus stop
func (s *Store) HasStop(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id = strings.ToUpper(id)
	if _, ok := s.stations[id]; ok {
		return true
	}
	_, ok := s.busStops[id]
	return ok
}

type Stats struct {
	LocationsCount int       `json:"locations_count"`
	StationsCount  int       `json:"stations_count"`
	LinesCount     int       `json:"lines_count"`
	BusRoutesCount int       `json:"bus_routes_count"`
	BusStopsCount  int       `json:"bus_stops_count"`
	LastUpdate     time.Time `json:"last_update"`
	IsLoaded       bool      `json:"is_loaded"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		LocationsCount: len(s.locations),
		StationsCount:  len(s.stations),
		LinesCount:     len(s.stationsByLine),
		BusRoutesCount: len(s.busRoutes),
		BusStopsCount:  len(s.busStops),
		LastUpdate:     s.lastUpdate,
		IsLoaded:       !s.lastUpdate.IsZero(),
	}
}

func cloneStation(st *domain.MTRStation) *domain.MTRStation {
	c := *st
	c.Lines = make([]string, len(st.Lines))
	copy(c.Lines, st.Lines)
	return &c
}

// ReplaceBusRoutes swaps in a new bus network, keeping locations and stations
func (s *Store) ReplaceBusRoutes(routes []*domain.BusRoute) {
	bus := buildBusIndex(routes)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setBusIndex(bus)
	s.lastUpdate = time.Now()
}
