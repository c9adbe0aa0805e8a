package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"hktravel/internal/domain"
)

// ParseResult holds the bus routes built from a static feed
type ParseResult struct {
	Routes []*domain.BusRoute
	Stops  int
	Trips  int
}

type routeInfo struct {
	ID        string
	Agency    string
	ShortName string
	LongName  string
}

type tripInfo struct {
	RouteID   string
	Direction string
	Headsign  string
}

type stopTime struct {
	Sequence  int
	StopID    string
	Departure int // seconds after midnight, may exceed 24h
}

// feed is the raw tables needed to assemble routes
type feed struct {
	routes    map[string]*routeInfo
	routeSeq  []string
	stops     map[string]domain.BusStop
	trips     map[string]*tripInfo
	stopTimes map[string][]stopTime // trip_id -> stop times
	fares     map[string]float64    // route_id -> price
}

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "gtfs_parser"),
	}
}

// Parse reads routes, stops, trips and stop_times (plus optional fare
// tables) and returns one BusRoute per route, using its outbound direction.
func (p *Parser) Parse(reader *zip.Reader) (*ParseResult, error) {
	totalStart := time.Now()
	p.logger.Info("starting GTFS parsing")

	f := &feed{
		routes:    make(map[string]*routeInfo),
		stops:     make(map[string]domain.BusStop),
		trips:     make(map[string]*tripInfo),
		stopTimes: make(map[string][]stopTime),
		fares:     make(map[string]float64),
	}

	fileMap := make(map[string]*zip.File)
	for _, file := range reader.File {
		fileMap[file.Name] = file
	}

	// order matters: stop_times rows are kept only for known trips
	tables := []struct {
		name  string
		parse func(map[string]int, []string)
	}{
		{"routes.txt", f.addRoute},
		{"stops.txt", f.addStop},
		{"trips.txt", f.addTrip},
		{"stop_times.txt", f.addStopTime},
	}
	for _, t := range tables {
		file, ok := fileMap[t.name]
		if !ok {
			return nil, fmt.Errorf("missing %s", t.name)
		}
		start := time.Now()
		if err := readCSV(file, t.parse); err != nil {
			return nil, fmt.Errorf("parse %s: %w", strings.TrimSuffix(t.name, ".txt"), err)
		}
		p.logger.Debug("parsed table",
			"file", t.name,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if err := f.parseFares(fileMap); err != nil {
		return nil, err
	}

	result := &ParseResult{
		Routes: f.buildRoutes(),
		Stops:  len(f.stops),
		Trips:  len(f.trips),
	}

	p.logger.Info("GTFS parsing completed",
		"total_duration_ms", time.Since(totalStart).Milliseconds(),
		"routes", len(result.Routes),
		"stops", result.Stops,
		"trips", result.Trips,
	)

	return result, nil
}

func (f *feed) addRoute(idx map[string]int, record []string) {
	r := &routeInfo{
		ID:        getField(record, idx, "route_id"),
		Agency:    getField(record, idx, "agency_id"),
		ShortName: getField(record, idx, "route_short_name"),
		LongName:  getField(record, idx, "route_long_name"),
	}
	if r.ID == "" || r.ShortName == "" {
		return
	}
	if _, dup := f.routes[r.ID]; !dup {
		f.routeSeq = append(f.routeSeq, r.ID)
	}
	f.routes[r.ID] = r
}

func (f *feed) addStop(idx map[string]int, record []string) {
	lat, _ := strconv.ParseFloat(getField(record, idx, "stop_lat"), 64)
	lon, _ := strconv.ParseFloat(getField(record, idx, "stop_lon"), 64)

	id := getField(record, idx, "stop_id")
	if id == "" {
		return
	}
	f.stops[id] = domain.BusStop{
		ID:   strings.ToUpper(id),
		Name: getField(record, idx, "stop_name"),
		Lat:  lat,
		Lon:  lon,
	}
}

func (f *feed) addTrip(idx map[string]int, record []string) {
	tripID := getField(record, idx, "trip_id")
	routeID := getField(record, idx, "route_id")
	if tripID == "" || routeID == "" {
		return
	}
	f.trips[tripID] = &tripInfo{
		RouteID:   routeID,
		Direction: getField(record, idx, "direction_id"),
		Headsign:  getField(record, idx, "trip_headsign"),
	}
}

func (f *feed) addStopTime(idx map[string]int, record []string) {
	tripID := getField(record, idx, "trip_id")
	if _, ok := f.trips[tripID]; !ok {
		return
	}
	seq, _ := strconv.Atoi(getField(record, idx, "stop_sequence"))
	dep := getField(record, idx, "departure_time")
	if dep == "" {
		dep = getField(record, idx, "arrival_time")
	}
	f.stopTimes[tripID] = append(f.stopTimes[tripID], stopTime{
		Sequence:  seq,
		StopID:    getField(record, idx, "stop_id"),
		Departure: parseClock(dep),
	})
}

// parseFares maps fare_rules onto fare_attributes prices. Both are optional.
func (f *feed) parseFares(fileMap map[string]*zip.File) error {
	attrs, ok := fileMap["fare_attributes.txt"]
	if !ok {
		return nil
	}
	rules, ok := fileMap["fare_rules.txt"]
	if !ok {
		return nil
	}

	prices := make(map[string]float64)
	err := readCSV(attrs, func(idx map[string]int, record []string) {
		price, err := strconv.ParseFloat(getField(record, idx, "price"), 64)
		if err == nil {
			prices[getField(record, idx, "fare_id")] = price
		}
	})
	if err != nil {
		return fmt.Errorf("parse fare_attributes: %w", err)
	}

	err = readCSV(rules, func(idx map[string]int, record []string) {
		routeID := getField(record, idx, "route_id")
		price, ok := prices[getField(record, idx, "fare_id")]
		if !ok || routeID == "" {
			return
		}
		// keep the highest section fare, which is the full-journey fare
		if price > f.fares[routeID] {
			f.fares[routeID] = price
		}
	})
	if err != nil {
		return fmt.Errorf("parse fare_rules: %w", err)
	}
	return nil
}

func (f *feed) buildRoutes() []*domain.BusRoute {
	tripsByRoute := make(map[string][]string)
	for tripID, t := range f.trips {
		if t.Direction == "" || t.Direction == "0" {
			tripsByRoute[t.RouteID] = append(tripsByRoute[t.RouteID], tripID)
		}
	}

	ids := make(map[string]bool)
	routes := make([]*domain.BusRoute, 0, len(f.routeSeq))

	for _, routeID := range f.routeSeq {
		info := f.routes[routeID]
		tripIDs := tripsByRoute[routeID]
		if len(tripIDs) == 0 {
			continue
		}
		sort.Strings(tripIDs)

		pattern := f.longestTrip(tripIDs)
		stops := make([]domain.BusStop, 0, len(pattern))
		for _, st := range pattern {
			if stop, ok := f.stops[st.StopID]; ok {
				stops = append(stops, stop)
			}
		}
		if len(stops) < 2 {
			continue
		}

		operator := domain.BusOperator(strings.ToUpper(info.Agency))
		id := string(operator) + "-" + strings.ToUpper(info.ShortName)
		if ids[id] {
			id += "-" + strings.ToUpper(routeID)
		}
		ids[id] = true

		first, last, freq := f.timetable(tripIDs)

		origin, destination := splitLongName(info.LongName)
		if origin == "" {
			origin = stops[0].Name
		}
		if destination == "" {
			destination = stops[len(stops)-1].Name
		}

		routes = append(routes, &domain.BusRoute{
			ID:               id,
			Number:           info.ShortName,
			Operator:         operator,
			Origin:           origin,
			Destination:      destination,
			Stops:            stops,
			FirstBus:         formatClock(first),
			LastBus:          formatClock(last),
			FrequencyMinutes: freq,
			Fare:             f.fares[routeID],
		})
	}

	return routes
}

// longestTrip returns the stop pattern of the trip calling at the most stops
func (f *feed) longestTrip(tripIDs []string) []stopTime {
	var best []stopTime
	for _, id := range tripIDs {
		if st := f.stopTimes[id]; len(st) > len(best) {
			best = st
		}
	}
	sorted := make([]stopTime, len(best))
	copy(sorted, best)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })
	return sorted
}

// timetable derives first and last departures from the origin stop and the
// mean headway between them
func (f *feed) timetable(tripIDs []string) (first, last, freq int) {
	first, last = -1, -1
	n := 0
	for _, id := range tripIDs {
		start := -1
		minSeq := math.MaxInt
		for _, st := range f.stopTimes[id] {
			if st.Sequence < minSeq && st.Departure >= 0 {
				minSeq = st.Sequence
				start = st.Departure
			}
		}
		if start < 0 {
			continue
		}
		n++
		if first < 0 || start < first {
			first = start
		}
		if start > last {
			last = start
		}
	}
	if n > 1 {
		freq = int(math.Round(float64(last-first) / 60 / float64(n-1)))
	}
	return first, last, freq
}

// splitLongName splits "ORIGIN - DESTINATION" style long names
func splitLongName(s string) (string, string) {
	for _, sep := range []string{" - ", " – ", " to "} {
		if a, b, ok := strings.Cut(s, sep); ok {
			return strings.TrimSpace(a), strings.TrimSpace(b)
		}
	}
	return "", ""
}

// parseClock converts HH:MM:SS to seconds, or -1 when malformed
func parseClock(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return -1
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return -1
	}
	return h*3600 + m*60 + sec
}

// formatClock renders seconds as HH:MM, wrapping past midnight
func formatClock(secs int) string {
	if secs < 0 {
		return ""
	}
	mins := secs / 60
	return fmt.Sprintf("%02d:%02d", (mins/60)%24, mins%60)
}

func readCSV(file *zip.File, fn func(map[string]int, []string)) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return err
	}

	idx := makeIndex(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fn(idx, record)
	}

	return nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
