package planner

import (
	"strings"
	"time"

	"hktravel/internal/domain"
)

const Currency = "HKD"

// fareTable is the flat per-leg fare by mode, in HKD
var fareTable = map[domain.TransportMode]float64{
	domain.ModeWalking: 0,
	domain.ModeMTR:     12.5,
	domain.ModeBus:     9.8,
	domain.ModeMinibus: 8.0,
	domain.ModeTram:    3.3,
	domain.ModeFerry:   5.0,
	domain.ModeTaxi:    60.0,
}

// FareFor returns the flat fare of a single leg. Unknown modes cost nothing.
func FareFor(mode domain.TransportMode) float64 {
	return fareTable[mode]
}

// FareTable returns a copy of the per-mode fares
func FareTable() map[domain.TransportMode]float64 {
	result := make(map[domain.TransportMode]float64, len(fareTable))
	for k, v := range fareTable {
		result[k] = v
	}
	return result
}

func AggregateFare(steps []domain.RouteStep) float64 {
	var total float64
	for _, s := range steps {
		total += FareFor(s.Mode)
	}
	return roundCents(total)
}

func AggregateDuration(steps []domain.RouteStep) int {
	total := 0
	for _, s := range steps {
		total += s.DurationMinutes
	}
	return total
}

// CountTransfers is the number of changes between non-walking legs
func CountTransfers(steps []domain.RouteStep) int {
	legs := 0
	for _, s := range steps {
		if s.Mode.IsTransit() {
			legs++
		}
	}
	if legs <= 1 {
		return 0
	}
	return legs - 1
}

func WalkingMeters(steps []domain.RouteStep) int {
	total := 0
	for _, s := range steps {
		if s.Mode == domain.ModeWalking {
			total += s.DistanceMeters
		}
	}
	return total
}

// Finalize fills every aggregate field of route from its steps
func Finalize(route *domain.TravelRoute, departure time.Time) {
	route.TotalDurationMinutes = AggregateDuration(route.Steps)
	route.TotalFare = AggregateFare(route.Steps)
	route.Currency = Currency
	route.Transfers = CountTransfers(route.Steps)
	route.WalkingMeters = WalkingMeters(route.Steps)
	route.DepartureTime = departure
	route.ArrivalTime = departure.Add(time.Duration(route.TotalDurationMinutes) * time.Minute)
	route.Summary = Summarize(route.Steps)
}

var modeTitles = map[domain.TransportMode]string{
	domain.ModeWalking: "Walk",
	domain.ModeMTR:     "MTR",
	domain.ModeBus:     "Bus",
	domain.ModeMinibus: "Minibus",
	domain.ModeTram:    "Tram",
	domain.ModeFerry:   "Ferry",
	domain.ModeTaxi:    "Taxi",
}

// Summarize names the distinct transit modes in order, e.g. "MTR + Minibus".
// A journey on foot only is summarised as "Walk".
func Summarize(steps []domain.RouteStep) string {
	seen := make(map[domain.TransportMode]struct{})
	var parts []string
	for _, s := range steps {
		if !s.Mode.IsTransit() {
			continue
		}
		if _, ok := seen[s.Mode]; ok {
			continue
		}
		seen[s.Mode] = struct{}{}
		parts = append(parts, modeTitles[s.Mode])
	}
	if len(parts) == 0 {
		return modeTitles[domain.ModeWalking]
	}
	return strings.Join(parts, " + ")
}

func roundCents(v float64) float64 {
	if v < 0 {
		return -roundCents(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
