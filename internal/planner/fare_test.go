package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hktravel/internal/domain"
)

func sampleSteps() []domain.RouteStep {
	return []domain.RouteStep{
		{Mode: domain.ModeWalking, DurationMinutes: 5, DistanceMeters: 400},
		{Mode: domain.ModeMTR, DurationMinutes: 10, DistanceMeters: 4000, Line: "TWL"},
		{Mode: domain.ModeBus, DurationMinutes: 15, DistanceMeters: 3000, Line: "1A"},
		{Mode: domain.ModeWalking, DurationMinutes: 3, DistanceMeters: 200},
	}
}

func TestFareFor(t *testing.T) {
	assert.Equal(t, 0.0, FareFor(domain.ModeWalking))
	assert.Equal(t, 12.5, FareFor(domain.ModeMTR))
	assert.Equal(t, 9.8, FareFor(domain.ModeBus))
	assert.Equal(t, 0.0, FareFor(domain.TransportMode("hovercraft")))
}

func TestFareTableIsCopy(t *testing.T) {
	table := FareTable()
	table[domain.ModeMTR] = 999
	assert.Equal(t, 12.5, FareFor(domain.ModeMTR))
}

func TestAggregates(t *testing.T) {
	steps := sampleSteps()

	assert.Equal(t, 22.3, AggregateFare(steps))
	assert.Equal(t, 33, AggregateDuration(steps))
	assert.Equal(t, 1, CountTransfers(steps))
	assert.Equal(t, 600, WalkingMeters(steps))
}

func TestAggregatesEmpty(t *testing.T) {
	assert.Equal(t, 0.0, AggregateFare(nil))
	assert.Equal(t, 0, AggregateDuration(nil))
	assert.Equal(t, 0, CountTransfers(nil))
}

func TestCountTransfers(t *testing.T) {
	tests := []struct {
		name  string
		modes []domain.TransportMode
		want  int
	}{
		{"walk only", []domain.TransportMode{domain.ModeWalking}, 0},
		{"single ride", []domain.TransportMode{domain.ModeWalking, domain.ModeMTR, domain.ModeWalking}, 0},
		{"two rides", []domain.TransportMode{domain.ModeMTR, domain.ModeMTR}, 1},
		{"three rides", []domain.TransportMode{domain.ModeMinibus, domain.ModeMTR, domain.ModeWalking, domain.ModeBus}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := make([]domain.RouteStep, 0, len(tt.modes))
			for _, m := range tt.modes {
				steps = append(steps, domain.RouteStep{Mode: m})
			}
			assert.Equal(t, tt.want, CountTransfers(steps))
		})
	}
}

func TestFinalize(t *testing.T) {
	departure := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	route := &domain.TravelRoute{Steps: sampleSteps()}

	Finalize(route, departure)

	assert.Equal(t, 33, route.TotalDurationMinutes)
	assert.Equal(t, 22.3, route.TotalFare)
	assert.Equal(t, "HKD", route.Currency)
	assert.Equal(t, 1, route.Transfers)
	assert.Equal(t, 600, route.WalkingMeters)
	assert.Equal(t, departure, route.DepartureTime)
	assert.Equal(t, departure.Add(33*time.Minute), route.ArrivalTime)
	assert.Equal(t, "MTR + Bus", route.Summary)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "Walk", Summarize([]domain.RouteStep{{Mode: domain.ModeWalking}}))
	assert.Equal(t, "Taxi", Summarize([]domain.RouteStep{{Mode: domain.ModeTaxi}}))
	assert.Equal(t, "MTR", Summarize([]domain.RouteStep{{Mode: domain.ModeMTR}, {Mode: domain.ModeMTR}}))
}
