package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	// Central station to Tsim Sha Tsui station, roughly 2.2 km across the harbour
	d := DistanceMeters(22.2819, 114.1582, 22.2973, 114.1722)
	assert.InDelta(t, 2240, d, 150)

	assert.Zero(t, DistanceMeters(22.3, 114.1, 22.3, 114.1))
}

func TestTravelMinutes(t *testing.T) {
	tests := []struct {
		name   string
		meters float64
		speed  float64
		want   int
	}{
		{"zero distance", 0, 5, 0},
		{"zero speed", 100, 0, 0},
		{"exact kilometre walking", 1000, 5, 12},
		{"rounds up", 1001, 5, 13},
		{"short hop is one minute", 10, 30, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TravelMinutes(tt.meters, tt.speed))
		})
	}
}

func TestInHongKong(t *testing.T) {
	assert.True(t, InHongKong(22.3193, 114.1694))
	assert.False(t, InHongKong(51.5074, -0.1278))
}
