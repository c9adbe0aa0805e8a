package domain

import "time"

// RouteStep is a single leg of a planned journey
type RouteStep struct {
	Mode            TransportMode `json:"mode"`
	Instruction     string        `json:"instruction"`
	From            string        `json:"from"`
	To              string        `json:"to"`
	Line            string        `json:"line,omitempty"`
	DurationMinutes int           `json:"durationMinutes"`
	DistanceMeters  int           `json:"distanceMeters"`
	Stops           int           `json:"stops,omitempty"`
}

// TravelRoute is a complete candidate journey between two locations
type TravelRoute struct {
	ID                   string      `json:"id"`
	Origin               Location    `json:"origin"`
	Destination          Location    `json:"destination"`
	Steps                []RouteStep `json:"steps"`
	TotalDurationMinutes int         `json:"totalDurationMinutes"`
	TotalFare            float64     `json:"totalFare"`
	Currency             string      `json:"currency"`
	Transfers            int         `json:"transfers"`
	WalkingMeters        int         `json:"walkingMeters"`
	DepartureTime        time.Time   `json:"departureTime"`
	ArrivalTime          time.Time   `json:"arrivalTime"`
	Summary              string      `json:"summary"`
}
