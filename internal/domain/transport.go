package domain

import "time"

// TransportMode identifies how a leg of a journey is travelled
type TransportMode string

const (
	ModeWalking TransportMode = "walking"
	ModeMTR     TransportMode = "mtr"
	ModeBus     TransportMode = "bus"
	ModeMinibus TransportMode = "minibus"
	ModeTram    TransportMode = "tram"
	ModeFerry   TransportMode = "ferry"
	ModeTaxi    TransportMode = "taxi"
)

func (m TransportMode) String() string {
	return string(m)
}

// IsValid reports whether m is one of the known modes
func (m TransportMode) IsValid() bool {
	switch m {
	case ModeWalking, ModeMTR, ModeBus, ModeMinibus, ModeTram, ModeFerry, ModeTaxi:
		return true
	default:
		return false
	}
}

// IsTransit is true for every mode except walking
func (m TransportMode) IsTransit() bool {
	return m.IsValid() && m != ModeWalking
}

// BusOperator is the franchised operator running a bus route
type BusOperator string

const (
	OperatorKMB  BusOperator = "KMB"
	OperatorCTB  BusOperator = "CTB"
	OperatorNWFB BusOperator = "NWFB"
)

// MTRStation is a metro station, possibly an interchange between several lines
type MTRStation struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	NameZH   string   `json:"nameZh"`
	Lines    []string `json:"lines"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	District string   `json:"district"`
}

// ServesLine checks whether the station is on the given line code
func (s *MTRStation) ServesLine(line string) bool {
	for _, l := range s.Lines {
		if l == line {
			return true
		}
	}
	return false
}

// BusStop is a single stop on one or more bus routes
type BusStop struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	NameZH string  `json:"nameZh"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// BusRoute is a franchised bus line with its ordered stops
type BusRoute struct {
	ID               string      `json:"id"`
	Number           string      `json:"number"`
	Operator         BusOperator `json:"operator"`
	Origin           string      `json:"origin"`
	Destination      string      `json:"destination"`
	Stops            []BusStop   `json:"stops"`
	FirstBus         string      `json:"firstBus"`
	LastBus          string      `json:"lastBus"`
	FrequencyMinutes int         `json:"frequencyMinutes"`
	Fare             float64     `json:"fare"`
}

// StopIndex returns the position of stopID on the route or -1
func (r *BusRoute) StopIndex(stopID string) int {
	for i, s := range r.Stops {
		if s.ID == stopID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the route
func (r *BusRoute) Clone() *BusRoute {
	c := *r
	c.Stops = make([]BusStop, len(r.Stops))
	copy(c.Stops, r.Stops)
	return &c
}

// RealTimeArrival is one predicted arrival at a station or bus stop
type RealTimeArrival struct {
	StopID      string    `json:"stopId"`
	Line        string    `json:"line"`
	Destination string    `json:"destination"`
	Platform    string    `json:"platform,omitempty"`
	ETA         time.Time `json:"eta"`
	MinutesAway int       `json:"minutesAway"`
	Sequence    int       `json:"sequence"`
}

// ServiceState describes the operating condition of a line
type ServiceState string

const (
	ServiceNormal    ServiceState = "normal"
	ServiceDelayed   ServiceState = "delayed"
	ServiceSuspended ServiceState = "suspended"
)

// ServiceStatus is the current condition of a single line
type ServiceStatus struct {
	Line      string        `json:"line"`
	Mode      TransportMode `json:"mode"`
	Status    ServiceState  `json:"status"`
	Message   string        `json:"message"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ArrivalBoard is the latest set of arrivals known for a stop
type ArrivalBoard struct {
	StopID    string            `json:"stopId"`
	Arrivals  []RealTimeArrival `json:"arrivals"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ArrivalDelta is emitted when a stop's board changes or is removed
type ArrivalDelta struct {
	Type   DeltaType     `json:"type"`
	StopID string        `json:"stopId"`
	Board  *ArrivalBoard `json:"board,omitempty"`
}

// DeltaType indicates whether a board was updated or removed
type DeltaType string

const (
	DeltaUpdate DeltaType = "update"
	DeltaRemove DeltaType = "remove"
)
