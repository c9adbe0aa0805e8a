package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/geo"
)

var (
	ErrSameLocation       = errors.New("origin and destination are the same")
	ErrUnknownPreference  = errors.New("unknown route preference")
	ErrOutsideServiceArea = errors.New("location is outside Hong Kong")
)

// Preference selects how candidate routes are ordered
type Preference string

const (
	PreferFastest         Preference = "fastest"
	PreferCheapest        Preference = "cheapest"
	PreferFewestTransfers Preference = "fewest_transfers"
)

// ParsePreference accepts the known preference names; empty means fastest
func ParsePreference(s string) (Preference, error) {
	switch Preference(s) {
	case "":
		return PreferFastest, nil
	case PreferFastest, PreferCheapest, PreferFewestTransfers:
		return Preference(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, s)
	}
}

const (
	walkKmh    = 5.0
	mtrKmh     = 33.0
	busKmh     = 18.0
	minibusKmh = 22.0
	taxiKmh    = 28.0

	// street distance is longer than the straight line
	detourFactor = 1.25

	mtrWaitMinutes     = 1
	busWaitMinutes     = 2
	minibusWaitMinutes = 2
	taxiWaitMinutes    = 2

	mtrMetersPerStop = 1200.0

	DefaultMaxWalkMeters = 2000
	feederWalkMeters     = 800
	mixedMinMeters       = 5000
)

type PlanRequest struct {
	Origin        domain.Location
	Destination   domain.Location
	Departure     time.Time
	Preference    Preference
	MaxWalkMeters int
}

type Planner struct {
	catalog *catalog.Store
	logger  *slog.Logger
	now     func() time.Time
}

func New(store *catalog.Store, logger *slog.Logger) *Planner {
	return &Planner{
		catalog: store,
		logger:  logger.With("component", "planner"),
		now:     time.Now,
	}
}

// Plan synthesises candidate journeys between two locations and orders them by preference
func (p *Planner) Plan(ctx context.Context, req PlanRequest) ([]*domain.TravelRoute, error) {
	start := time.Now()

	if req.Origin.SameSpot(req.Destination) {
		return nil, ErrSameLocation
	}
	if !geo.InHongKong(req.Origin.Lat, req.Origin.Lon) {
		return nil, fmt.Errorf("origin %q: %w", req.Origin.Name, ErrOutsideServiceArea)
	}
	if !geo.InHongKong(req.Destination.Lat, req.Destination.Lon) {
		return nil, fmt.Errorf("destination %q: %w", req.Destination.Name, ErrOutsideServiceArea)
	}

	pref, err := ParsePreference(string(req.Preference))
	if err != nil {
		return nil, err
	}
	if req.Departure.IsZero() {
		req.Departure = p.now()
	}
	if req.MaxWalkMeters <= 0 {
		req.MaxWalkMeters = DefaultMaxWalkMeters
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	distance := geo.Between(req.Origin, req.Destination)

	var candidates [][]domain.RouteStep
	if distance <= float64(req.MaxWalkMeters) {
		candidates = append(candidates, p.walkingSteps(req.Origin, req.Destination))
	}

	mtrSteps := p.mtrSteps(req.Origin, req.Destination)
	if mtrSteps != nil {
		candidates = append(candidates, mtrSteps)
		if distance > mixedMinMeters {
			if mixed, ok := withMinibusFeeders(mtrSteps); ok {
				candidates = append(candidates, mixed)
			}
		}
	}

	if busSteps := p.busSteps(req.Origin, req.Destination, float64(req.MaxWalkMeters)); busSteps != nil {
		candidates = append(candidates, busSteps)
	}

	candidates = append(candidates, p.taxiSteps(req.Origin, req.Destination))

	routes := make([]*domain.TravelRoute, 0, len(candidates))
	for _, steps := range candidates {
		route := &domain.TravelRoute{
			ID:          uuid.New().String(),
			Origin:      req.Origin,
			Destination: req.Destination,
			Steps:       dropEmptyWalks(steps),
		}
		Finalize(route, req.Departure)
		routes = append(routes, route)
	}

	SortRoutes(routes, pref)

	p.logger.Debug("planned routes",
		"origin", req.Origin.Name,
		"destination", req.Destination.Name,
		"distance_m", int(distance),
		"preference", pref,
		"candidates", len(routes),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return routes, nil
}

// SortRoutes orders routes in place according to the preference
func SortRoutes(routes []*domain.TravelRoute, pref Preference) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		switch pref {
		case PreferCheapest:
			if a.TotalFare != b.TotalFare {
				return a.TotalFare < b.TotalFare
			}
			return a.TotalDurationMinutes < b.TotalDurationMinutes
		case PreferFewestTransfers:
			if a.Transfers != b.Transfers {
				return a.Transfers < b.Transfers
			}
			return a.TotalDurationMinutes < b.TotalDurationMinutes
		default:
			if a.TotalDurationMinutes != b.TotalDurationMinutes {
				return a.TotalDurationMinutes < b.TotalDurationMinutes
			}
			return a.TotalFare < b.TotalFare
		}
	})
}

func (p *Planner) walkingSteps(from, to domain.Location) []domain.RouteStep {
	return []domain.RouteStep{walkStep(from.Name, to.Name, geo.Between(from, to))}
}

func (p *Planner) taxiSteps(from, to domain.Location) []domain.RouteStep {
	meters := geo.Between(from, to) * detourFactor
	return []domain.RouteStep{{
		Mode:            domain.ModeTaxi,
		Instruction:     fmt.Sprintf("Take a taxi to %s", to.Name),
		From:            from.Name,
		To:              to.Name,
		DurationMinutes: geo.TravelMinutes(meters, taxiKmh) + taxiWaitMinutes,
		DistanceMeters:  int(math.Round(meters)),
	}}
}

func (p *Planner) mtrSteps(from, to domain.Location) []domain.RouteStep {
	originNearest := p.catalog.NearestStations(from.Lat, from.Lon, 1)
	destNearest := p.catalog.NearestStations(to.Lat, to.Lon, 1)
	if len(originNearest) == 0 || len(destNearest) == 0 {
		return nil
	}
	boardAt := originNearest[0].Station
	alightAt := destNearest[0].Station
	if boardAt.ID == alightAt.ID {
		return nil
	}

	steps := []domain.RouteStep{walkStep(from.Name, boardAt.Name+" Station", originNearest[0].DistanceMeters)}

	if line := commonLine(boardAt, alightAt); line != "" {
		steps = append(steps, mtrLeg(boardAt, alightAt, line))
	} else if via, first, second := p.interchange(boardAt, alightAt); via != nil {
		steps = append(steps, mtrLeg(boardAt, via, first), mtrLeg(via, alightAt, second))
	} else if legs := p.multiLineLegs(boardAt, alightAt); legs != nil {
		steps = append(steps, legs...)
	} else {
		return nil
	}

	steps = append(steps, walkStep(alightAt.Name+" Station", to.Name, destNearest[0].DistanceMeters))
	return steps
}

// interchange finds the station sharing a line with both ends that minimises
// the total straight-line distance travelled.
func (p *Planner) interchange(a, b *domain.MTRStation) (*domain.MTRStation, string, string) {
	var best *domain.MTRStation
	var bestFirst, bestSecond string
	bestDist := math.MaxFloat64

	for _, st := range p.catalog.AllStations() {
		if st.ID == a.ID || st.ID == b.ID {
			continue
		}
		first := commonLine(a, st)
		second := commonLine(st, b)
		if first == "" || second == "" {
			continue
		}
		d := geo.DistanceMeters(a.Lat, a.Lon, st.Lat, st.Lon) + geo.DistanceMeters(st.Lat, st.Lon, b.Lat, b.Lon)
		if d < bestDist {
			best, bestFirst, bestSecond, bestDist = st, first, second, d
		}
	}
	return best, bestFirst, bestSecond
}

// multiLineLegs covers journeys needing two or more interchanges. Lines are
// searched breadth-first so the fewest changes win, then each change happens at
// the shared station closest to the straight path onwards.
func (p *Planner) multiLineLegs(a, b *domain.MTRStation) []domain.RouteStep {
	stations := p.catalog.AllStations()

	adjacent := make(map[string][]string)
	seenPair := make(map[[2]string]bool)
	for _, st := range stations {
		for _, l1 := range st.Lines {
			for _, l2 := range st.Lines {
				if l1 == l2 || seenPair[[2]string{l1, l2}] {
					continue
				}
				seenPair[[2]string{l1, l2}] = true
				adjacent[l1] = append(adjacent[l1], l2)
			}
		}
	}
	for l := range adjacent {
		sort.Strings(adjacent[l])
	}

	prev := make(map[string]string)
	visited := make(map[string]bool)
	var queue []string
	for _, l := range a.Lines {
		if !visited[l] {
			visited[l] = true
			queue = append(queue, l)
		}
	}

	var last string
	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]
		if b.ServesLine(l) {
			last = l
			break
		}
		for _, n := range adjacent[l] {
			if !visited[n] {
				visited[n] = true
				prev[n] = l
				queue = append(queue, n)
			}
		}
	}
	if last == "" {
		return nil
	}

	lines := []string{last}
	for l, ok := prev[last]; ok; l, ok = prev[l] {
		lines = append([]string{l}, lines...)
	}

	legs := make([]domain.RouteStep, 0, len(lines))
	at := a
	for i := 0; i+1 < len(lines); i++ {
		var via *domain.MTRStation
		bestDist := math.MaxFloat64
		for _, st := range stations {
			if st.ID == at.ID || !st.ServesLine(lines[i]) || !st.ServesLine(lines[i+1]) {
				continue
			}
			d := geo.DistanceMeters(at.Lat, at.Lon, st.Lat, st.Lon) + geo.DistanceMeters(st.Lat, st.Lon, b.Lat, b.Lon)
			if d < bestDist {
				via, bestDist = st, d
			}
		}
		if via == nil {
			return nil
		}
		legs = append(legs, mtrLeg(at, via, lines[i]))
		at = via
	}
	return append(legs, mtrLeg(at, b, lines[len(lines)-1]))
}

// busSteps looks for a single direct bus between stops within walking range of
// both ends. Nearer stops are tried first.
func (p *Planner) busSteps(from, to domain.Location, maxWalk float64) []domain.RouteStep {
	const candidateStops = 3

	originStops := p.catalog.NearestBusStops(from.Lat, from.Lon, candidateStops)
	destStops := p.catalog.NearestBusStops(to.Lat, to.Lon, candidateStops)

	for _, src := range originStops {
		if src.DistanceMeters > maxWalk {
			break
		}
		for _, dst := range destStops {
			if dst.DistanceMeters > maxWalk {
				break
			}
			if src.Stop.ID == dst.Stop.ID {
				continue
			}
			for _, route := range p.catalog.BusRoutesForStop(src.Stop.ID) {
				boardIdx := route.StopIndex(src.Stop.ID)
				alightIdx := route.StopIndex(dst.Stop.ID)
				if boardIdx < 0 || alightIdx <= boardIdx {
					continue
				}
				return []domain.RouteStep{
					walkStep(from.Name, src.Stop.Name, src.DistanceMeters),
					busLeg(route, boardIdx, alightIdx),
					walkStep(dst.Stop.Name, to.Name, dst.DistanceMeters),
				}
			}
		}
	}
	return nil
}

// withMinibusFeeders swaps long access walks on an MTR journey for minibus rides
func withMinibusFeeders(steps []domain.RouteStep) ([]domain.RouteStep, bool) {
	result := make([]domain.RouteStep, len(steps))
	copy(result, steps)

	replaced := false
	for i, s := range result {
		if s.Mode != domain.ModeWalking || s.DistanceMeters <= feederWalkMeters {
			continue
		}
		result[i] = domain.RouteStep{
			Mode:            domain.ModeMinibus,
			Instruction:     fmt.Sprintf("Take a green minibus from %s to %s", s.From, s.To),
			From:            s.From,
			To:              s.To,
			DurationMinutes: geo.TravelMinutes(float64(s.DistanceMeters), minibusKmh) + minibusWaitMinutes,
			DistanceMeters:  s.DistanceMeters,
		}
		replaced = true
	}
	return result, replaced
}

func walkStep(from, to string, straightMeters float64) domain.RouteStep {
	meters := straightMeters * detourFactor
	return domain.RouteStep{
		Mode:            domain.ModeWalking,
		Instruction:     fmt.Sprintf("Walk to %s", to),
		From:            from,
		To:              to,
		DurationMinutes: geo.TravelMinutes(meters, walkKmh),
		DistanceMeters:  int(math.Round(meters)),
	}
}

func mtrLeg(from, to *domain.MTRStation, line string) domain.RouteStep {
	meters := geo.DistanceMeters(from.Lat, from.Lon, to.Lat, to.Lon)
	stops := int(math.Round(meters / mtrMetersPerStop))
	if stops < 1 {
		stops = 1
	}

	return domain.RouteStep{
		Mode:            domain.ModeMTR,
		Instruction:     fmt.Sprintf("Take the %s from %s to %s", catalog.LineName(line), from.Name, to.Name),
		From:            from.Name,
		To:              to.Name,
		Line:            line,
		DurationMinutes: geo.TravelMinutes(meters, mtrKmh) + mtrWaitMinutes,
		DistanceMeters:  int(math.Round(meters)),
		Stops:           stops,
	}
}

func busLeg(route *domain.BusRoute, boardIdx, alightIdx int) domain.RouteStep {
	var meters float64
	for i := boardIdx; i < alightIdx; i++ {
		a, b := route.Stops[i], route.Stops[i+1]
		meters += geo.DistanceMeters(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	meters *= detourFactor

	board, alight := route.Stops[boardIdx], route.Stops[alightIdx]
	return domain.RouteStep{
		Mode:            domain.ModeBus,
		Instruction:     fmt.Sprintf("Take %s bus %s towards %s, alight at %s", route.Operator, route.Number, route.Destination, alight.Name),
		From:            board.Name,
		To:              alight.Name,
		Line:            route.Number,
		DurationMinutes: geo.TravelMinutes(meters, busKmh) + busWaitMinutes,
		DistanceMeters:  int(math.Round(meters)),
		Stops:           alightIdx - boardIdx,
	}
}

func dropEmptyWalks(steps []domain.RouteStep) []domain.RouteStep {
	result := steps[:0]
	for _, s := range steps {
		if s.Mode == domain.ModeWalking && s.DistanceMeters == 0 {
			continue
		}
		result = append(result, s)
	}
	return result
}

func commonLine(a, b *domain.MTRStation) string {
	for _, l := range a.Lines {
		if b.ServesLine(l) {
			return l
		}
	}
	return ""
}
