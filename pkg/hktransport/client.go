package hktransport

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/planner"
)

// baseMinutes are the canned headways every arrival board starts from
var baseMinutes = []int{2, 5, 9, 14}

const (
	jitterMin = -1
	jitterMax = 2
)

type Options struct {
	// Latency is added to every call to mimic a round trip
	Latency time.Duration
	// RatePerMinute caps calls per minute; zero or less disables the limit
	RatePerMinute int
	// Seed for arrival jitter; zero seeds from the clock
	Seed int64
	Now  func() time.Time
}

// Client is an in-process stand-in for the Hong Kong transport data API
type Client struct {
	catalog *catalog.Store
	planner *planner.Planner
	latency time.Duration
	limiter *rate.Limiter
	rpm     int
	now     func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	statusMu  sync.RWMutex
	overrides map[string]domain.ServiceStatus
}

func New(store *catalog.Store, p *planner.Planner, opts Options) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		rpm:       opts.RatePerMinute,
		catalog:   store,
		planner:   p,
		latency:   opts.Latency,
		limiter:   limiter,
		now:       now,
		rnd:       rand.New(rand.NewSource(seed)),
		overrides: make(map[string]domain.ServiceStatus),
	}
}

// RetryAfter is how long a rate limited caller should wait before retrying
func (c *Client) RetryAfter() time.Duration {
	if c.rpm <= 0 {
		return time.Second
	}
	return time.Minute / time.Duration(c.rpm)
}

// roundTrip enforces the rate limit and simulated latency for one call
func (c *Client) roundTrip(ctx context.Context, op string) error {
	if !c.limiter.Allow() {
		return newError(KindRateLimited, op, nil)
	}

	if err := ctx.Err(); err != nil {
		return newError(KindNetwork, op, err)
	}
	if c.latency <= 0 {
		return nil
	}

	timer := time.NewTimer(c.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return newError(KindNetwork, op, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (c *Client) Stations(ctx context.Context) ([]*domain.MTRStation, error) {
	if err := c.roundTrip(ctx, "stations"); err != nil {
		return nil, err
	}
	return c.catalog.AllStations(), nil
}

func (c *Client) Station(ctx context.Context, id string) (*domain.MTRStation, error) {
	if err := c.roundTrip(ctx, "station"); err != nil {
		return nil, err
	}
	st, ok := c.catalog.GetStation(id)
	if !ok {
		return nil, notFound("station", "station", id)
	}
	return st, nil
}

func (c *Client) BusRoutes(ctx context.Context) ([]*domain.BusRoute, error) {
	if err := c.roundTrip(ctx, "bus routes"); err != nil {
		return nil, err
	}
	return c.catalog.AllBusRoutes(), nil
}

func (c *Client) BusRoute(ctx context.Context, id string) (*domain.BusRoute, error) {
	if err := c.roundTrip(ctx, "bus route"); err != nil {
		return nil, err
	}
	r, ok := c.catalog.GetBusRoute(id)
	if !ok {
		r, ok = c.catalog.GetBusRouteByNumber(id)
	}
	if !ok {
		return nil, notFound("bus route", "bus route", id)
	}
	return r, nil
}

// Arrivals returns the next predicted arrivals at an MTR station or bus stop,
// soonest first. Predictions are canned headways with random jitter.
func (c *Client) Arrivals(ctx context.Context, stopID string) ([]domain.RealTimeArrival, error) {
	if err := c.roundTrip(ctx, "arrivals"); err != nil {
		return nil, err
	}

	var groups []arrivalGroup
	if st, ok := c.catalog.GetStation(stopID); ok {
		groups = stationGroups(st)
	} else if stop, ok := c.catalog.GetBusStop(stopID); ok {
		for _, r := range c.catalog.BusRoutesForStop(stop.ID) {
			idx := r.StopIndex(stop.ID)
			if idx == len(r.Stops)-1 {
				continue
			}
			groups = append(groups, arrivalGroup{line: r.Number, destination: r.Destination})
		}
	} else {
		return nil, notFound("arrivals", "stop", stopID)
	}

	now := c.now()
	id := strings.ToUpper(stopID)
	result := make([]domain.RealTimeArrival, 0, len(groups)*len(baseMinutes))

	for _, g := range groups {
		minutes := c.jittered()
		for i, m := range minutes {
			result = append(result, domain.RealTimeArrival{
				StopID:      id,
				Line:        g.line,
				Destination: g.destination,
				Platform:    g.platform,
				ETA:         now.Add(time.Duration(m) * time.Minute),
				MinutesAway: m,
				Sequence:    i + 1,
			})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].MinutesAway != result[j].MinutesAway {
			return result[i].MinutesAway < result[j].MinutesAway
		}
		return result[i].Line < result[j].Line
	})

	return result, nil
}

type arrivalGroup struct {
	line        string
	destination string
	platform    string
}

// stationGroups yields one group per line direction, skipping the direction
// that terminates at the station itself.
func stationGroups(st *domain.MTRStation) []arrivalGroup {
	var groups []arrivalGroup
	platform := 1
	for _, line := range st.Lines {
		termini, ok := catalog.LineTermini[line]
		if !ok {
			continue
		}
		for _, terminus := range termini {
			if terminus == st.Name {
				continue
			}
			groups = append(groups, arrivalGroup{
				line:        line,
				destination: terminus,
				platform:    strconv.Itoa(platform),
			})
			platform++
		}
	}
	return groups
}

// jittered returns the canned headways each shifted by [-1, +2] minutes,
// floored at zero and kept in ascending order.
func (c *Client) jittered() []int {
	c.rndMu.Lock()
	defer c.rndMu.Unlock()

	out := make([]int, len(baseMinutes))
	for i, m := range baseMinutes {
		v := m + jitterMin + c.rnd.Intn(jitterMax-jitterMin+1)
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	sort.Ints(out)
	return out
}

// ServiceStatus reports the condition of every MTR line. Lines are normal
// unless an incident has been set with SetServiceStatus.
func (c *Client) ServiceStatus(ctx context.Context) ([]domain.ServiceStatus, error) {
	if err := c.roundTrip(ctx, "service status"); err != nil {
		return nil, err
	}

	c.statusMu.RLock()
	defer c.statusMu.RUnlock()

	lines := make([]string, 0, len(catalog.LineNames))
	for code := range catalog.LineNames {
		lines = append(lines, code)
	}
	sort.Strings(lines)

	now := c.now()
	result := make([]domain.ServiceStatus, 0, len(lines))
	for _, line := range lines {
		if s, ok := c.overrides[line]; ok {
			result = append(result, s)
			continue
		}
		result = append(result, domain.ServiceStatus{
			Line:      line,
			Mode:      domain.ModeMTR,
			Status:    domain.ServiceNormal,
			Message:   "Good service",
			UpdatedAt: now,
		})
	}
	return result, nil
}

// SetServiceStatus records an incident on a line. Setting ServiceNormal clears it.
func (c *Client) SetServiceStatus(line string, state domain.ServiceState, message string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	line = strings.ToUpper(line)
	if state == domain.ServiceNormal {
		delete(c.overrides, line)
		return
	}
	c.overrides[line] = domain.ServiceStatus{
		Line:      line,
		Mode:      domain.ModeMTR,
		Status:    state,
		Message:   message,
		UpdatedAt: c.now(),
	}
}

// PlanRoute runs the route planner behind the simulated network boundary
func (c *Client) PlanRoute(ctx context.Context, req planner.PlanRequest) ([]*domain.TravelRoute, error) {
	if err := c.roundTrip(ctx, "plan route"); err != nil {
		return nil, err
	}
	return c.planner.Plan(ctx, req)
}
