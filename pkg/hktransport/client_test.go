package hktransport

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/planner"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	store := catalog.NewSampleStore()
	p := planner.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return New(store, p, opts)
}

func TestArrivalsAtStation(t *testing.T) {
	c := newTestClient(t, Options{})

	arrivals, err := c.Arrivals(context.Background(), "mok")
	require.NoError(t, err)

	// Mong Kok: TWL both directions and KTL both directions, four trains each
	require.Len(t, arrivals, 16)

	assert.True(t, sort.SliceIsSorted(arrivals, func(i, j int) bool {
		return arrivals[i].MinutesAway < arrivals[j].MinutesAway
	}))

	dests := make(map[string]bool)
	for _, a := range arrivals {
		assert.Equal(t, "MOK", a.StopID)
		assert.GreaterOrEqual(t, a.MinutesAway, 0)
		assert.LessOrEqual(t, a.MinutesAway, 16)
		assert.Equal(t, fixedNow.Add(time.Duration(a.MinutesAway)*time.Minute), a.ETA)
		assert.NotEmpty(t, a.Platform)
		dests[a.Line+" "+a.Destination] = true
	}
	assert.Equal(t, map[string]bool{
		"TWL Central":       true,
		"TWL Tsuen Wan":     true,
		"KTL Whampoa":       true,
		"KTL Tiu Keng Leng": true,
	}, dests)
}

func TestArrivalsJitterStaysInRange(t *testing.T) {
	c := newTestClient(t, Options{Seed: 7})

	for round := 0; round < 50; round++ {
		minutes := c.jittered()
		require.Len(t, minutes, len(baseMinutes))
		assert.True(t, sort.IntsAreSorted(minutes))
		// each base value moves at most one down or two up
		for i, base := range baseMinutes {
			assert.GreaterOrEqual(t, minutes[i], base-1)
			assert.GreaterOrEqual(t, minutes[i], 0)
			assert.LessOrEqual(t, minutes[i], base+2)
		}
	}
}

func TestArrivalsSkipsOwnTerminus(t *testing.T) {
	c := newTestClient(t, Options{})

	arrivals, err := c.Arrivals(context.Background(), "TSW")
	require.NoError(t, err)
	require.Len(t, arrivals, 4)
	for _, a := range arrivals {
		assert.Equal(t, "Central", a.Destination)
	}
}

func TestArrivalsAtBusStop(t *testing.T) {
	c := newTestClient(t, Options{})

	arrivals, err := c.Arrivals(context.Background(), "STAR-FERRY")
	require.NoError(t, err)
	require.Len(t, arrivals, 12)

	lines := make(map[string]string)
	for _, a := range arrivals {
		lines[a.Line] = a.Destination
		assert.Empty(t, a.Platform)
	}
	assert.Equal(t, map[string]string{
		"1A": "Sau Mau Ping (Central)",
		"2":  "So Uk",
		"5C": "Tsz Wan Shan",
	}, lines)
}

func TestArrivalsSequencePerLine(t *testing.T) {
	c := newTestClient(t, Options{})

	arrivals, err := c.Arrivals(context.Background(), "STAR-FERRY")
	require.NoError(t, err)

	seqs := make(map[string][]int)
	for _, a := range arrivals {
		seqs[a.Line] = append(seqs[a.Line], a.Sequence)
	}
	for line, s := range seqs {
		sort.Ints(s)
		assert.Equal(t, []int{1, 2, 3, 4}, s, line)
	}
}

func TestArrivalsUnknownStop(t *testing.T) {
	c := newTestClient(t, Options{})

	_, err := c.Arrivals(context.Background(), "NOWHERE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatencyHonoursContext(t *testing.T) {
	c := newTestClient(t, Options{Latency: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Stations(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLatencyDelaysResponse(t *testing.T) {
	c := newTestClient(t, Options{Latency: 20 * time.Millisecond})

	start := time.Now()
	stations, err := c.Stations(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, stations)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, Options{RatePerMinute: 2})

	ctx := context.Background()
	_, err := c.BusRoutes(ctx)
	require.NoError(t, err)
	_, err = c.BusRoutes(ctx)
	require.NoError(t, err)

	_, err = c.BusRoutes(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestStationAndBusRouteLookup(t *testing.T) {
	c := newTestClient(t, Options{})
	ctx := context.Background()

	st, err := c.Station(ctx, "tst")
	require.NoError(t, err)
	assert.Equal(t, "Tsim Sha Tsui", st.Name)

	_, err = c.Station(ctx, "XXX")
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := c.BusRoute(ctx, "CTB-15")
	require.NoError(t, err)
	assert.Equal(t, "The Peak", r.Destination)

	r, err = c.BusRoute(ctx, "A21")
	require.NoError(t, err)
	assert.Equal(t, "CTB-A21", r.ID)

	_, err = c.BusRoute(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceStatus(t *testing.T) {
	c := newTestClient(t, Options{})
	ctx := context.Background()

	statuses, err := c.ServiceStatus(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, len(catalog.LineNames))
	for _, s := range statuses {
		assert.Equal(t, domain.ServiceNormal, s.Status)
		assert.Equal(t, domain.ModeMTR, s.Mode)
	}

	c.SetServiceStatus("twl", domain.ServiceDelayed, "Signal fault at Prince Edward")
	statuses, err = c.ServiceStatus(ctx)
	require.NoError(t, err)

	var twl domain.ServiceStatus
	for _, s := range statuses {
		if s.Line == catalog.LineTsuenWan {
			twl = s
		}
	}
	assert.Equal(t, domain.ServiceDelayed, twl.Status)
	assert.Equal(t, "Signal fault at Prince Edward", twl.Message)

	c.SetServiceStatus("TWL", domain.ServiceNormal, "")
	statuses, err = c.ServiceStatus(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.Equal(t, domain.ServiceNormal, s.Status)
	}
}

func TestPlanRoute(t *testing.T) {
	c := newTestClient(t, Options{})
	store := catalog.NewSampleStore()

	from, ok := store.GetLocation("star-ferry-tst")
	require.True(t, ok)
	to, ok := store.GetLocation("ladies-market")
	require.True(t, ok)

	routes, err := c.PlanRoute(context.Background(), planner.PlanRequest{
		Origin:      *from,
		Destination: *to,
		Departure:   fixedNow,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, routes)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, newTestClient(t, Options{RatePerMinute: 30}).RetryAfter())
	assert.Equal(t, time.Second, newTestClient(t, Options{}).RetryAfter())
}
