package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/domain"
)

func TestSampleDataHasUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, st := range SampleStations() {
		assert.False(t, seen[st.ID], "duplicate station %s", st.ID)
		seen[st.ID] = true
		assert.NotEmpty(t, st.Lines, "station %s has no lines", st.ID)
	}

	seen = make(map[string]bool)
	for _, l := range SampleLocations() {
		assert.False(t, seen[l.ID], "duplicate location %s", l.ID)
		seen[l.ID] = true
	}

	seen = make(map[string]bool)
	for _, r := range SampleBusRoutes() {
		assert.False(t, seen[r.ID], "duplicate bus route %s", r.ID)
		seen[r.ID] = true
		assert.GreaterOrEqual(t, len(r.Stops), 2, "route %s needs at least two stops", r.ID)
	}
}

func TestSearchLocations(t *testing.T) {
	s := NewSampleStore()

	t.Run("empty query returns everything sorted by name", func(t *testing.T) {
		all := s.SearchLocations("", 0)
		require.Len(t, all, len(SampleLocations()))
		for i := 1; i < len(all); i++ {
			assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
		}
	})

	t.Run("case insensitive name match", func(t *testing.T) {
		res := s.SearchLocations("PEAK", 0)
		require.Len(t, res, 1)
		assert.Equal(t, "victoria-peak", res[0].ID)
	})

	t.Run("chinese name match", func(t *testing.T) {
		res := s.SearchLocations("海洋公園", 0)
		require.Len(t, res, 1)
		assert.Equal(t, "ocean-park", res[0].ID)
	})

	t.Run("district match with limit", func(t *testing.T) {
		res := s.SearchLocations("southern", 2)
		assert.Len(t, res, 2)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, s.SearchLocations("zzz-nowhere", 0))
	})
}

func TestGetLocationReturnsCopy(t *testing.T) {
	s := NewSampleStore()

	l, ok := s.GetLocation("ifc-mall")
	require.True(t, ok)
	l.Name = "changed"

	again, ok := s.GetLocation("ifc-mall")
	require.True(t, ok)
	assert.Equal(t, "IFC Mall", again.Name)

	_, ok = s.GetLocation("missing")
	assert.False(t, ok)
}

func TestStations(t *testing.T) {
	s := NewSampleStore()

	st, ok := s.GetStation("adm")
	require.True(t, ok)
	assert.Equal(t, "Admiralty", st.Name)
	assert.True(t, st.ServesLine(LineIsland))

	island := s.StationsByLine("isl")
	ids := make([]string, 0, len(island))
	for _, st := range island {
		ids = append(ids, st.ID)
		assert.True(t, st.ServesLine(LineIsland))
	}
	assert.Contains(t, ids, "CEN")
	assert.Contains(t, ids, "CAB")
	assert.NotContains(t, ids, "MOK")

	assert.Empty(t, s.StationsByLine("XXX"))
}

func TestNearestStations(t *testing.T) {
	s := NewSampleStore()

	nearest := s.NearestStations(22.3193, 114.1694, 3)
	require.Len(t, nearest, 3)
	assert.Equal(t, "MOK", nearest[0].Station.ID)
	assert.Less(t, nearest[0].DistanceMeters, 10.0)
	assert.LessOrEqual(t, nearest[0].DistanceMeters, nearest[1].DistanceMeters)
	assert.LessOrEqual(t, nearest[1].DistanceMeters, nearest[2].DistanceMeters)
}

func TestBusRoutes(t *testing.T) {
	s := NewSampleStore()

	r, ok := s.GetBusRouteByNumber("a21")
	require.True(t, ok)
	assert.Equal(t, "CTB-A21", r.ID)
	assert.Equal(t, domain.OperatorCTB, r.Operator)

	routes := s.BusRoutesForStop("STAR-FERRY")
	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"KMB-1A", "KMB-2", "KMB-5C"}, ids)

	stop, ok := s.GetBusStop("exchange-sq")
	require.True(t, ok)
	assert.Equal(t, "Central (Exchange Square)", stop.Name)

	nearest := s.NearestBusStops(22.2366, 114.1967, 1)
	require.Len(t, nearest, 1)
	assert.Equal(t, "REPULSE-BAY", nearest[0].Stop.ID)
}

func TestHasStopAndStats(t *testing.T) {
	s := NewSampleStore()

	assert.True(t, s.HasStop("TST"))
	assert.True(t, s.HasStop("star-ferry"))
	assert.False(t, s.HasStop("NOPE"))

	stats := s.Stats()
	assert.True(t, stats.IsLoaded)
	assert.Equal(t, len(SampleStations()), stats.StationsCount)
	assert.Equal(t, len(SampleBusRoutes()), stats.BusRoutesCount)
	assert.Equal(t, 9, stats.LinesCount)

	assert.False(t, NewStore().Stats().IsLoaded)
}

func TestReplaceBusRoutesKeepsStations(t *testing.T) {
	s := NewSampleStore()
	isl := s.StationsByLine(LineIsland)

	s.ReplaceBusRoutes([]*domain.BusRoute{{
		ID: "CTB-15", Number: "15", Operator: domain.OperatorCTB,
		Stops: []domain.BusStop{
			{ID: "central-pier", Name: "Central Pier"},
			{ID: "the-peak", Name: "The Peak"},
		},
	}})

	assert.Len(t, s.AllBusRoutes(), 1)
	assert.True(t, s.HasStop("THE-PEAK"))
	assert.False(t, s.HasStop("STAR-FERRY"))
	assert.Len(t, s.BusRoutesForStop("central-pier"), 1)
	assert.Equal(t, isl, s.StationsByLine(LineIsland), "line order is untouched")
	assert.True(t, s.HasStop("ADM"))
}
