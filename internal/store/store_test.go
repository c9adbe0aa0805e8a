package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/domain"
)

func newTestStore(staleAfter time.Duration) (*ArrivalStore, *time.Time) {
	s := New(staleAfter)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func arrivals(line, dest string, minutes ...int) []domain.RealTimeArrival {
	out := make([]domain.RealTimeArrival, 0, len(minutes))
	for i, m := range minutes {
		out = append(out, domain.RealTimeArrival{
			Line:        line,
			Destination: dest,
			MinutesAway: m,
			Sequence:    i + 1,
		})
	}
	return out
}

func TestUpdateDetectsChanges(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	delta, changed := s.Update("mok", arrivals("TWL", "Central", 2, 5))
	require.True(t, changed)
	assert.Equal(t, domain.DeltaUpdate, delta.Type)
	assert.Equal(t, "MOK", delta.StopID)
	require.NotNil(t, delta.Board)
	assert.Len(t, delta.Board.Arrivals, 2)

	_, changed = s.Update("MOK", arrivals("TWL", "Central", 2, 5))
	assert.False(t, changed)

	_, changed = s.Update("MOK", arrivals("TWL", "Central", 1, 5))
	assert.True(t, changed)

	_, changed = s.Update("MOK", arrivals("TWL", "Tsuen Wan", 1, 5))
	assert.True(t, changed)

	assert.Equal(t, 1, s.Count())
}

func TestUnchangedUpdateRefreshesTimestamp(t *testing.T) {
	s, now := newTestStore(time.Minute)

	s.Update("TST", arrivals("TWL", "Central", 3))
	*now = now.Add(30 * time.Second)
	s.Update("TST", arrivals("TWL", "Central", 3))

	b, ok := s.Get("tst")
	require.True(t, ok)
	assert.Equal(t, *now, b.UpdatedAt)
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.Update("TST", arrivals("TWL", "Central", 3))

	b, ok := s.Get("TST")
	require.True(t, ok)
	b.Arrivals[0].MinutesAway = 99

	again, _ := s.Get("TST")
	assert.Equal(t, 3, again.Arrivals[0].MinutesAway)

	_, ok = s.Get("NOPE")
	assert.False(t, ok)
}

func TestPruneStale(t *testing.T) {
	s, now := newTestStore(time.Minute)

	s.Update("TST", arrivals("TWL", "Central", 3))
	*now = now.Add(45 * time.Second)
	s.Update("MOK", arrivals("KTL", "Whampoa", 4))
	*now = now.Add(30 * time.Second)

	deltas := s.PruneStale()
	require.Len(t, deltas, 1)
	assert.Equal(t, domain.DeltaRemove, deltas[0].Type)
	assert.Equal(t, "TST", deltas[0].StopID)
	assert.Nil(t, deltas[0].Board)

	assert.Equal(t, 1, s.Count())
	assert.Empty(t, s.List(ListOptions{Line: "TWL"}))
}

func TestListByLine(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	s.Update("MOK", append(arrivals("TWL", "Central", 2), arrivals("KTL", "Whampoa", 3)...))
	s.Update("TST", arrivals("TWL", "Tsuen Wan", 4))
	s.Update("KWT", arrivals("KTL", "Tiu Keng Leng", 1))

	ids := func(boards []*domain.ArrivalBoard) []string {
		out := make([]string, 0, len(boards))
		for _, b := range boards {
			out = append(out, b.StopID)
		}
		return out
	}

	assert.Equal(t, []string{"MOK", "TST"}, ids(s.List(ListOptions{Line: "twl"})))
	assert.Equal(t, []string{"KWT", "MOK"}, ids(s.List(ListOptions{Line: "KTL"})))
	assert.Equal(t, []string{"KWT", "MOK", "TST"}, ids(s.List(ListOptions{})))

	// MOK drops KTL
	s.Update("MOK", arrivals("TWL", "Central", 2))
	assert.Equal(t, []string{"KWT"}, ids(s.List(ListOptions{Line: "KTL"})))
}

func TestSnapshotForStops(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.Update("MOK", arrivals("TWL", "Central", 2))
	s.Update("TST", arrivals("TWL", "Central", 4))

	boards := s.SnapshotForStops([]string{"tst", "TST", "UNKNOWN"})
	require.Len(t, boards, 1)
	assert.Equal(t, "TST", boards[0].StopID)
}

func TestSetStatuses(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	normal := []domain.ServiceStatus{
		{Line: "TWL", Mode: domain.ModeMTR, Status: domain.ServiceNormal},
		{Line: "ISL", Mode: domain.ModeMTR, Status: domain.ServiceNormal},
	}
	assert.True(t, s.SetStatuses(normal))
	assert.False(t, s.SetStatuses(normal))

	delayed := []domain.ServiceStatus{
		{Line: "TWL", Mode: domain.ModeMTR, Status: domain.ServiceDelayed, Message: "Signal fault"},
		{Line: "ISL", Mode: domain.ModeMTR, Status: domain.ServiceNormal},
	}
	assert.True(t, s.SetStatuses(delayed))

	got := s.Statuses()
	require.Len(t, got, 2)
	assert.Equal(t, "ISL", got[0].Line)
	assert.Equal(t, domain.ServiceDelayed, got[1].Status)
	assert.False(t, s.StatusUpdatedAt().IsZero())
}
