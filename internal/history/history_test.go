package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	repo, err := Open(context.Background(), path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewEntryUsesBestRoute(t *testing.T) {
	origin := domain.Location{ID: "ifc-mall", Name: "IFC Mall"}
	dest := domain.Location{ID: "victoria-peak", Name: "Victoria Peak"}
	routes := []*domain.TravelRoute{
		{TotalDurationMinutes: 25, TotalFare: 9.8, Summary: "Bus"},
		{TotalDurationMinutes: 18, TotalFare: 60, Summary: "Taxi"},
	}

	e := NewEntry(origin, dest, "cheapest", routes)
	assert.Equal(t, "ifc-mall", e.OriginID)
	assert.Equal(t, "Victoria Peak", e.DestinationName)
	assert.Equal(t, 2, e.RouteCount)
	assert.Equal(t, 25, e.BestDurationMinutes)
	assert.InDelta(t, 9.8, e.BestFare, 1e-9)
	assert.Equal(t, "Bus", e.BestSummary)

	empty := NewEntry(origin, dest, "fastest", nil)
	assert.Zero(t, empty.RouteCount)
	assert.Zero(t, empty.BestFare)
}

func TestRecordAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Record(ctx, Entry{
		OriginID:            "star-ferry-tst",
		OriginName:          "Star Ferry Pier (Tsim Sha Tsui)",
		DestinationID:       "ladies-market",
		DestinationName:     "Ladies' Market",
		Preference:          "fastest",
		RouteCount:          3,
		BestDurationMinutes: 14,
		BestFare:            12.5,
		BestSummary:         "MTR",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.OriginName, got.OriginName)
	assert.Equal(t, saved.BestSummary, got.BestSummary)
	assert.InDelta(t, 12.5, got.BestFare, 1e-9)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentNewestFirst(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := repo.Record(ctx, Entry{
			ID:         id,
			OriginID:   "o",
			Preference: "fastest",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	entries, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClear(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, Entry{OriginID: "o", Preference: "fastest"})
		require.NoError(t, err)
	}

	n, err := repo.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
