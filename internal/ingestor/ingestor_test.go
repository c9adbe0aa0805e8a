package ingestor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/domain"
	"hktravel/internal/store"
)

type fakeSource struct {
	mu        sync.Mutex
	arrivals  map[string][]domain.RealTimeArrival
	statuses  []domain.ServiceStatus
	statusErr error
	calls     []string
}

func (f *fakeSource) Arrivals(_ context.Context, stopID string) ([]domain.RealTimeArrival, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stopID)
	a, ok := f.arrivals[stopID]
	if !ok {
		return nil, errors.New("unknown stop")
	}
	return a, nil
}

func (f *fakeSource) ServiceStatus(context.Context) ([]domain.ServiceStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.statuses, nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	deltas   [][]domain.ArrivalDelta
	statuses [][]domain.ServiceStatus
}

func (b *fakeBroadcaster) Broadcast(d []domain.ArrivalDelta) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(d) > 0 {
		b.deltas = append(b.deltas, d)
	}
}

func (b *fakeBroadcaster) BroadcastStatus(s []domain.ServiceStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, s)
}

type staticStops []string

func (s staticStops) SubscribedStops() []string { return s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSource() *fakeSource {
	return &fakeSource{
		arrivals: map[string][]domain.RealTimeArrival{
			"MOK": {{StopID: "MOK", Line: "TWL", Destination: "Central", MinutesAway: 2}},
			"TST": {{StopID: "TST", Line: "TWL", Destination: "Tsuen Wan", MinutesAway: 4}},
		},
		statuses: []domain.ServiceStatus{{Line: "TWL", Mode: domain.ModeMTR, Status: domain.ServiceNormal}},
	}
}

func TestPollUpdatesStoreAndBroadcasts(t *testing.T) {
	src := testSource()
	st := store.New(time.Minute)
	b := &fakeBroadcaster{}

	ing := New(src, st, b, staticStops{"tst", "MOK"}, Options{DefaultStops: []string{"mok"}}, discardLogger())
	assert.False(t, ing.IsReady())

	ing.Poll(context.Background())

	assert.True(t, ing.IsReady())
	assert.ElementsMatch(t, []string{"MOK", "TST"}, src.calls)
	assert.Equal(t, 2, st.Count())

	require.Len(t, b.deltas, 1)
	require.Len(t, b.deltas[0], 2)
	assert.Equal(t, "MOK", b.deltas[0][0].StopID)
	assert.Equal(t, "TST", b.deltas[0][1].StopID)

	require.Len(t, b.statuses, 1)
	assert.Len(t, st.Statuses(), 1)
}

func TestPollSkipsUnchanged(t *testing.T) {
	src := testSource()
	st := store.New(time.Minute)
	b := &fakeBroadcaster{}
	ing := New(src, st, b, nil, Options{DefaultStops: []string{"MOK"}}, discardLogger())

	ing.Poll(context.Background())
	ing.Poll(context.Background())

	assert.Len(t, b.deltas, 1)
	assert.Len(t, b.statuses, 1)
}

func TestPollToleratesFailures(t *testing.T) {
	src := testSource()
	src.statusErr = errors.New("status down")
	st := store.New(time.Minute)
	ing := New(src, st, nil, nil, Options{DefaultStops: []string{"MOK", "GHOST"}}, discardLogger())

	ing.Poll(context.Background())

	assert.True(t, ing.IsReady())
	assert.Equal(t, 1, st.Count())
}

func TestNotReadyWhenEverythingFails(t *testing.T) {
	src := testSource()
	src.statusErr = errors.New("status down")
	ing := New(src, store.New(time.Minute), nil, nil, Options{DefaultStops: []string{"GHOST"}}, discardLogger())

	ing.Poll(context.Background())
	assert.False(t, ing.IsReady())
}

func TestRunStopsOnCancel(t *testing.T) {
	src := testSource()
	ing := New(src, store.New(time.Minute), nil, nil, Options{PollInterval: 10 * time.Millisecond, DefaultStops: []string{"MOK"}}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ing.Run(ctx)
		close(done)
	}()

	require.Eventually(t, ing.IsReady, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
