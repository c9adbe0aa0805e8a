package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func registered(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	h.Register(c)
	h.mu.RLock()
	_, ok := h.clients[c]
	h.mu.RUnlock()
	require.True(t, ok)
}

func receive(t *testing.T, c *Client) map[string]json.RawMessage {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeNormalizesStopIDs(t *testing.T) {
	h := startHub(t)
	c := NewClient("a", 8)
	registered(t, h, c)

	h.Subscribe(c, []string{" mok ", "TST", ""})
	assert.True(t, c.HasStop("MOK"))
	assert.True(t, c.HasStop("tst"))

	stops := h.SubscribedStops()
	sort.Strings(stops)
	assert.Equal(t, []string{"MOK", "TST"}, stops)

	h.Unsubscribe(c, []string{"mok"})
	assert.Equal(t, []string{"TST"}, h.SubscribedStops())
}

func TestBroadcastOnlyReachesSubscribers(t *testing.T) {
	h := startHub(t)
	mok := NewClient("mok", 8)
	tst := NewClient("tst", 8)
	registered(t, h, mok)
	registered(t, h, tst)
	h.Subscribe(mok, []string{"MOK"})
	h.Subscribe(tst, []string{"TST"})

	h.Broadcast([]domain.ArrivalDelta{{
		Type:   domain.DeltaUpdate,
		StopID: "MOK",
		Board:  &domain.ArrivalBoard{StopID: "MOK", Arrivals: []domain.RealTimeArrival{{Line: "TWL", MinutesAway: 2}}},
	}})

	msg := receive(t, mok)
	assert.JSONEq(t, `"arrivals"`, string(msg["type"]))

	var payload ArrivalsPayload
	require.NoError(t, json.Unmarshal(msg["payload"], &payload))
	require.Len(t, payload.Updates, 1)
	assert.Equal(t, "MOK", payload.Updates[0].StopID)

	assertSilent(t, tst)
}

func TestBroadcastRemoves(t *testing.T) {
	h := startHub(t)
	c := NewClient("a", 8)
	registered(t, h, c)
	h.Subscribe(c, []string{"KWT"})

	h.Broadcast([]domain.ArrivalDelta{{Type: domain.DeltaRemove, StopID: "KWT"}})

	msg := receive(t, c)
	var payload ArrivalsPayload
	require.NoError(t, json.Unmarshal(msg["payload"], &payload))
	assert.Equal(t, []string{"KWT"}, payload.Removes)
	assert.Empty(t, payload.Updates)
}

func TestBroadcastStatusReachesEveryone(t *testing.T) {
	h := startHub(t)
	a := NewClient("a", 8)
	b := NewClient("b", 8)
	registered(t, h, a)
	registered(t, h, b)
	h.Subscribe(a, []string{"MOK"})

	h.BroadcastStatus([]domain.ServiceStatus{{Line: "TWL", Status: domain.ServiceDelayed}})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.JSONEq(t, `"status"`, string(msg["type"]))
	}
}

func TestUnregisterClosesSendAndDropsSubscriptions(t *testing.T) {
	h := startHub(t)
	c := NewClient("a", 8)
	registered(t, h, c)
	h.Subscribe(c, []string{"MOK"})

	h.Unregister(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
	assert.Empty(t, h.SubscribedStops())
}

func TestRegisterThenImmediateUnregisterLeavesNothingBehind(t *testing.T) {
	h := startHub(t)

	for i := 0; i < 50; i++ {
		c := NewClient("churn", 8)
		h.Register(c)
		h.Subscribe(c, []string{"MOK", "TST"})
		h.Unregister(c)
	}

	require.Eventually(t, func() bool {
		return h.ClientCount() == 0 && len(h.SubscribedStops()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestUnregisterUnknownClientDropsItsStops(t *testing.T) {
	h := startHub(t)
	c := NewClient("ghost", 8)
	h.Subscribe(c, []string{"KWT"})
	require.Equal(t, []string{"KWT"}, h.SubscribedStops())

	h.Unregister(c)
	require.Eventually(t, func() bool { return len(h.SubscribedStops()) == 0 }, time.Second, 5*time.Millisecond)

	select {
	case _, open := <-c.Send:
		assert.True(t, open, "send channel of an unregistered client stays open")
	default:
	}
}
