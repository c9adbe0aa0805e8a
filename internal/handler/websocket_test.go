package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hktravel/internal/domain"
	"hktravel/internal/hub"
)

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, env *testEnv) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func writeWS(t *testing.T, ctx context.Context, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(msg)))
}

func readWS(t *testing.T, ctx context.Context, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var env wsEnvelope
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env
}

func TestWebSocketSubscribeAndStream(t *testing.T) {
	env := newTestEnv(t, envOptions{noHistory: true})
	env.arrivals.Update("MOK", []domain.RealTimeArrival{
		{StopID: "MOK", Line: "TWL", Destination: "Central", Platform: "1", MinutesAway: 2, Sequence: 1},
	})
	conn, ctx := dialWS(t, env)

	writeWS(t, ctx, conn, `{"type":"subscribe","payload":{"stopIds":["mok","NOWHERE"]}}`)

	msg := readWS(t, ctx, conn)
	require.Equal(t, hub.TypeSnapshot, msg.Type)
	var snap SnapshotPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	require.Len(t, snap.Boards, 1)
	assert.Equal(t, "MOK", snap.Boards[0].StopID)
	assert.Equal(t, []string{"NOWHERE"}, snap.Unknown)

	writeWS(t, ctx, conn, `{"type":"ping"}`)
	assert.Equal(t, hub.TypePong, readWS(t, ctx, conn).Type)

	env.hub.Broadcast([]domain.ArrivalDelta{
		{Type: domain.DeltaUpdate, StopID: "ADM", Board: &domain.ArrivalBoard{StopID: "ADM"}},
		{Type: domain.DeltaUpdate, StopID: "MOK", Board: &domain.ArrivalBoard{StopID: "MOK", Arrivals: []domain.RealTimeArrival{
			{StopID: "MOK", Line: "TWL", Destination: "Central", MinutesAway: 1, Sequence: 1},
		}}},
	})

	msg = readWS(t, ctx, conn)
	require.Equal(t, hub.TypeArrivals, msg.Type)
	var payload hub.ArrivalsPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.Len(t, payload.Updates, 1, "only subscribed stops are delivered")
	assert.Equal(t, "MOK", payload.Updates[0].StopID)

	writeWS(t, ctx, conn, `{"type":"unsubscribe","payload":{"stopIds":["MOK"]}}`)
	writeWS(t, ctx, conn, `{"type":"teleport"}`)

	msg = readWS(t, ctx, conn)
	require.Equal(t, hub.TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "unknown message type")
	assert.Empty(t, env.hub.SubscribedStops())
}

func TestWebSocketStatusGoesToEveryClient(t *testing.T) {
	env := newTestEnv(t, envOptions{noHistory: true})
	conn, ctx := dialWS(t, env)

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	env.hub.BroadcastStatus([]domain.ServiceStatus{
		{Line: "ISL", Mode: domain.ModeMTR, Status: domain.ServiceDelayed, Message: "Signal fault"},
	})

	msg := readWS(t, ctx, conn)
	require.Equal(t, hub.TypeStatus, msg.Type)
	assert.Contains(t, string(msg.Payload), "Signal fault")
}

func TestWebSocketReceivesBoardsFetchedOverHTTP(t *testing.T) {
	env := newTestEnv(t, envOptions{noHistory: true})
	env.arrivals.Update("MOK", []domain.RealTimeArrival{
		{StopID: "MOK", Line: "TWL", Destination: "Central", Platform: "1", MinutesAway: 30, Sequence: 1},
	})
	conn, ctx := dialWS(t, env)

	writeWS(t, ctx, conn, `{"type":"subscribe","payload":{"stopIds":["MOK"]}}`)
	require.Equal(t, hub.TypeSnapshot, readWS(t, ctx, conn).Type)

	rec := env.do(t, http.MethodGet, "/v1/stops/MOK/arrivals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[ArrivalsResponse](t, rec)

	msg := readWS(t, ctx, conn)
	require.Equal(t, hub.TypeArrivals, msg.Type)
	var payload hub.ArrivalsPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.Len(t, payload.Updates, 1)
	assert.Equal(t, "MOK", payload.Updates[0].StopID)
	require.Len(t, payload.Updates[0].Arrivals, len(fetched.Arrivals))
	for i, a := range fetched.Arrivals {
		assert.Equal(t, a.Line, payload.Updates[0].Arrivals[i].Line)
		assert.Equal(t, a.MinutesAway, payload.Updates[0].Arrivals[i].MinutesAway)
	}

	rec = env.do(t, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, hub.TypeStatus, readWS(t, ctx, conn).Type)
}

func TestWebSocketRejectsMalformedMessages(t *testing.T) {
	env := newTestEnv(t, envOptions{noHistory: true})
	conn, ctx := dialWS(t, env)

	writeWS(t, ctx, conn, `not json`)
	msg := readWS(t, ctx, conn)
	assert.Equal(t, hub.TypeError, msg.Type)

	writeWS(t, ctx, conn, `{"type":"subscribe","payload":{"stopIds":"MOK"}}`)
	msg = readWS(t, ctx, conn)
	assert.Equal(t, hub.TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "invalid subscribe payload")
}
