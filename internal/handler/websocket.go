package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/hub"
	"hktravel/internal/store"
)

const maxStopsPerClient = 50

type WSHandler struct {
	hub            *hub.Hub
	store          *store.ArrivalStore
	catalog        *catalog.Store
	originPatterns []string
	logger         *slog.Logger
}

func NewWSHandler(h *hub.Hub, s *store.ArrivalStore, c *catalog.Store, originPatterns []string, logger *slog.Logger) *WSHandler {
	if len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return &WSHandler{
		hub:            h,
		store:          s,
		catalog:        c,
		originPatterns: originPatterns,
		logger:         logger.With("component", "websocket"),
	}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SubscribePayload struct {
	StopIDs []string `json:"stopIds"`
}

type SnapshotPayload struct {
	Boards   []*domain.ArrivalBoard `json:"boards"`
	Statuses []domain.ServiceStatus `json:"statuses,omitempty"`
	Unknown  []string               `json:"unknown,omitempty"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), 256)
	h.hub.Register(client)
	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		ServerStats.IncWSMessagesIn()

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			h.sendError(client, "invalid message format")
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(client, "invalid subscribe payload")
				continue
			}
			known, unknown := h.partitionStops(payload.StopIDs)
			if len(client.Stops())+len(known) > maxStopsPerClient {
				h.sendError(client, "too many subscriptions")
				continue
			}
			if len(known) > 0 {
				h.hub.Subscribe(client, known)
			}
			h.sendSnapshot(client, known, unknown)

		case "unsubscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(client, "invalid unsubscribe payload")
				continue
			}
			if len(payload.StopIDs) > 0 {
				h.hub.Unsubscribe(client, payload.StopIDs)
			}

		case "ping":
			h.send(client, hub.Message{Type: hub.TypePong})

		default:
			h.sendError(client, "unknown message type: "+msg.Type)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
			ServerStats.IncWSMessagesOut()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) partitionStops(ids []string) (known, unknown []string) {
	for _, id := range ids {
		if h.catalog.HasStop(id) {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}

// sendSnapshot sends the stored boards for the newly subscribed stops. Stops
// not yet polled appear once the ingestor picks them up.
func (h *WSHandler) sendSnapshot(client *hub.Client, stopIDs, unknown []string) {
	boards := h.store.SnapshotForStops(stopIDs)
	if boards == nil {
		boards = []*domain.ArrivalBoard{}
	}
	h.send(client, hub.Message{
		Type: hub.TypeSnapshot,
		Payload: SnapshotPayload{
			Boards:   boards,
			Statuses: h.store.Statuses(),
			Unknown:  unknown,
		},
	})
}

func (h *WSHandler) sendError(client *hub.Client, message string) {
	h.send(client, hub.Message{Type: hub.TypeError, Payload: errorResponse{Error: message}})
}

func (h *WSHandler) send(client *hub.Client, msg hub.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full", "client_id", client.ID, "type", msg.Type)
	}
}
