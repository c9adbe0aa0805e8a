package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"hktravel/internal/domain"
)

// Message types sent to websocket clients
const (
	TypeSnapshot = "snapshot"
	TypeArrivals = "arrivals"
	TypeStatus   = "status"
	TypePong     = "pong"
	TypeError    = "error"
)

type Client struct {
	ID    string
	Send  chan []byte
	stops map[string]struct{}
	mu    sync.RWMutex
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:    id,
		Send:  make(chan []byte, bufferSize),
		stops: make(map[string]struct{}),
	}
}

func (c *Client) HasStop(stopID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.stops[strings.ToUpper(stopID)]
	return ok
}

func (c *Client) addStops(stopIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range stopIDs {
		c.stops[id] = struct{}{}
	}
}

func (c *Client) removeStops(stopIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range stopIDs {
		delete(c.stops, id)
	}
}

func (c *Client) Stops() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stops := make([]string, 0, len(c.stops))
	for id := range c.stops {
		stops = append(stops, id)
	}
	return stops
}

type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	stopClients map[string]map[*Client]struct{}

	unregister chan *Client
	broadcast  chan []domain.ArrivalDelta
	status     chan []domain.ServiceStatus

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		stopClients: make(map[string]map[*Client]struct{}),
		unregister:  make(chan *Client, 16),
		broadcast:   make(chan []domain.ArrivalDelta, 256),
		status:      make(chan []domain.ServiceStatus, 16),
		logger:      logger.With("component", "hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.unregister:
			h.removeClient(client)

		case deltas := <-h.broadcast:
			h.fanoutDeltas(deltas)

		case statuses := <-h.status:
			h.fanoutStatus(statuses)
		}
	}
}

// Subscribe adds stop IDs to the client's watch list
func (h *Hub) Subscribe(client *Client, stopIDs []string) {
	ids := normalize(stopIDs)

	h.mu.Lock()
	defer h.mu.Unlock()

	client.addStops(ids)

	for _, id := range ids {
		if h.stopClients[id] == nil {
			h.stopClients[id] = make(map[*Client]struct{})
		}
		h.stopClients[id][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, stopIDs []string) {
	ids := normalize(stopIDs)

	h.mu.Lock()
	defer h.mu.Unlock()

	client.removeStops(ids)

	for _, id := range ids {
		h.dropStopClient(id, client)
	}
}

// SubscribedStops lists every stop at least one client is watching
func (h *Hub) SubscribedStops() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stops := make([]string, 0, len(h.stopClients))
	for id := range h.stopClients {
		stops = append(stops, id)
	}
	return stops
}

func (h *Hub) Broadcast(deltas []domain.ArrivalDelta) {
	if len(deltas) == 0 {
		return
	}
	select {
	case h.broadcast <- deltas:
	default:
		h.logger.Warn("broadcast channel full, dropping deltas", "count", len(deltas))
	}
}

// BroadcastStatus sends line statuses to every connected client
func (h *Hub) BroadcastStatus(statuses []domain.ServiceStatus) {
	if len(statuses) == 0 {
		return
	}
	select {
	case h.status <- statuses:
	default:
		h.logger.Warn("status channel full, dropping update", "count", len(statuses))
	}
}

// Register adds the client before returning, so a later Unregister can never
// be handled ahead of it.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client registered", "client_id", client.ID, "total", total)
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ArrivalsPayload struct {
	Updates []*domain.ArrivalBoard `json:"updates,omitempty"`
	Removes []string               `json:"removes,omitempty"`
}

func (h *Hub) fanoutDeltas(deltas []domain.ArrivalDelta) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientDeltas := make(map[*Client][]domain.ArrivalDelta)

	for _, d := range deltas {
		if clients, ok := h.stopClients[d.StopID]; ok {
			for client := range clients {
				clientDeltas[client] = append(clientDeltas[client], d)
			}
		}
	}

	for client, ds := range clientDeltas {
		data, err := json.Marshal(buildArrivalsMessage(ds))
		if err != nil {
			continue
		}
		h.send(client, data)
	}
}

func (h *Hub) fanoutStatus(statuses []domain.ServiceStatus) {
	data, err := json.Marshal(Message{Type: TypeStatus, Payload: statuses})
	if err != nil {
		h.logger.Error("failed to encode status message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		h.send(client, data)
	}
}

func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full", "client_id", client.ID)
	}
}

func buildArrivalsMessage(deltas []domain.ArrivalDelta) Message {
	var payload ArrivalsPayload

	for _, d := range deltas {
		switch d.Type {
		case domain.DeltaUpdate:
			payload.Updates = append(payload.Updates, d.Board)
		case domain.DeltaRemove:
			payload.Removes = append(payload.Removes, d.StopID)
		}
	}

	return Message{Type: TypeArrivals, Payload: payload}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range client.Stops() {
		h.dropStopClient(id, client)
	}

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) dropStopClient(stopID string, client *Client) {
	if h.stopClients[stopID] != nil {
		delete(h.stopClients[stopID], client)
		if len(h.stopClients[stopID]) == 0 {
			delete(h.stopClients, stopID)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.stopClients = make(map[string]map[*Client]struct{})
}

func normalize(stopIDs []string) []string {
	out := make([]string, 0, len(stopIDs))
	for _, id := range stopIDs {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
