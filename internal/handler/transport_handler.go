package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hktravel/internal/domain"
	"hktravel/internal/store"
	"hktravel/pkg/hktransport"
)

// Broadcaster pushes board and status changes to websocket subscribers
type Broadcaster interface {
	Broadcast(deltas []domain.ArrivalDelta)
	BroadcastStatus(statuses []domain.ServiceStatus)
}

// TransportHandler serves live arrivals and line status. When the transport
// API fails it falls back to the last board the ingestor stored.
type TransportHandler struct {
	client      *hktransport.Client
	arrivals    *store.ArrivalStore
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewTransportHandler(client *hktransport.Client, arrivals *store.ArrivalStore, broadcaster Broadcaster, logger *slog.Logger) *TransportHandler {
	return &TransportHandler{
		client:      client,
		arrivals:    arrivals,
		broadcaster: broadcaster,
		logger:      logger.With("component", "transport_handler"),
	}
}

type ArrivalsResponse struct {
	StopID     string                   `json:"stopId"`
	Arrivals   []domain.RealTimeArrival `json:"arrivals"`
	UpdatedAt  time.Time                `json:"updatedAt"`
	Stale      bool                     `json:"stale,omitempty"`
	ServerTime time.Time                `json:"serverTime"`
}

func (h *TransportHandler) Arrivals(w http.ResponseWriter, r *http.Request) {
	stopID := r.PathValue("id")

	arrivals, err := h.client.Arrivals(r.Context(), stopID)
	if err != nil {
		kind, _ := hktransport.KindOf(err)
		if kind != hktransport.KindNotFound {
			if board, ok := h.arrivals.Get(stopID); ok {
				h.logger.Warn("serving stored arrivals", "stop_id", stopID, "error", err)
				respondJSON(w, http.StatusOK, ArrivalsResponse{
					StopID:     board.StopID,
					Arrivals:   board.Arrivals,
					UpdatedAt:  board.UpdatedAt,
					Stale:      true,
					ServerTime: time.Now(),
				})
				return
			}
		}
		respondTransportError(w, r, err, h.client.RetryAfter())
		return
	}

	if delta, changed := h.arrivals.Update(stopID, arrivals); changed {
		h.broadcaster.Broadcast([]domain.ArrivalDelta{delta})
	}
	board, _ := h.arrivals.Get(stopID)

	respondJSON(w, http.StatusOK, ArrivalsResponse{
		StopID:     board.StopID,
		Arrivals:   board.Arrivals,
		UpdatedAt:  board.UpdatedAt,
		ServerTime: time.Now(),
	})
}

type StatusResponse struct {
	Lines      []domain.ServiceStatus `json:"lines"`
	Stale      bool                   `json:"stale,omitempty"`
	ServerTime time.Time              `json:"serverTime"`
}

func (h *TransportHandler) Status(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.client.ServiceStatus(r.Context())
	if err != nil {
		if stored := h.arrivals.Statuses(); len(stored) > 0 {
			h.logger.Warn("serving stored service status", "error", err)
			respondJSON(w, http.StatusOK, StatusResponse{Lines: stored, Stale: true, ServerTime: time.Now()})
			return
		}
		respondTransportError(w, r, err, h.client.RetryAfter())
		return
	}

	if h.arrivals.SetStatuses(statuses) {
		h.broadcaster.BroadcastStatus(statuses)
	}
	respondJSON(w, http.StatusOK, StatusResponse{Lines: statuses, ServerTime: time.Now()})
}

type LineArrivalsResponse struct {
	Line       string                 `json:"line"`
	Boards     []*domain.ArrivalBoard `json:"boards"`
	ServerTime time.Time              `json:"serverTime"`
}

// LineArrivals lists the stored boards that include an arrival on the line
func (h *TransportHandler) LineArrivals(w http.ResponseWriter, r *http.Request) {
	line := strings.ToUpper(strings.TrimSpace(r.PathValue("line")))
	if line == "" {
		respondError(w, http.StatusBadRequest, "line is required")
		return
	}

	respondJSON(w, http.StatusOK, LineArrivalsResponse{
		Line:       line,
		Boards:     h.arrivals.List(store.ListOptions{Line: line}),
		ServerTime: time.Now(),
	})
}
