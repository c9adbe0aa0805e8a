package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hktravel/internal/catalog"
	"hktravel/internal/domain"
	"hktravel/internal/history"
	"hktravel/internal/planner"
	"hktravel/pkg/hktransport"
)

const maxBodyBytes = 64 << 10

// PlanHandler plans journeys through the transport API and records each
// successful plan in history when a repository is configured.
type PlanHandler struct {
	client  *hktransport.Client
	store   *catalog.Store
	history *history.Repository
	logger  *slog.Logger
}

func NewPlanHandler(client *hktransport.Client, store *catalog.Store, repo *history.Repository, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		client:  client,
		store:   store,
		history: repo,
		logger:  logger.With("component", "plan_handler"),
	}
}

// PointInput is an ad-hoc place given by coordinates
type PointInput struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type PlanRequest struct {
	OriginID      string      `json:"originId"`
	Origin        *PointInput `json:"origin"`
	DestinationID string      `json:"destinationId"`
	Destination   *PointInput `json:"destination"`
	Departure     *time.Time  `json:"departure"`
	Preference    string      `json:"preference"`
	MaxWalkMeters int         `json:"maxWalkMeters"`
}

type PlanResponse struct {
	Routes      []*domain.TravelRoute `json:"routes"`
	Count       int                   `json:"count"`
	Origin      domain.Location       `json:"origin"`
	Destination domain.Location       `json:"destination"`
	Preference  string                `json:"preference"`
	HistoryID   string                `json:"historyId,omitempty"`
}

func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	origin, err := h.resolve("origin", req.OriginID, req.Origin)
	if err != nil {
		respondError(w, statusForResolve(err), err.Error())
		return
	}
	destination, err := h.resolve("destination", req.DestinationID, req.Destination)
	if err != nil {
		respondError(w, statusForResolve(err), err.Error())
		return
	}

	pref, err := planner.ParsePreference(strings.ToLower(strings.TrimSpace(req.Preference)))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	planReq := planner.PlanRequest{
		Origin:        origin,
		Destination:   destination,
		Preference:    pref,
		MaxWalkMeters: req.MaxWalkMeters,
	}
	if req.Departure != nil {
		planReq.Departure = *req.Departure
	}

	routes, err := h.client.PlanRoute(r.Context(), planReq)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrSameLocation), errors.Is(err, planner.ErrUnknownPreference):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, planner.ErrOutsideServiceArea):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			respondTransportError(w, r, err, h.client.RetryAfter())
		}
		return
	}

	resp := PlanResponse{
		Routes:      routes,
		Count:       len(routes),
		Origin:      origin,
		Destination: destination,
		Preference:  string(pref),
	}

	if h.history != nil {
		entry, err := h.history.Record(r.Context(), history.NewEntry(origin, destination, string(pref), routes))
		if err != nil {
			h.logger.Error("failed to record plan history", "error", err)
		} else {
			resp.HistoryID = entry.ID
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

var errUnknownLocation = errors.New("unknown location")

func statusForResolve(err error) int {
	if errors.Is(err, errUnknownLocation) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func (h *PlanHandler) resolve(field, id string, point *PointInput) (domain.Location, error) {
	if id != "" {
		loc, ok := h.store.GetLocation(id)
		if !ok {
			return domain.Location{}, fmt.Errorf("%s %q: %w", field, id, errUnknownLocation)
		}
		return *loc, nil
	}
	if point == nil {
		return domain.Location{}, fmt.Errorf("%sId or %s is required", field, field)
	}
	if point.Lat < -90 || point.Lat > 90 || point.Lon < -180 || point.Lon > 180 {
		return domain.Location{}, fmt.Errorf("%s coordinates are invalid", field)
	}

	name := point.Name
	if name == "" {
		name = fmt.Sprintf("%.5f, %.5f", point.Lat, point.Lon)
	}
	return domain.Location{
		ID:   fmt.Sprintf("point:%.6f,%.6f", point.Lat, point.Lon),
		Name: name,
		Lat:  point.Lat,
		Lon:  point.Lon,
	}, nil
}

type FareRequest struct {
	Steps []domain.RouteStep `json:"steps"`
}

type FareResponse struct {
	TotalFare            float64 `json:"totalFare"`
	Currency             string  `json:"currency"`
	TotalDurationMinutes int     `json:"totalDurationMinutes"`
	Transfers            int     `json:"transfers"`
	WalkingMeters        int     `json:"walkingMeters"`
	Summary              string  `json:"summary"`
}

// Fare aggregates fare and duration for an arbitrary list of steps
func (h *PlanHandler) Fare(w http.ResponseWriter, r *http.Request) {
	var req FareRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Steps) == 0 {
		respondError(w, http.StatusBadRequest, "steps must not be empty")
		return
	}
	for i, s := range req.Steps {
		if !s.Mode.IsValid() {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("step %d: unknown mode %q", i, s.Mode))
			return
		}
		if s.DurationMinutes < 0 || s.DistanceMeters < 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("step %d: negative duration or distance", i))
			return
		}
	}

	respondJSON(w, http.StatusOK, FareResponse{
		TotalFare:            planner.AggregateFare(req.Steps),
		Currency:             planner.Currency,
		TotalDurationMinutes: planner.AggregateDuration(req.Steps),
		Transfers:            planner.CountTransfers(req.Steps),
		WalkingMeters:        planner.WalkingMeters(req.Steps),
		Summary:              planner.Summarize(req.Steps),
	})
}

// FareTable lists the flat per-leg fare of every mode
func (h *PlanHandler) FareTable(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"currency": planner.Currency,
		"fares":    planner.FareTable(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
