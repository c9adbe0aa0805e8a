package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"hktravel/internal/domain"
	"hktravel/internal/weather"
)

type WeatherHandler struct {
	service *weather.Service
	logger  *slog.Logger
}

func NewWeatherHandler(service *weather.Service, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: service,
		logger:  logger.With("component", "weather_handler"),
	}
}

type WeatherResponse struct {
	*domain.WeatherData
	IconURL string `json:"iconUrl,omitempty"`
}

func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Current(r.Context())
	if err != nil {
		if errors.Is(err, weather.ErrNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "weather is not configured")
			return
		}
		h.logger.Error("weather lookup failed", "error", err)
		respondError(w, http.StatusBadGateway, "weather service unavailable")
		return
	}

	if data.Stale {
		w.Header().Set("Warning", `110 - "Response is Stale"`)
	}
	respondJSON(w, http.StatusOK, WeatherResponse{WeatherData: data, IconURL: data.IconURL()})
}
