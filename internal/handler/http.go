package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hktravel/pkg/hktransport"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondTransportError maps transport failures to HTTP statuses with a
// message in the caller's language.
func respondTransportError(w http.ResponseWriter, r *http.Request, err error, retryAfter time.Duration) {
	var te *hktransport.Error
	if !errors.As(err, &te) {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusGatewayTimeout, "timeout")
		case errors.Is(err, context.Canceled):
			respondError(w, http.StatusServiceUnavailable, "canceled")
		default:
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	status := http.StatusBadGateway
	switch te.Kind {
	case hktransport.KindRateLimited:
		status = http.StatusTooManyRequests
		secs := int(math.Ceil(retryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	case hktransport.KindNotFound:
		status = http.StatusNotFound
	case hktransport.KindInvalidResponse:
		status = http.StatusBadGateway
	case hktransport.KindNetwork:
		status = http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
	}

	respondJSON(w, status, errorResponse{
		Error:   string(te.Kind),
		Message: te.Localized(requestLanguage(r)),
	})
}

// requestLanguage picks the first tag of ?lang= or Accept-Language
func requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	al := r.Header.Get("Accept-Language")
	if al == "" {
		return "en"
	}
	first := strings.Split(al, ",")[0]
	return strings.TrimSpace(strings.Split(first, ";")[0])
}

func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func queryFloat(r *http.Request, key string) (float64, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, true, err
}
