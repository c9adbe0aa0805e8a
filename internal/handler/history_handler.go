package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"hktravel/internal/history"
)

const maxHistoryLimit = 100

type HistoryHandler struct {
	repo   *history.Repository
	logger *slog.Logger
}

func NewHistoryHandler(repo *history.Repository, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger.With("component", "history_handler"),
	}
}

type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", history.DefaultLimit)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Count: len(entries)})
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, http.StatusNotFound, "history entry not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load history entry", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.Clear(r.Context())
	if err != nil {
		h.logger.Error("failed to clear history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
