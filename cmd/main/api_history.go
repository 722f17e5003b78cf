package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vantol/trawler/pkg/patternstore"
)

// HistoryAPI holds the dependencies for the search history handlers.
type HistoryAPI struct {
	cm     *ConfigManager
	store  *patternstore.Store
	logger *slog.Logger
}

// NewHistoryAPI creates a new instance of the HistoryAPI.
func NewHistoryAPI(cm *ConfigManager, store *patternstore.Store, logger *slog.Logger) *HistoryAPI {
	return &HistoryAPI{
		cm:     cm,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/history endpoints.
func (h *HistoryAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/history", h.handleHistory)
}

// handleHistory lists recent searches or clears the whole history.
func (h *HistoryAPI) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := h.cm.Get().Search.HistoryLimit
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		entries, err := h.store.History(r.Context(), limit)
		if err != nil {
			h.logger.Error("Failed to load search history", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to load history")
			return
		}
		if entries == nil {
			entries = []patternstore.HistoryEntry{}
		}
		respondWithJSON(w, http.StatusOK, entries)

	case http.MethodDelete:
		if err := h.store.ClearHistory(r.Context()); err != nil {
			h.logger.Error("Failed to clear search history", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to clear history")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
