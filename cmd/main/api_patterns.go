package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vantol/trawler/pkg/pattern"
	"github.com/vantol/trawler/pkg/patternstore"
)

// PatternAPI holds the dependencies for the pattern API handlers.
type PatternAPI struct {
	store   *patternstore.Store
	catalog []pattern.Pattern
	logger  *slog.Logger
}

// NewPatternAPI creates a new instance of the PatternAPI.
func NewPatternAPI(store *patternstore.Store, catalog []pattern.Pattern, logger *slog.Logger) *PatternAPI {
	return &PatternAPI{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for all /api/patterns endpoints.
func (p *PatternAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/patterns/export", p.handleExport)
	mux.HandleFunc("/api/patterns/import", p.handleImport)
	mux.HandleFunc("/api/patterns", p.handleCollection)
	mux.HandleFunc("/api/patterns/", p.handlePattern)
}

// allPatterns returns the built-in catalog followed by every custom pattern.
func (p *PatternAPI) allPatterns(ctx context.Context) ([]pattern.Pattern, error) {
	custom, err := p.store.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]pattern.Pattern, 0, len(p.catalog)+len(custom))
	all = append(all, p.catalog...)
	all = append(all, custom...)
	return all, nil
}

// findPattern resolves an identifier against custom pattern IDs first, then
// catalog names, so built-ins stay addressable without IDs.
func (p *PatternAPI) findPattern(ctx context.Context, ident string) (pattern.Pattern, error) {
	if found, err := p.store.GetPattern(ctx, ident); err == nil {
		return found, nil
	} else if !errors.Is(err, patternstore.ErrNotFound) {
		return pattern.Pattern{}, err
	}
	all, err := p.allPatterns(ctx)
	if err != nil {
		return pattern.Pattern{}, err
	}
	for _, candidate := range all {
		if candidate.Name == ident {
			return candidate, nil
		}
	}
	return pattern.Pattern{}, patternstore.ErrNotFound
}

// handleCollection lists all patterns or creates a new custom one.
func (p *PatternAPI) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		all, err := p.allPatterns(r.Context())
		if err != nil {
			p.logger.Error("Failed to list patterns", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to list patterns")
			return
		}
		if genre := r.URL.Query().Get("genre"); genre != "" {
			filtered := all[:0]
			for _, candidate := range all {
				if candidate.Genre == genre {
					filtered = append(filtered, candidate)
				}
			}
			all = filtered
		}
		respondWithJSON(w, http.StatusOK, all)

	case http.MethodPost:
		var newPattern pattern.Pattern
		if err := json.NewDecoder(r.Body).Decode(&newPattern); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		stored, err := p.store.InsertPattern(r.Context(), newPattern)
		if err != nil {
			p.logger.Error("Failed to save custom pattern", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to save pattern")
			return
		}
		respondWithJSON(w, http.StatusCreated, stored)

	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handlePattern manages a single custom pattern by ID.
func (p *PatternAPI) handlePattern(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/patterns/")
	if id == "" || strings.Contains(id, "/") {
		respondWithError(w, http.StatusNotFound, "Not Found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		found, err := p.store.GetPattern(r.Context(), id)
		if errors.Is(err, patternstore.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Pattern not found")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load pattern")
			return
		}
		respondWithJSON(w, http.StatusOK, found)

	case http.MethodPut:
		var updated pattern.Pattern
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		updated.ID = id
		stored, err := p.store.UpdatePattern(r.Context(), updated)
		if errors.Is(err, patternstore.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Pattern not found")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to update pattern")
			return
		}
		respondWithJSON(w, http.StatusOK, stored)

	case http.MethodDelete:
		err := p.store.DeletePattern(r.Context(), id)
		if errors.Is(err, patternstore.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Pattern not found")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete pattern")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleExport streams every custom pattern as a JSON array.
func (p *PatternAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="patterns.json"`)
	if err := p.store.Export(r.Context(), w); err != nil {
		p.logger.Error("Pattern export failed", "error", err)
	}
}

// handleImport merges a JSON array of patterns into the custom set.
func (p *PatternAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	count, err := p.store.Import(r.Context(), r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"imported": count})
}
