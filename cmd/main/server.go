package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/vantol/trawler/pkg/pattern"
	"github.com/vantol/trawler/pkg/patternstore"
)

// Server wires the catalog, store and generator together and hosts the
// dashboard plus the JSON API on a single mux.
type Server struct {
	cm                *ConfigManager
	db                *sql.DB
	logger            *slog.Logger
	store             *patternstore.Store
	catalog           []pattern.Pattern
	gen               *pattern.Generator
	patternAPI        *PatternAPI
	searchAPI         *SearchAPI
	historyAPI        *HistoryAPI
	serverAPI         *ServerAPI
	mux               *http.ServeMux
	dashboardTemplate *template.Template
}

// NewServer creates the server object and registers all routes.
func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	store, err := patternstore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern store: %w", err)
	}
	store.SetLogger(logger)

	catalog, err := pattern.LoadCatalog(config.Search.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern catalog: %w", err)
	}
	logger.Info("Pattern catalog loaded", "count", len(catalog))

	gen := pattern.NewGenerator(nil)

	patternAPI := NewPatternAPI(store, catalog, logger)
	searchAPI := NewSearchAPI(cm, store, patternAPI, gen, logger)
	historyAPI := NewHistoryAPI(cm, store, logger)
	serverAPI := NewServerAPI(cm, actionChan, logger)

	server := &Server{
		cm:         cm,
		db:         db,
		logger:     logger,
		store:      store,
		catalog:    catalog,
		gen:        gen,
		patternAPI: patternAPI,
		searchAPI:  searchAPI,
		historyAPI: historyAPI,
		serverAPI:  serverAPI,
		mux:        http.NewServeMux(),
	}

	server.patternAPI.RegisterRoutes(server.mux)
	server.searchAPI.RegisterRoutes(server.mux)
	server.historyAPI.RegisterRoutes(server.mux)
	server.serverAPI.RegisterRoutes(server.mux)

	staticFs := http.FileServer(http.Dir(config.Server.DashboardStaticPath))
	server.mux.Handle("/static/", http.StripPrefix("/static/", staticFs))

	// The dashboard is optional: without its templates on disk the API is
	// still fully usable, so a parse failure only downgrades the root page.
	server.dashboardTemplate, err = template.ParseGlob(filepath.Join(config.Server.DashboardTmplPath, "*.gohtml"))
	if err != nil {
		logger.Warn("Dashboard templates unavailable, serving placeholder page", "error", err)
		server.dashboardTemplate = nil
	}
	server.mux.HandleFunc("/", server.handleDashboard)

	return server, nil
}

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Avoid serving the template for non-root paths like /favicon.ico.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.dashboardTemplate == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<!doctype html><title>trawler</title><p>Dashboard assets not installed. The JSON API is available under /api/.</p>")
		return
	}
	if err := s.dashboardTemplate.ExecuteTemplate(w, "index.gohtml", nil); err != nil {
		s.logger.Error("Failed to render dashboard template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}
