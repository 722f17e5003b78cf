package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vantol/trawler/pkg/distribution"
	"github.com/vantol/trawler/pkg/pattern"
	"github.com/vantol/trawler/pkg/patternstore"
)

// SearchAPI holds the dependencies for search generation and the sampling /
// curve preview endpoints backing the dashboard chart.
type SearchAPI struct {
	cm       *ConfigManager
	store    *patternstore.Store
	patterns *PatternAPI
	gen      *pattern.Generator
	logger   *slog.Logger
}

// NewSearchAPI creates a new instance of the SearchAPI.
func NewSearchAPI(cm *ConfigManager, store *patternstore.Store, patterns *PatternAPI, gen *pattern.Generator, logger *slog.Logger) *SearchAPI {
	return &SearchAPI{
		cm:       cm,
		store:    store,
		patterns: patterns,
		gen:      gen,
		logger:   logger,
	}
}

// RegisterRoutes sets up the routing for all search endpoints.
func (a *SearchAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/search/generate", a.handleGenerate)
	mux.HandleFunc("/api/search/preview", a.handlePreview)
	mux.HandleFunc("/api/sample/int", a.handleSampleInt)
	mux.HandleFunc("/api/sample/date", a.handleSampleDate)
	mux.HandleFunc("/api/sample/coverage", a.handleCoverage)
	mux.HandleFunc("/api/curve", a.handleCurve)
	mux.HandleFunc("/api/curve/dates", a.handleDateCurve)
}

// searchRequest is the body for generate and preview calls. Every field is
// optional: an empty body means "random pattern, random specifier, now".
type searchRequest struct {
	// Pattern is a custom pattern ID or a pattern name. Empty picks randomly
	// from the pool, optionally narrowed by Genre.
	Pattern string `json:"pattern"`
	Genre   string `json:"genre"`

	// Specifier selects one of the pattern's specifiers by index; nil picks
	// one at random.
	Specifier *int `json:"specifier"`

	// Date is the reference date (ISO or RFC 3339). Empty means now; the
	// default is resolved here, never hidden inside the core.
	Date string `json:"date"`

	// DateOverride forces a "before:" filter at the reference date no matter
	// what the pattern says.
	DateOverride bool `json:"dateOverride"`

	// Distribution overrides the configured default sampling shape. Kept raw
	// so an explicit null stays distinguishable from an absent field: null
	// disables shaping entirely (plain uniform fills), absent falls back to
	// the configured default.
	Distribution json.RawMessage `json:"distribution"`

	// Inline supplies a pattern definition directly, for previewing edits
	// that haven't been saved yet. Takes precedence over Pattern.
	Inline *pattern.Pattern `json:"inline"`
}

// searchResponse is the result of a generate or preview call.
type searchResponse struct {
	Pattern   pattern.Pattern `json:"pattern"`
	Specifier string          `json:"specifier"`
	Term      string          `json:"term"`
	URL       string          `json:"url"`
}

func (a *SearchAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, true)
}

func (a *SearchAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, false)
}

func (a *SearchAPI) generate(w http.ResponseWriter, r *http.Request, record bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req searchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
	}

	p, err := a.resolvePattern(r, req)
	if errors.Is(err, patternstore.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Pattern not found")
		return
	}
	if err != nil {
		a.logger.Error("Failed to resolve pattern", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve pattern")
		return
	}
	p = p.Normalize()

	specifier, ok := a.pickSpecifier(p, req.Specifier)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Specifier index out of range")
		return
	}

	ref := parseReferenceDate(req.Date)
	cfg, err := req.distributionConfig(a.cm.Get().Search.DefaultDistribution)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid distribution config")
		return
	}

	// One fill feeds both the response term and the URL; filling twice would
	// hand the user a URL searching for a term they were never shown.
	term := a.gen.Fill(specifier, p, ref, cfg)
	searchURL := pattern.BuildURL(p, specifier, term, ref, req.DateOverride)

	if record {
		entry := patternstore.HistoryEntry{
			PatternName: p.Name,
			SearchTerm:  term,
			SearchURL:   searchURL,
		}
		if err := a.store.AddHistory(r.Context(), entry); err != nil {
			// A failed history write shouldn't cost the user their search.
			a.logger.Warn("Failed to record search history", "error", err)
		}
	}

	a.logger.Info("Search generated",
		"pattern", p.Name,
		"specifier", specifier,
		"recorded", record)

	respondWithJSON(w, http.StatusOK, searchResponse{
		Pattern:   p,
		Specifier: specifier,
		Term:      term,
		URL:       searchURL,
	})
}

// resolvePattern picks the pattern a request addresses: inline definition,
// explicit ID/name, or a random member of the (genre-filtered) pool.
func (a *SearchAPI) resolvePattern(r *http.Request, req searchRequest) (pattern.Pattern, error) {
	if req.Inline != nil {
		return *req.Inline, nil
	}
	if req.Pattern != "" {
		return a.patterns.findPattern(r.Context(), req.Pattern)
	}
	pool, err := a.patterns.allPatterns(r.Context())
	if err != nil {
		return pattern.Pattern{}, err
	}
	if req.Genre != "" {
		filtered := pool[:0]
		for _, candidate := range pool {
			if candidate.Genre == req.Genre {
				filtered = append(filtered, candidate)
			}
		}
		pool = filtered
	}
	if len(pool) == 0 {
		return pattern.Pattern{}, patternstore.ErrNotFound
	}
	return pool[a.gen.Sampler().Uniform(0, len(pool)-1)], nil
}

func (a *SearchAPI) pickSpecifier(p pattern.Pattern, index *int) (string, bool) {
	if index == nil {
		return p.Specifiers[a.gen.Sampler().Uniform(0, len(p.Specifiers)-1)], true
	}
	if *index < 0 || *index >= len(p.Specifiers) {
		return "", false
	}
	return p.Specifiers[*index], true
}

// distributionConfig resolves the request's distribution field. An absent
// field means the configured default; an explicit JSON null means no shaping
// at all, so fills fall through to plain uniform draws.
func (req searchRequest) distributionConfig(fallback *distribution.Config) (*distribution.Config, error) {
	if len(req.Distribution) == 0 {
		return fallback, nil
	}
	var cfg *distribution.Config
	if err := json.Unmarshal(req.Distribution, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseReferenceDate accepts an ISO date or RFC 3339 timestamp, defaulting
// to the current time for anything empty or unparseable.
func parseReferenceDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}

// handleSampleInt returns draws from a constrained integer range, for the
// dashboard's live preview of a distribution config.
func (a *SearchAPI) handleSampleInt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	min := queryInt(q.Get("min"), 0)
	max := queryInt(q.Get("max"), 9999)
	count := clampCount(queryInt(q.Get("count"), 1))

	cfg := configFromQuery(r)
	samples := make([]int, count)
	for i := range samples {
		samples[i] = a.gen.Sampler().ConstrainedInt(min, max, cfg, distribution.DefaultMaxAttempts)
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

// handleSampleDate returns draws from a constrained date range. Without
// explicit bounds it falls back to the YouTube-era span ending now.
func (a *SearchAPI) handleSampleDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	start, end := pattern.Pattern{
		DateAfter:  q.Get("start"),
		DateBefore: q.Get("end"),
	}.DateRange(time.Now())
	count := clampCount(queryInt(q.Get("count"), 1))

	cfg := configFromQuery(r)
	samples := make([]time.Time, count)
	for i := range samples {
		samples[i] = a.gen.Sampler().ConstrainedTime(start, end, cfg, distribution.DefaultMaxAttempts)
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

// handleCoverage reports how well a config covers a range, so the dashboard
// can warn about settings that will mostly clamp.
func (a *SearchAPI) handleCoverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	min := queryInt(q.Get("min"), 0)
	max := queryInt(q.Get("max"), 9999)
	size := queryInt(q.Get("samples"), 1000)

	coverage := a.gen.Sampler().ValidateCoverage(configFromQuery(r), min, max, size)
	respondWithJSON(w, http.StatusOK, coverage)
}

// handleCurve returns the normalized density curve for a config.
func (a *SearchAPI) handleCurve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	points := clampPoints(queryInt(r.URL.Query().Get("points"), 100))
	respondWithJSON(w, http.StatusOK, map[string]any{
		"heights": distribution.Curve(configFromQuery(r), points),
	})
}

// handleDateCurve returns the density curve with each point mapped onto a
// date span for axis labels.
func (a *SearchAPI) handleDateCurve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	start, end := pattern.Pattern{
		DateAfter:  q.Get("start"),
		DateBefore: q.Get("end"),
	}.DateRange(time.Now())
	points := clampPoints(queryInt(q.Get("points"), 100))
	respondWithJSON(w, http.StatusOK, map[string]any{
		"points": distribution.DateCurve(configFromQuery(r), start, end, points),
	})
}

// configFromQuery builds a distribution config from query parameters,
// falling back to the configured default for anything missing.
func configFromQuery(r *http.Request) distribution.Config {
	cfg := distribution.DefaultConfig()
	q := r.URL.Query()
	if t := q.Get("type"); t != "" {
		cfg.Type = distribution.Type(t)
	}
	if v, err := strconv.ParseFloat(q.Get("center"), 64); err == nil {
		cfg.Center = v
	}
	if v, err := strconv.ParseFloat(q.Get("spread"), 64); err == nil {
		cfg.Spread = v
	}
	if v, err := strconv.Atoi(q.Get("df")); err == nil {
		cfg.DegreesOfFreedom = v
	}
	return cfg
}

func queryInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > 1000 {
		return 1000
	}
	return n
}

func clampPoints(n int) int {
	if n < 2 {
		return 2
	}
	if n > 2000 {
		return 2000
	}
	return n
}
