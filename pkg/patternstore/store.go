package patternstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vantol/trawler/pkg/pattern"
)

// ErrNotFound is returned when a pattern ID has no row.
var ErrNotFound = errors.New("pattern not found")

// HistoryEntry records one generated search.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	PatternName string    `json:"patternName"`
	SearchTerm  string    `json:"searchTerm"`
	SearchURL   string    `json:"searchUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SetupSchema initializes the store's tables. It is idempotent and safe to
// call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaPatterns = `
CREATE TABLE IF NOT EXISTS custom_patterns (
    pattern_id TEXT PRIMARY KEY,
    pattern_json TEXT NOT NULL
);
`
		schemaHistory = `
CREATE TABLE IF NOT EXISTS search_history (
    entry_id INTEGER PRIMARY KEY,
    pattern_name TEXT NOT NULL,
    search_term TEXT NOT NULL,
    search_url TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaPatterns); err != nil {
		return fmt.Errorf("could not create patterns schema: %w", err)
	}
	if _, err = tx.Exec(schemaHistory); err != nil {
		return fmt.Errorf("could not create history schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store provides access to custom patterns and search history. It holds the
// database connection and prepared statements; all methods are safe for
// concurrent use by virtue of database/sql's pooling.
type Store struct {
	db               *sql.DB
	stmtGetPattern   *sql.Stmt
	stmtListPatterns *sql.Stmt
	stmtUpsert       *sql.Stmt
	stmtDelete       *sql.Stmt
	stmtAddHistory   *sql.Stmt
	stmtListHistory  *sql.Stmt
	stmtClearHistory *sql.Stmt
	logger           *slog.Logger
}

// NewStore creates a Store over db, pre-compiling all statements. It returns
// an error if any preparation fails, which usually means SetupSchema was
// never run.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetPattern, err := db.Prepare(`SELECT pattern_json FROM custom_patterns WHERE pattern_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtListPatterns, err := db.Prepare(`SELECT pattern_json FROM custom_patterns ORDER BY pattern_id;`)
	if err != nil {
		return nil, err
	}

	stmtUpsert, err := db.Prepare(`INSERT INTO custom_patterns (pattern_id, pattern_json) VALUES (?, ?)
ON CONFLICT(pattern_id) DO UPDATE SET pattern_json = excluded.pattern_json;`)
	if err != nil {
		return nil, err
	}

	stmtDelete, err := db.Prepare(`DELETE FROM custom_patterns WHERE pattern_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtAddHistory, err := db.Prepare(`INSERT INTO search_history (pattern_name, search_term, search_url, created_at) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtListHistory, err := db.Prepare(`SELECT entry_id, pattern_name, search_term, search_url, created_at FROM search_history ORDER BY entry_id DESC LIMIT ?;`)
	if err != nil {
		return nil, err
	}

	stmtClearHistory, err := db.Prepare(`DELETE FROM search_history;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:               db,
		stmtGetPattern:   stmtGetPattern,
		stmtListPatterns: stmtListPatterns,
		stmtUpsert:       stmtUpsert,
		stmtDelete:       stmtDelete,
		stmtAddHistory:   stmtAddHistory,
		stmtListHistory:  stmtListHistory,
		stmtClearHistory: stmtClearHistory,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetPattern.Close()
	_ = s.stmtListPatterns.Close()
	_ = s.stmtUpsert.Close()
	_ = s.stmtDelete.Close()
	_ = s.stmtAddHistory.Close()
	_ = s.stmtListHistory.Close()
	_ = s.stmtClearHistory.Close()
}

// SetLogger sets the logger. By default all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// InsertPattern saves a new user-authored pattern, assigning it an ID if it
// has none, and returns the stored form. IsCustom is forced on: everything
// in this store is by definition user-authored.
func (s *Store) InsertPattern(ctx context.Context, p pattern.Pattern) (pattern.Pattern, error) {
	p = p.Normalize()
	p.IsCustom = true
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("failed to marshal pattern: %w", err)
	}
	if _, err = s.stmtUpsert.ExecContext(ctx, p.ID, string(data)); err != nil {
		return pattern.Pattern{}, fmt.Errorf("failed to insert pattern: %w", err)
	}

	s.logger.InfoContext(ctx, "Custom pattern saved",
		slog.String("pattern_id", p.ID),
		slog.String("pattern_name", p.Name),
	)
	return p, nil
}

// GetPattern loads a single custom pattern by ID.
func (s *Store) GetPattern(ctx context.Context, id string) (pattern.Pattern, error) {
	var data string
	err := s.stmtGetPattern.QueryRowContext(ctx, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return pattern.Pattern{}, ErrNotFound
	}
	if err != nil {
		return pattern.Pattern{}, err
	}
	var p pattern.Pattern
	if err = json.Unmarshal([]byte(data), &p); err != nil {
		return pattern.Pattern{}, fmt.Errorf("failed to unmarshal stored pattern %s: %w", id, err)
	}
	return p, nil
}

// UpdatePattern overwrites an existing custom pattern. The ID must already
// exist; use InsertPattern for new ones.
func (s *Store) UpdatePattern(ctx context.Context, p pattern.Pattern) (pattern.Pattern, error) {
	if p.ID == "" {
		return pattern.Pattern{}, ErrNotFound
	}
	if _, err := s.GetPattern(ctx, p.ID); err != nil {
		return pattern.Pattern{}, err
	}
	return s.InsertPattern(ctx, p)
}

// DeletePattern removes a custom pattern by ID. Deleting an absent pattern
// returns ErrNotFound.
func (s *Store) DeletePattern(ctx context.Context, id string) error {
	res, err := s.stmtDelete.ExecContext(ctx, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.logger.InfoContext(ctx, "Custom pattern deleted", slog.String("pattern_id", id))
	return nil
}

// ListPatterns returns every custom pattern in the store.
func (s *Store) ListPatterns(ctx context.Context) ([]pattern.Pattern, error) {
	rows, err := s.stmtListPatterns.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var patterns []pattern.Pattern
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, err
		}
		var p pattern.Pattern
		if err = json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// Export writes every custom pattern to w as an indented JSON array, the
// same shape LoadCatalog and Import accept.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	patterns, err := s.ListPatterns(ctx)
	if err != nil {
		return err
	}
	if patterns == nil {
		patterns = []pattern.Pattern{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(patterns)
}

// Import reads a JSON array of patterns from r and merges it into the store
// inside a single transaction. Patterns keep their IDs when present, so
// re-importing an export updates in place instead of duplicating.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var patterns []pattern.Pattern
	if err := json.NewDecoder(r).Decode(&patterns); err != nil {
		return 0, fmt.Errorf("failed to decode pattern import: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtUpsert := tx.StmtContext(ctx, s.stmtUpsert)
	for i, p := range patterns {
		p = p.Normalize()
		p.IsCustom = true
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		data, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal imported pattern %d: %w", i, err)
		}
		if _, err = stmtUpsert.ExecContext(ctx, p.ID, string(data)); err != nil {
			return 0, fmt.Errorf("failed to store imported pattern %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Patterns imported", slog.Int("count", len(patterns)))
	return len(patterns), nil
}

// AddHistory records one generated search.
func (s *Store) AddHistory(ctx context.Context, entry HistoryEntry) error {
	at := entry.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.stmtAddHistory.ExecContext(ctx, entry.PatternName, entry.SearchTerm, entry.SearchURL, at.UnixMilli())
	return err
}

// History returns the most recent entries, newest first. A non-positive
// limit defaults to 50.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.stmtListHistory.QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var createdAt int64
		if err = rows.Scan(&e.ID, &e.PatternName, &e.SearchTerm, &e.SearchURL, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearHistory deletes every history entry.
func (s *Store) ClearHistory(ctx context.Context) error {
	_, err := s.stmtClearHistory.ExecContext(ctx)
	if err == nil {
		s.logger.InfoContext(ctx, "Search history cleared")
	}
	return err
}
