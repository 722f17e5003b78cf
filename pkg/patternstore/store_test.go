package patternstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vantol/trawler/pkg/pattern"
)

// setupTestStore creates a fresh on-disk database in a temp dir and returns a
// ready Store. Cleanup closes everything in reverse order.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err = SetupSchema(db); err != nil {
		t.Fatalf("failed to setup schema: %v", err)
	}
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		_ = db.Close()
	})
	return store
}

func TestSetupSchemaIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer db.Close()

	if err = SetupSchema(db); err != nil {
		t.Fatalf("first SetupSchema failed: %v", err)
	}
	if err = SetupSchema(db); err != nil {
		t.Fatalf("second SetupSchema failed: %v", err)
	}
}

func TestPatternCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	in := pattern.Pattern{
		Name:        "CLIP_",
		Genre:       "Phone",
		Age:         pattern.AgeNew,
		Specifiers:  []string{"XXXX"},
		Constraints: []pattern.Constraint{{Type: pattern.ConstraintRange, Value: "0-4999"}},
	}
	saved, err := store.InsertPattern(ctx, in)
	if err != nil {
		t.Fatalf("InsertPattern failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("InsertPattern did not assign an ID")
	}
	if !saved.IsCustom {
		t.Error("stored pattern should be marked custom")
	}

	got, err := store.GetPattern(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetPattern failed: %v", err)
	}
	if got.Name != in.Name || got.Genre != in.Genre || got.Age != in.Age {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Constraints) != 1 || got.Constraints[0].Value != "0-4999" {
		t.Errorf("constraints did not survive the round trip: %+v", got.Constraints)
	}

	saved.Genre = "Drone"
	updated, err := store.UpdatePattern(ctx, saved)
	if err != nil {
		t.Fatalf("UpdatePattern failed: %v", err)
	}
	if updated.Genre != "Drone" {
		t.Errorf("expected updated genre, got %q", updated.Genre)
	}

	list, err := store.ListPatterns(ctx)
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(list))
	}

	if err = store.DeletePattern(ctx, saved.ID); err != nil {
		t.Fatalf("DeletePattern failed: %v", err)
	}
	if _, err = store.GetPattern(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNotFoundPaths(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.GetPattern(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPattern on empty store: expected ErrNotFound, got %v", err)
	}
	if err := store.DeletePattern(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePattern on empty store: expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdatePattern(ctx, pattern.Pattern{Name: "orphan"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePattern without ID: expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdatePattern(ctx, pattern.Pattern{ID: "ghost", Name: "orphan"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePattern with unknown ID: expected ErrNotFound, got %v", err)
	}
}

func TestInsertNormalizes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saved, err := store.InsertPattern(ctx, pattern.Pattern{Name: "raw", Age: "ancient"})
	if err != nil {
		t.Fatalf("InsertPattern failed: %v", err)
	}
	if len(saved.Specifiers) != 1 || saved.Specifiers[0] != "" {
		t.Errorf("expected normalized specifiers, got %v", saved.Specifiers)
	}
	if saved.Age != pattern.AgeAny {
		t.Errorf("expected normalized age, got %q", saved.Age)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"AAA_", "BBB_", "CCC_"} {
		if _, err := store.InsertPattern(ctx, pattern.Pattern{Name: name, Specifiers: []string{"XXX"}}); err != nil {
			t.Fatalf("InsertPattern(%s) failed: %v", name, err)
		}
	}

	var buf bytes.Buffer
	if err := store.Export(ctx, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Importing an export into a fresh store reproduces the contents.
	other := setupTestStore(t)
	n, err := other.Import(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 imported patterns, got %d", n)
	}
	list, err := other.ListPatterns(ctx)
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 patterns after import, got %d", len(list))
	}

	// Re-importing the same export updates in place, no duplicates.
	if _, err = other.Import(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	list, err = other.ListPatterns(ctx)
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("re-import duplicated patterns: got %d", len(list))
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Import(context.Background(), bytes.NewReader([]byte("{not json"))); err == nil {
		t.Fatal("expected error importing malformed JSON")
	}
}

func TestHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.AddHistory(ctx, HistoryEntry{
			PatternName: "IMG_",
			SearchTerm:  "IMG_0001",
			SearchURL:   "https://www.youtube.com/results?search_query=%22IMG_0001%22",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AddHistory %d failed: %v", i, err)
		}
	}

	entries, err := store.History(ctx, 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ID > entries[i-1].ID {
			t.Errorf("history not newest-first: %d before %d", entries[i-1].ID, entries[i].ID)
		}
	}
	if got := entries[0].CreatedAt.UTC(); !got.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("newest entry timestamp wrong: %v", got)
	}

	// Zero timestamp gets stamped with the current time.
	if err = store.AddHistory(ctx, HistoryEntry{PatternName: "DSC_", SearchTerm: "DSC_0002", SearchURL: "u"}); err != nil {
		t.Fatalf("AddHistory with zero time failed: %v", err)
	}
	entries, err = store.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("zero CreatedAt was stored as zero")
	}

	if err = store.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	entries, err = store.History(ctx, 0)
	if err != nil {
		t.Fatalf("History after clear failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history after clear, got %d entries", len(entries))
	}
}
