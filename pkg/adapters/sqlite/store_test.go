package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/aretw0/talks/pkg/ports"
)

// Ensure Store implements TalkStore
var _ ports.TalkStore = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "talks.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunTalkStoreContract(t, openTestStore(t))
}

func TestOpen_IsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talks.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Save(ctx, "a", []byte("<talk/>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen should replay migrations idempotently: %v", err)
	}
	defer second.Close()

	rec, err := second.Load(ctx, "a")
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if string(rec.Data) != "<talk/>" {
		t.Errorf("unexpected data %q", rec.Data)
	}
	if n := countRows(t, second.db, "SELECT COUNT(*) FROM schema_migrations"); n != 2 {
		t.Errorf("expected 2 recorded migrations, got %d", n)
	}
}

func TestApplyMigrations_SkipsApplied(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	fsys := fstest.MapFS{
		"m/001_create.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;"),
		},
	}
	if err := applyMigrations(ctx, db, fsys, "m"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// without the record, a second CREATE TABLE would fail
	if err := applyMigrations(ctx, db, fsys, "m"); err != nil {
		t.Fatalf("re-apply should skip recorded files: %v", err)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 1 {
		t.Errorf("expected 1 migration row, got %d", n)
	}
}

func TestExtractUp(t *testing.T) {
	got := extractUp("-- +migrate Up\nA;\n-- +migrate Down\nB;")
	if got != "\nA;\n" {
		t.Errorf("extractUp = %q", got)
	}
	if extractUp("PLAIN;") != "PLAIN;" {
		t.Error("content without markers should pass through")
	}
}

func countRows(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var n int64
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}
