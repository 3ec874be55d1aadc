package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements ports.TalkStore on a SQLite table.
// A save is a single UPSERT, so readers see the old row or the new one.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database and applies migrations.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := applyMigrations(ctx, db, migrations, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Save replaces the bytes of a talk.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO talks (name, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save talk: %w", err)
	}
	return nil
}

// Load retrieves the talk row.
func (s *Store) Load(ctx context.Context, name string) (ports.Record, error) {
	var (
		data  []byte
		nanos int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT data, updated_at FROM talks WHERE name = ?", name).Scan(&data, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Record{}, domain.ErrTalkNotFound
	}
	if err != nil {
		return ports.Record{}, fmt.Errorf("failed to load talk: %w", err)
	}
	return ports.Record{Data: data, Updated: time.Unix(0, nanos)}, nil
}

// Delete removes the talk row.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM talks WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete talk: %w", err)
	}
	return nil
}

// List returns stored talk names in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM talks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list talks: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan talk name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
