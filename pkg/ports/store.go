package ports

import (
	"context"
	"time"
)

// Record is the persisted form of a talk: its bytes and the time they
// were last replaced.
type Record struct {
	Data    []byte
	Updated time.Time
}

// TalkStore persists the raw bytes of talks, keyed by talk name.
// Save must replace the bytes atomically: a concurrent Load sees either
// the old or the new record, never a mix.
type TalkStore interface {
	// Load retrieves the record for a given talk.
	// Returns domain.ErrTalkNotFound if the talk does not exist.
	Load(ctx context.Context, name string) (Record, error)

	// Save replaces the bytes of a talk, creating it if needed.
	Save(ctx context.Context, name string, data []byte) error

	// Delete removes a talk. Deleting a missing talk is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored talks.
	List(ctx context.Context) ([]string, error)
}
