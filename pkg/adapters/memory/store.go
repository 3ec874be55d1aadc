package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
)

// Store implements ports.TalkStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]ports.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]ports.Record),
	}
}

// Save replaces the bytes of a talk.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	// Copy so the caller can reuse its buffer
	rec := ports.Record{Data: slices.Clone(data), Updated: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = rec
	return nil
}

// Load retrieves a talk from memory.
func (s *Store) Load(ctx context.Context, name string) (ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[name]
	if !ok {
		return ports.Record{}, domain.ErrTalkNotFound
	}

	// Copy on read so callers can't mutate stored bytes
	return ports.Record{Data: slices.Clone(rec.Data), Updated: rec.Updated}, nil
}

// Delete removes a talk.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns stored talk names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
