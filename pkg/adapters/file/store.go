package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
)

const ext = ".xml"

// Store implements ports.TalkStore using the local filesystem.
// It stores each talk as an XML file in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".talks".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = ".talks"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("talk name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("talk name %q is not a valid file name", name)
	}
	return filepath.Join(s.BasePath, name+ext), nil
}

// Save persists the talk bytes atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	destPath, err := s.path(name)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure talks directory: %w", err)
	}

	// 1. Create Temp File
	// same directory, so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Cleanup temp file in case of failure
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Atomic Rename
	// os.Rename replaces an existing destination on every platform Go supports,
	// so readers see either the old or the new file.
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to talk file: %w", err)
	}

	return nil
}

// Load retrieves the talk bytes and the file modification time.
func (s *Store) Load(ctx context.Context, name string) (ports.Record, error) {
	filePath, err := s.path(name)
	if err != nil {
		return ports.Record{}, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.Record{}, domain.ErrTalkNotFound
		}
		return ports.Record{}, fmt.Errorf("failed to open talk file: %w", err)
	}
	defer f.Close()

	// Stat the open handle so the time matches the bytes even if a rename lands meanwhile
	info, err := f.Stat()
	if err != nil {
		return ports.Record{}, fmt.Errorf("failed to stat talk file: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return ports.Record{}, fmt.Errorf("failed to read talk file: %w", err)
	}

	return ports.Record{Data: data, Updated: info.ModTime()}, nil
}

// Delete removes the talk file.
func (s *Store) Delete(ctx context.Context, name string) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete talk file: %w", err)
	}

	return nil
}

// List returns the names of all stored talks.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list talks: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ext))
	}

	return names, nil
}
