package domain

import (
	"errors"
	"fmt"
)

// ErrTalkNotFound is returned when a talk cannot be found in the store.
var ErrTalkNotFound = errors.New("talk not found")

// ErrTalkExists is returned when creating a talk whose name is taken.
var ErrTalkExists = errors.New("talk already exists")

// StorageError reports a backing resource that could not be read or written.
// It is never retried by the core.
type StorageError struct {
	Op   string // "load", "save", "delete", "list", "lock"
	Talk string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Talk == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Talk, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StateError reports a directive sequence that does not apply to the
// current content of a talk. It points at a caller defect.
type StateError struct {
	Talk string
	Err  error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("talk %q: inapplicable directives: %v", e.Talk, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// ValidationError reports content that would violate the current schema.
type ValidationError struct {
	Talk string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("talk %q: invalid content: %v", e.Talk, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
