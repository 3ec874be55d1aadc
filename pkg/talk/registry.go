package talk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
)

// registryKey guards creation. Create refuses names with a slash, so
// no talk it makes can share this lock.
const registryKey = "/registry"

// checkName rejects names that cannot be a key in every backend.
func checkName(name string) error {
	switch {
	case name == "":
		return errors.New("talk name cannot be empty")
	case name == "." || name == "..":
		return fmt.Errorf("talk name %q is reserved", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("talk name %q must not contain a path separator", name)
	}
	return nil
}

// Registry is the collection of talks kept in one store.
// Every talk it hands out shares the registry's locks and settings.
type Registry struct {
	store ports.TalkStore
	env   *env
}

// NewRegistry creates a registry over store.
func NewRegistry(store ports.TalkStore, opts ...Option) *Registry {
	return &Registry{store: store, env: newEnv(opts)}
}

// Talk returns a handle on the talk stored under name. It does not check existence.
func (r *Registry) Talk(name string) *Stored {
	return &Stored{key: name, store: r.store, env: r.env}
}

// Get returns the talk stored under name, or a *domain.StorageError
// wrapping domain.ErrTalkNotFound.
func (r *Registry) Get(ctx context.Context, name string) (*Stored, error) {
	if _, err := r.store.Load(ctx, name); err != nil {
		return nil, &domain.StorageError{Op: "load", Talk: name, Err: err}
	}
	return r.Talk(name), nil
}

// Exists reports whether a talk is stored under name.
func (r *Registry) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.store.Load(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrTalkNotFound):
		return false, nil
	default:
		return false, &domain.StorageError{Op: "load", Talk: name, Err: err}
	}
}

// List returns the names of all talks, sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	names, err := r.store.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	slices.Sort(names)
	return names, nil
}

// Create stores a fresh talk. It fails with domain.ErrTalkExists when the
// name or the number is already taken, and with a *domain.ValidationError
// when the name is not usable as a storage key.
func (r *Registry) Create(ctx context.Context, number int64, name string) (*Stored, error) {
	if err := checkName(name); err != nil {
		return nil, &domain.ValidationError{Talk: name, Err: err}
	}
	err := r.env.locks.WithLock(ctx, registryKey, func(ctx context.Context) error {
		exists, err := r.Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrTalkExists, name)
		}
		if err := r.numberTaken(ctx, number); err != nil {
			return err
		}

		doc := Skeleton(number, name, r.env.chain)
		if err := r.env.validator.Validate(doc); err != nil {
			return &domain.ValidationError{Talk: name, Err: err}
		}
		data, err := doc.Bytes()
		if err != nil {
			return &domain.StorageError{Op: "save", Talk: name, Err: err}
		}
		if err := r.store.Save(ctx, name, data); err != nil {
			return &domain.StorageError{Op: "save", Talk: name, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.env.logger.Info("Talk created", "talk", name, "number", number)
	return r.Talk(name), nil
}

func (r *Registry) numberTaken(ctx context.Context, number int64) error {
	names, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		n, err := r.Talk(name).Number(ctx)
		if err != nil {
			// A talk deleted meanwhile cannot collide.
			if errors.Is(err, domain.ErrTalkNotFound) {
				continue
			}
			return err
		}
		if n == number {
			return fmt.Errorf("%w: number %d is used by %s", domain.ErrTalkExists, number, name)
		}
	}
	return nil
}

// Delete removes the talk. Deleting a missing talk is not an error.
func (r *Registry) Delete(ctx context.Context, name string) error {
	return r.env.locks.WithLock(ctx, name, func(ctx context.Context) error {
		if err := r.store.Delete(ctx, name); err != nil {
			return &domain.StorageError{Op: "delete", Talk: name, Err: err}
		}
		r.env.logger.Info("Talk deleted", "talk", name)
		return nil
	})
}
