package talk

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/talks/pkg/directive"
	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
	"github.com/aretw0/talks/pkg/tree"
)

// Talk is one unit of automated work, persisted as an XML document.
// Implementations must keep Read results valid against the current schema
// and must never leave partially written content behind.
type Talk interface {
	// Number returns the identifier assigned at creation.
	Number(ctx context.Context) (int64, error)
	// Name returns the name assigned at creation.
	Name(ctx context.Context) (string, error)
	// Updated returns when the persisted content last changed.
	Updated(ctx context.Context) (time.Time, error)
	// Read returns the content, upgraded to the current shape.
	Read(ctx context.Context) (*tree.Document, error)
	// Modify applies dirs, validates and persists the result, all or nothing.
	Modify(ctx context.Context, dirs directive.Directives) error
	// Active signals that the talk became active or inactive.
	Active(ctx context.Context, active bool) error
}

// Stored is a Talk kept in a ports.TalkStore under a key (the talk name).
type Stored struct {
	key   string
	store ports.TalkStore
	env   *env
}

var _ Talk = (*Stored)(nil)

// New binds a talk to its key in store. No I/O happens until a method is called.
func New(store ports.TalkStore, key string, opts ...Option) *Stored {
	return &Stored{key: key, store: store, env: newEnv(opts)}
}

// Key returns the storage key of the talk.
func (t *Stored) Key() string { return t.key }

func (t *Stored) load(ctx context.Context) (*tree.Document, ports.Record, error) {
	rec, err := t.store.Load(ctx, t.key)
	if err != nil {
		return nil, ports.Record{}, &domain.StorageError{Op: "load", Talk: t.key, Err: err}
	}
	doc, err := tree.Parse(rec.Data)
	if err != nil {
		return nil, ports.Record{}, &domain.StorageError{Op: "load", Talk: t.key, Err: err}
	}
	return doc, rec, nil
}

// Read loads the persisted bytes and upgrades them. The upgraded form is
// not written back; the next Modify persists it.
func (t *Stored) Read(ctx context.Context) (*tree.Document, error) {
	doc, _, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	return t.env.chain.Upgrade(doc), nil
}

// Name returns the name attribute of the root element.
func (t *Stored) Name(ctx context.Context) (string, error) {
	doc, err := t.Read(ctx)
	if err != nil {
		return "", err
	}
	name, ok := doc.Attr("/talk", "name")
	if !ok {
		return "", &domain.StorageError{Op: "load", Talk: t.key, Err: fmt.Errorf("root has no name attribute")}
	}
	return name, nil
}

// Number returns the number attribute of the root element.
func (t *Stored) Number(ctx context.Context) (int64, error) {
	doc, err := t.Read(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := doc.Attr("/talk", "number")
	if !ok {
		return 0, &domain.StorageError{Op: "load", Talk: t.key, Err: fmt.Errorf("root has no number attribute")}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domain.StorageError{Op: "load", Talk: t.key, Err: fmt.Errorf("invalid number attribute: %w", err)}
	}
	return n, nil
}

// Updated returns the modification time reported by the store.
func (t *Stored) Updated(ctx context.Context) (time.Time, error) {
	_, rec, err := t.load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return rec.Updated, nil
}

// Modify applies dirs to the upgraded content, validates the result and
// saves it. An empty sequence returns immediately without touching the store.
// On *domain.StateError or *domain.ValidationError nothing is written.
func (t *Stored) Modify(ctx context.Context, dirs directive.Directives) (err error) {
	if dirs.Empty() {
		return nil
	}
	start := time.Now()
	defer func() {
		t.env.metrics.observe(err, time.Since(start))
	}()

	return t.env.locks.WithLock(ctx, t.key, func(ctx context.Context) error {
		doc, _, err := t.load(ctx)
		if err != nil {
			return err
		}
		current := t.env.chain.Upgrade(doc)

		next, err := directive.Apply(current, dirs)
		if err != nil {
			return &domain.StateError{Talk: t.key, Err: err}
		}
		if err := t.env.validator.Validate(next); err != nil {
			return &domain.ValidationError{Talk: t.key, Err: err}
		}

		data, err := next.Bytes()
		if err != nil {
			return &domain.StorageError{Op: "save", Talk: t.key, Err: err}
		}
		if err := t.store.Save(ctx, t.key, data); err != nil {
			return &domain.StorageError{Op: "save", Talk: t.key, Err: err}
		}

		t.env.logger.Debug("Talk modified", "talk", t.key, "directives", dirs.Len())
		return nil
	})
}

// Active forwards the signal to the activation hook. The content is not changed.
func (t *Stored) Active(ctx context.Context, active bool) error {
	t.env.logger.Debug("Talk activation", "talk", t.key, "active", active)
	if t.env.hook == nil {
		return nil
	}
	return t.env.hook(ctx, t.key, active)
}
