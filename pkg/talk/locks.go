package talk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/talks/internal/logging"
	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locks serializes writers per talk.
// It uses reference counting to garbage collect unused mutexes and, when a
// DistributedLocker is set, also holds a lock shared with other replicas.
type Locks struct {
	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	ttl    time.Duration
	logger *slog.Logger
}

// NewLocks creates an in-process lock table. locker may be nil.
func NewLocks(locker ports.DistributedLocker, logger *slog.Logger) *Locks {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Locks{
		locks:  make(map[string]*lockEntry),
		locker: locker,
		ttl:    30 * time.Second,
		logger: logger,
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (l *Locks) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[key]
	if !exists {
		entry = &lockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (l *Locks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, key)
	}
}

// active returns the number of keys currently held or awaited.
func (l *Locks) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// WithLock executes fn while holding the lock for key.
// Failing to acquire the distributed lock yields a *domain.StorageError and fn does not run.
func (l *Locks) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := l.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		l.release(key)
	}()

	if l.locker != nil {
		unlock, err := l.locker.Lock(ctx, key, l.ttl)
		if err != nil {
			return &domain.StorageError{Op: "lock", Talk: key, Err: err}
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				l.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"talk", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
