package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/talks/internal/config"
	"github.com/aretw0/talks/pkg/adapters/file"
	"github.com/aretw0/talks/pkg/adapters/memory"
	"github.com/aretw0/talks/pkg/adapters/redis"
	"github.com/aretw0/talks/pkg/adapters/sqlite"
	"github.com/aretw0/talks/pkg/agent"
	"github.com/aretw0/talks/pkg/persistence/middleware"
	"github.com/aretw0/talks/pkg/ports"
	"github.com/aretw0/talks/pkg/talk"
	"github.com/prometheus/client_golang/prometheus"
)

// App is everything a command needs, built from the configuration.
type App struct {
	Registry *talk.Registry
	Agent    *agent.Understands
	Metrics  *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Open builds the store selected by cfg and the registry over it.
// The caller must Close the App.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Metrics: prometheus.NewRegistry(), Logger: logger}

	store, locker, err := app.openStore(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if cfg.Encryption.Key != "" {
		mw, err := encryption(cfg.Encryption)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		store = mw(store)
	}

	app.Registry = talk.NewRegistry(store,
		talk.WithLogger(logger),
		talk.WithLocks(talk.NewLocks(locker, logger)),
		talk.WithMetrics(talk.NewMetrics(app.Metrics)),
		talk.WithActivationHook(func(ctx context.Context, name string, active bool) error {
			logger.Info("Talk activation changed", "talk", name, "active", active)
			return nil
		}),
	)
	app.Agent = agent.NewUnderstands(Catalog(cfg.Login, cfg.Authors),
		agent.WithLogger(logger),
		agent.WithMaxCommentSize(cfg.MaxComment),
	)
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (ports.TalkStore, ports.DistributedLocker, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.New(cfg.Dir), nil, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil, nil
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, store.Close)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func encryption(cfg config.Encryption) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.Key)
	if err != nil {
		return nil, err
	}
	var fallback [][]byte
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	}), nil
}

// Close releases the store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
