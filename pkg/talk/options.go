package talk

import (
	"context"
	"log/slog"

	"github.com/aretw0/talks/internal/logging"
	"github.com/aretw0/talks/pkg/migration"
	"github.com/aretw0/talks/pkg/schema"
)

// ActivationHook is called by Talk.Active. Collaborators that track
// activation outside the document (schedulers, indexes) plug in here.
type ActivationHook func(ctx context.Context, talk string, active bool) error

// env is the machinery shared by every talk of a registry.
type env struct {
	locks     *Locks
	chain     migration.Chain
	validator schema.Validator
	hook      ActivationHook
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures talks.
type Option func(*env)

// WithLocks shares a lock table, so talks built separately still exclude each other.
func WithLocks(locks *Locks) Option {
	return func(e *env) {
		e.locks = locks
	}
}

// WithUpgrades replaces the default migration chain.
func WithUpgrades(chain migration.Chain) Option {
	return func(e *env) {
		e.chain = chain
	}
}

// WithValidator replaces the default schema.
func WithValidator(v schema.Validator) Option {
	return func(e *env) {
		e.validator = v
	}
}

// WithActivationHook sets the hook called by Active.
func WithActivationHook(hook ActivationHook) Option {
	return func(e *env) {
		e.hook = hook
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *env) {
		e.logger = logger
	}
}

// WithMetrics records modifications in m.
func WithMetrics(m *Metrics) Option {
	return func(e *env) {
		e.metrics = m
	}
}

func newEnv(opts []Option) *env {
	e := &env{
		chain:     Upgrades(),
		validator: CurrentSchema(),
		logger:    logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locks == nil {
		e.locks = NewLocks(nil, e.logger)
	}
	return e
}
