package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const (
	fieldData    = "data"
	fieldUpdated = "updated"
)

// Store implements ports.TalkStore using Redis.
// Each talk is a hash holding its bytes and modification time, written
// with a single HSET so readers never see one without the other.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for talks.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the namespace of every key the store writes.
// Talks live under prefix+"talk:" and the index at prefix+"index".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "talks:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(name string) string {
	return s.prefix + "talk:" + name
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the talk bytes to Redis.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	now := time.Now()
	pipe := s.client.TxPipeline()

	// 1. Bytes and time in one command
	pipe.HSet(ctx, s.key(name), fieldData, data, fieldUpdated, now.UnixNano())
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(name), s.ttl)
	}

	// 2. Add to Index (ZSET)
	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(now.Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: name,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the talk bytes from Redis.
func (s *Store) Load(ctx context.Context, name string) (ports.Record, error) {
	vals, err := s.client.HMGet(ctx, s.key(name), fieldData, fieldUpdated).Result()
	if err != nil {
		return ports.Record{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return ports.Record{}, domain.ErrTalkNotFound
	}

	var updated time.Time
	if raw, ok := vals[1].(string); ok {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ports.Record{}, fmt.Errorf("corrupt %s field for %q: %w", fieldUpdated, name, err)
		}
		updated = time.Unix(0, nanos)
	}

	return ports.Record{Data: []byte(data), Updated: updated}, nil
}

// Delete removes the talk.
func (s *Store) Delete(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()

	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored talk names, pruning expired ones from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired talks: %w", err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list talks: %w", err)
	}

	return names, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
