package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

type redisStore struct {
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	metrics *metrics.Metrics
}

// NewRedisStore shares remembered visits between clinic-desk instances.
func NewRedisStore(ctx context.Context, cfg Config, m *metrics.Metrics) (VisitStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedisStore(client, cfg, m), nil
}

func newRedisStore(client *redis.Client, cfg Config, m *metrics.Metrics) *redisStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "clinicdesk:"
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &redisStore{client: client, ttl: cfg.TTL, prefix: cfg.Prefix, metrics: m}
}

func (s *redisStore) Remember(ctx context.Context, scope string, patientID, visitID model.ID) error {
	if err := s.client.Set(ctx, key(s.prefix, scope, patientID), visitID.String(), s.ttl).Err(); err != nil {
		s.metrics.SessionCacheOps.WithLabelValues("remember", "error").Inc()
		return fmt.Errorf("failed to remember visit: %w", err)
	}
	s.metrics.SessionCacheOps.WithLabelValues("remember", "ok").Inc()
	return nil
}

func (s *redisStore) Take(ctx context.Context, scope string, patientID model.ID) (model.ID, bool, error) {
	v, err := s.client.GetDel(ctx, key(s.prefix, scope, patientID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		s.metrics.SessionCacheOps.WithLabelValues("take", "miss").Inc()
		return "", false, nil
	case err != nil:
		s.metrics.SessionCacheOps.WithLabelValues("take", "error").Inc()
		return "", false, fmt.Errorf("failed to take visit: %w", err)
	}
	if v == "" {
		s.metrics.SessionCacheOps.WithLabelValues("take", "miss").Inc()
		return "", false, nil
	}
	s.metrics.SessionCacheOps.WithLabelValues("take", "hit").Inc()
	return model.ID(v), true, nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg Config, m *metrics.Metrics) (VisitStore, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.TTL, m), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg, m)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
