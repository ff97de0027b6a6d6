package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

type memoryStore struct {
	cache   *cache.Cache
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// NewMemoryStore keeps entries in process for ttl.
func NewMemoryStore(ttl time.Duration, m *metrics.Metrics) VisitStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &memoryStore{
		cache:   cache.New(ttl, 2*ttl),
		metrics: m,
	}
}

func (s *memoryStore) Remember(_ context.Context, scope string, patientID, visitID model.ID) error {
	s.cache.SetDefault(key("", scope, patientID), visitID)
	s.metrics.SessionCacheOps.WithLabelValues("remember", "ok").Inc()
	return nil
}

func (s *memoryStore) Take(_ context.Context, scope string, patientID model.ID) (model.ID, bool, error) {
	k := key("", scope, patientID)

	s.mu.Lock()
	v, found := s.cache.Get(k)
	if found {
		s.cache.Delete(k)
	}
	s.mu.Unlock()

	visitID, ok := v.(model.ID)
	if !found || !ok || visitID.IsZero() {
		s.metrics.SessionCacheOps.WithLabelValues("take", "miss").Inc()
		return "", false, nil
	}
	s.metrics.SessionCacheOps.WithLabelValues("take", "hit").Inc()
	return visitID, true, nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }
