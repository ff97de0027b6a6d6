package visitdetail

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

// Manager keeps one Session per desk session and patient. Sessions expire
// after ttl without use.
type Manager struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	sessions *cache.Cache
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewManager(patients repository.PatientRepository, visits repository.VisitRepository, ttl time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if m == nil {
		m = metrics.NewNop()
	}
	sessions := cache.New(ttl, ttl/2)
	sessions.OnEvicted(func(string, interface{}) {
		m.DetailSessions.Dec()
	})
	return &Manager{
		patients: patients,
		visits:   visits,
		sessions: sessions,
		metrics:  m,
		logger:   logger.With().Str("service", "visitdetail").Logger(),
	}
}

func sessionKey(scope string, patientID model.ID) string {
	return scope + ":" + patientID.String()
}

// Open returns the chart session for scope and patient, loading it when it
// does not exist yet or when reload is set. A reload drops local edits.
func (m *Manager) Open(ctx context.Context, scope string, patientID model.ID, reload bool) (*Session, error) {
	key := sessionKey(scope, patientID)
	if !reload {
		if v, ok := m.sessions.Get(key); ok {
			s := v.(*Session)
			m.sessions.SetDefault(key, s)
			return s, nil
		}
	}

	s := newSession(m.patients, m.visits, m.metrics, m.logger.With().Str("patient_id", patientID.String()).Logger())
	if err := s.Load(ctx, patientID); err != nil {
		return nil, err
	}

	if _, found := m.sessions.Get(key); !found {
		m.metrics.DetailSessions.Inc()
	}
	m.sessions.SetDefault(key, s)
	return s, nil
}

// Close forgets the session.
func (m *Manager) Close(scope string, patientID model.ID) {
	m.sessions.Delete(sessionKey(scope, patientID))
}
