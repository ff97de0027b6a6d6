package session

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-desk/internal/model"
)

// VisitStore remembers the visit just created for a patient so the next
// screen can open it. An entry is read at most once. It is a navigation
// hint, never a source of truth.
type VisitStore interface {
	Remember(ctx context.Context, scope string, patientID, visitID model.ID) error
	// Take returns and forgets the remembered visit id. ok is false when
	// nothing was remembered or the entry expired.
	Take(ctx context.Context, scope string, patientID model.ID) (visitID model.ID, ok bool, err error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend  string
	TTL      time.Duration
	RedisURL string
	// Prefix namespaces Redis keys.
	Prefix string
}

func key(prefix, scope string, patientID model.ID) string {
	return prefix + "visit:" + scope + ":" + patientID.String()
}
