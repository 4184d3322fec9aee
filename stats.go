package ratelimit

import (
	"context"
	"time"
)

// Event is one rate limit decision, emitted for auditing.
//
// Method and Path are plain strings so recorders stay usable outside HTTP.
// Beware of cardinality when persisting Key or Path without limits.
type Event struct {
	ID       string
	Key      string
	Endpoint string
	Allowed  bool

	Method string
	Path   string

	At time.Time
}

// Recorder persists rate limit decision events.
//
// Implementations may store events in memory, Redis, etc. Callers must
// treat Record as best-effort and never fail a request on a recorder error.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}
