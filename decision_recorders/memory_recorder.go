// Package decision_recorders provides Recorder implementations that persist
// rate limit decision events for auditing.
package decision_recorders

import (
	"context"
	"sync"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
)

var (
	_ ratelimit.Recorder = &MemoryRecorder{}
)

// Counters tallies allowed and denied decisions.
type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryRecorder keeps decision tallies and a bounded ring of recent events
// in process memory. Useful for tests, development, and small single-node
// deployments; nothing expires, so it is not meant for long-running
// high-cardinality key tracking.
type MemoryRecorder struct {
	mu         sync.Mutex
	total      Counters
	byEndpoint map[string]Counters
	byKey      map[string]Counters

	trackKeys bool

	recent     []ratelimit.Event
	recentNext int
	recentCap  int
}

type MemoryOption func(*MemoryRecorder)

// WithTrackKeys enables per-client tallies. Off by default since the key
// space is unbounded.
func WithTrackKeys(track bool) MemoryOption {
	return func(m *MemoryRecorder) { m.trackKeys = track }
}

// WithRecentCapacity overrides how many recent events are retained.
func WithRecentCapacity(n int) MemoryOption {
	return func(m *MemoryRecorder) { m.recentCap = n }
}

func NewMemoryRecorder(opts ...MemoryOption) *MemoryRecorder {
	m := &MemoryRecorder{
		byEndpoint: make(map[string]Counters),
		byKey:      make(map[string]Counters),
		recentCap:  1000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryRecorder) Record(_ context.Context, ev ratelimit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Allowed {
		m.total.Allowed++
	} else {
		m.total.Denied++
	}

	c := m.byEndpoint[ev.Endpoint]
	if ev.Allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	m.byEndpoint[ev.Endpoint] = c

	if m.trackKeys {
		k := m.byKey[ev.Key]
		if ev.Allowed {
			k.Allowed++
		} else {
			k.Denied++
		}
		m.byKey[ev.Key] = k
	}

	if m.recentCap > 0 {
		if len(m.recent) < m.recentCap {
			m.recent = append(m.recent, ev)
		} else {
			m.recent[m.recentNext] = ev
			m.recentNext = (m.recentNext + 1) % m.recentCap
		}
	}

	return nil
}

func (m *MemoryRecorder) Total() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *MemoryRecorder) ByEndpoint() map[string]Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Counters, len(m.byEndpoint))
	for k, v := range m.byEndpoint {
		out[k] = v
	}
	return out
}

func (m *MemoryRecorder) ByKey() map[string]Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Counters, len(m.byKey))
	for k, v := range m.byKey {
		out[k] = v
	}
	return out
}

// RecentEvents returns the retained events, oldest first.
func (m *MemoryRecorder) RecentEvents() []ratelimit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ratelimit.Event, 0, len(m.recent))
	if len(m.recent) == m.recentCap {
		out = append(out, m.recent[m.recentNext:]...)
		out = append(out, m.recent[:m.recentNext]...)
		return out
	}
	return append(out, m.recent...)
}
