package rate_limiting_strategies

import (
	"context"
	"sync"
	"time"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
)

var (
	_ ratelimit.Strategy = &BlockingWindowLimiter{}
)

type counterKey struct {
	key      string
	endpoint string
}

type windowCounter struct {
	count       uint64
	windowStart time.Time
	// window is the policy window the counter was last touched under,
	// kept so Sweep knows when the counter has gone stale.
	window time.Duration
}

// BlockingWindowLimiter counts requests per (client, endpoint) over fixed
// windows and hard-blocks a client that exceeds its budget.
//
// Window renewal is a hard reset at the window boundary: a burst straddling
// the boundary can reach twice the budget. That matches the behavior the
// rest of the reservation system was tuned against and must not be swapped
// for a sliding window.
//
// A single mutex guards both tables; every Execute and Sweep is O(1) or a
// plain map walk, so the lock is never held across anything slow.
type BlockingWindowLimiter struct {
	now func() time.Time

	mu       sync.Mutex
	counters map[counterKey]*windowCounter
	blocks   map[string]time.Time
}

// NewBlockingWindowLimiter creates the in-memory blocking fixed window
// limiter. now is injected so tests can control time.
func NewBlockingWindowLimiter(now func() time.Time) *BlockingWindowLimiter {
	return &BlockingWindowLimiter{
		now:      now,
		counters: make(map[counterKey]*windowCounter),
		blocks:   make(map[string]time.Time),
	}
}

// Execute performs one rate limit check.
//
// A blocked client is denied without touching its counters; the block's own
// expiry is authoritative, there is no extra cool-down. Once the block
// lapses the next request lands in a fresh window.
func (b *BlockingWindowLimiter) Execute(_ context.Context, r *ratelimit.Request) (*ratelimit.Result, error) {
	if err := r.Policy.Validate(); err != nil {
		return nil, err
	}

	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if until, ok := b.blocks[r.Key]; ok {
		if now.Before(until) {
			return &ratelimit.Result{
				State:      ratelimit.Deny,
				RetryAfter: until.Sub(now),
				ExpiresAt:  until,
			}, nil
		}
		delete(b.blocks, r.Key)
	}

	ck := counterKey{key: r.Key, endpoint: r.Endpoint}
	counter, ok := b.counters[ck]
	if !ok {
		counter = &windowCounter{windowStart: now}
		b.counters[ck] = counter
	} else if now.Sub(counter.windowStart) >= r.Policy.Window {
		counter.count = 0
		counter.windowStart = now
	}
	counter.window = r.Policy.Window

	counter.count++

	if counter.count > r.Policy.MaxRequests {
		until := now.Add(r.Policy.BlockDuration)
		b.blocks[r.Key] = until
		return &ratelimit.Result{
			State:      ratelimit.Deny,
			RetryAfter: r.Policy.BlockDuration,
			ExpiresAt:  until,
		}, nil
	}

	return &ratelimit.Result{
		State:     ratelimit.Allow,
		Remaining: r.Policy.MaxRequests - counter.count,
		ExpiresAt: counter.windowStart.Add(r.Policy.Window),
	}, nil
}

// Sweep drops counters whose window expired more than one full window ago
// with no renewed activity, and blocks that have lapsed. It shares the
// Execute mutex, so it can never remove an entry out from under a check.
func (b *BlockingWindowLimiter) Sweep() {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	for ck, counter := range b.counters {
		if now.Sub(counter.windowStart) >= 2*counter.window {
			delete(b.counters, ck)
		}
	}
	for key, until := range b.blocks {
		if !now.Before(until) {
			delete(b.blocks, key)
		}
	}
}

// StartJanitor starts a goroutine that sweeps expired entries periodically,
// independent of request traffic. Stop it by cancelling the context.
func (b *BlockingWindowLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.Sweep()
			}
		}
	}()
}
