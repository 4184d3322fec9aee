package rate_limiting_strategies

import (
	"context"
	"sync"
	"time"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
	"golang.org/x/time/rate"
)

var (
	_ ratelimit.Strategy = &TokenBucketLimiter{}
)

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter is an opt-in smooth-rate strategy: the policy budget is
// spread evenly over the window instead of resetting at a boundary, with
// bursts up to MaxRequests. It never auto-blocks; an over-rate client is
// simply denied until tokens refill.
//
// The reservation system's endpoint-class policies stay on the blocking
// fixed window limiter; this strategy exists for callers that would rather
// trade the boundary burst for a steady rate.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	entries map[string]*bucketEntry
	idleTTL time.Duration
}

type TokenBucketOption func(*TokenBucketLimiter)

// WithBucketIdleTTL overrides how long an idle client keeps its bucket.
func WithBucketIdleTTL(d time.Duration) TokenBucketOption {
	return func(t *TokenBucketLimiter) { t.idleTTL = d }
}

// NewTokenBucketLimiter creates a new token bucket rate limiter.
func NewTokenBucketLimiter(opts ...TokenBucketOption) *TokenBucketLimiter {
	t := &TokenBucketLimiter{
		entries: make(map[string]*bucketEntry),
		idleTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute performs rate limiting using a token bucket strategy.
func (t *TokenBucketLimiter) Execute(_ context.Context, r *ratelimit.Request) (*ratelimit.Result, error) {
	if err := r.Policy.Validate(); err != nil {
		return nil, err
	}

	lim := t.bucketFor(r)

	res := lim.Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return &ratelimit.Result{
			State:      ratelimit.Deny,
			RetryAfter: delay,
			ExpiresAt:  time.Now().Add(delay),
		}, nil
	}

	remaining := lim.Tokens()
	if remaining < 0 {
		remaining = 0
	}
	return &ratelimit.Result{
		State:     ratelimit.Allow,
		Remaining: uint64(remaining),
		ExpiresAt: time.Now().Add(r.Policy.Window),
	}, nil
}

func (t *TokenBucketLimiter) bucketFor(r *ratelimit.Request) *rate.Limiter {
	key := r.Endpoint + ":" + r.Key
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if ent, ok := t.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	perSecond := float64(r.Policy.MaxRequests) / r.Policy.Window.Seconds()
	lim := rate.NewLimiter(rate.Limit(perSecond), int(r.Policy.MaxRequests))
	t.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Sweep drops buckets that have seen no traffic within the idle TTL.
func (t *TokenBucketLimiter) Sweep() {
	cutoff := time.Now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, ent := range t.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(t.entries, key)
		}
	}
}

// StartJanitor sweeps idle buckets periodically until ctx is cancelled.
func (t *TokenBucketLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	tick := time.NewTicker(every)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				t.Sweep()
			}
		}
	}()
}
