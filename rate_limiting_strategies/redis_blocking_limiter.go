package rate_limiting_strategies

import (
	"context"
	"errors"
	"fmt"
	"time"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
	"github.com/redis/go-redis/v9"
)

var (
	_ ratelimit.Strategy = &redisBlockingLimiter{}
)

const (
	keyDNE      = -2
	keyNoExpire = -1

	counterKeyPrefix = "ratelimit:counter:"
	blockKeyPrefix   = "ratelimit:block:"
)

type redisBlockingLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisBlockingLimiter creates a blocking fixed window limiter backed by
// Redis, for deployments where several instances must share counters and
// blocks. Key expiry in Redis replaces the in-memory limiter's sweep.
func NewRedisBlockingLimiter(client *redis.Client, now func() time.Time) ratelimit.Strategy {
	return &redisBlockingLimiter{
		client: client,
		now:    now,
	}
}

// Execute performs rate limiting with the same semantics as the in-memory
// limiter: a blocked client is denied up front with its counters untouched,
// and exceeding the window budget sets a block key with the policy's TTL.
func (l *redisBlockingLimiter) Execute(ctx context.Context, r *ratelimit.Request) (*ratelimit.Result, error) {
	if err := r.Policy.Validate(); err != nil {
		return nil, err
	}

	blockKey := blockKeyPrefix + r.Key

	blockTTL, err := l.client.PTTL(ctx, blockKey).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading block TTL for key %v: %w", r.Key, err)
	}
	if blockTTL > 0 {
		return &ratelimit.Result{
			State:      ratelimit.Deny,
			RetryAfter: blockTTL,
			ExpiresAt:  l.now().Add(blockTTL),
		}, nil
	}

	counterKey := counterKeyPrefix + r.Endpoint + ":" + r.Key

	// Redis pipeline to optimize network round trips.
	pipe := l.client.Pipeline()
	incrCmd := pipe.Incr(ctx, counterKey)
	ttlCmd := pipe.TTL(ctx, counterKey)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("error executing Redis pipeline for key %v: %w", r.Key, err)
	}

	var ttl time.Duration
	if duration, err := ttlCmd.Result(); err != nil || duration == keyDNE || duration == keyNoExpire {
		// fresh window: the counter key lives exactly one window
		ttl = r.Policy.Window
		if err := l.client.Expire(ctx, counterKey, r.Policy.Window).Err(); err != nil {
			return nil, fmt.Errorf("error setting expiration for key %v: %w", r.Key, err)
		}
	} else {
		ttl = duration
	}

	count, err := incrCmd.Uint64()
	if err != nil {
		return nil, fmt.Errorf("error incrementing key %v: %w", r.Key, err)
	}

	if count > r.Policy.MaxRequests {
		if err := l.setBlock(ctx, blockKey, r.Policy.BlockDuration); err != nil {
			return nil, err
		}
		return &ratelimit.Result{
			State:      ratelimit.Deny,
			RetryAfter: r.Policy.BlockDuration,
			ExpiresAt:  l.now().Add(r.Policy.BlockDuration),
		}, nil
	}

	return &ratelimit.Result{
		State:     ratelimit.Allow,
		Remaining: r.Policy.MaxRequests - count,
		ExpiresAt: l.now().Add(ttl),
	}, nil
}

func (l *redisBlockingLimiter) setBlock(ctx context.Context, blockKey string, duration time.Duration) error {
	if duration <= 0 {
		// zero duration means the block expires immediately
		return nil
	}
	if err := l.client.Set(ctx, blockKey, "1", duration).Err(); err != nil {
		return fmt.Errorf("error setting block key %v: %w", blockKey, err)
	}
	return nil
}
