package decision_recorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
	"github.com/redis/go-redis/v9"
)

var (
	_ ratelimit.Recorder = &RedisRecorder{}
)

// RedisRecorder tallies decisions in Redis hashes so several instances can
// share one audit view. The cumulative total never expires; minute buckets
// and per-key tallies carry a TTL to bound growth.
type RedisRecorder struct {
	rdb *redis.Client

	prefix string
	ttl    time.Duration
	bucket string // "minute" (default) or "none"

	trackKeys bool
}

type RedisOption func(*RedisRecorder)

func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRecorder) { r.prefix = strings.Trim(prefix, ":") }
}

func WithTTL(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

func WithBucket(bucket string) RedisOption {
	return func(r *RedisRecorder) { r.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithRedisTrackKeys(track bool) RedisOption {
	return func(r *RedisRecorder) { r.trackKeys = track }
}

func NewRedisRecorder(rdb *redis.Client, opts ...RedisOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "ratelimit:decisions",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRecorder) Record(ctx context.Context, ev ratelimit.Event) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.prefix+":total", field, 1)

	if r.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", r.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if r.ttl > 0 {
			pipe.Expire(ctx, bucketKey, r.ttl)
		}
	}

	if ep := strings.TrimSpace(ev.Endpoint); ep != "" {
		pipe.HIncrBy(ctx, r.prefix+":endpoint", ep+":"+field, 1)
	}

	if r.trackKeys {
		if k := strings.TrimSpace(ev.Key); k != "" {
			keyKey := r.prefix + ":key:" + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if r.ttl > 0 {
				pipe.Expire(ctx, keyKey, r.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
