package rate_limiting_strategies

import (
	"context"
	"errors"
	"testing"
	"time"

	ratelimit "github.com/Sanjaycs096/Railway-Reservation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBlockingLimiter_Execute(t *testing.T) {
	tt := []struct {
		desc        string
		runs        int
		req         *ratelimit.Request
		res         *ratelimit.Result
		timeAdvance time.Duration
	}{
		{
			desc: "returns Allow for requests under limit",
			req: &ratelimit.Request{
				Key:      "1.2.3.4",
				Endpoint: ratelimit.EndpointLogin,
				Policy:   loginPolicy(),
			},
			res: &ratelimit.Result{
				State:     ratelimit.Allow,
				Remaining: 2,
				ExpiresAt: time.Date(2024, time.June, 23, 10, 16, 30, 0, time.Local),
			},
			runs: 3,
		},
		{
			desc: "returns Deny and blocks once over the limit",
			req: &ratelimit.Request{
				Key:      "1.2.3.4",
				Endpoint: ratelimit.EndpointLogin,
				Policy:   loginPolicy(),
			},
			res: &ratelimit.Result{
				State:      ratelimit.Deny,
				RetryAfter: 15 * time.Minute,
				ExpiresAt:  time.Date(2024, time.June, 23, 10, 30, 30, 0, time.Local),
			},
			runs: 6,
		},
		{
			desc: "expires and starts again as the counter goes over its TTL",
			req: &ratelimit.Request{
				Key:      "1.2.3.4",
				Endpoint: ratelimit.EndpointLogin,
				Policy:   loginPolicy(),
			},
			res: &ratelimit.Result{
				State:     ratelimit.Allow,
				Remaining: 3,
				ExpiresAt: time.Date(2024, time.June, 23, 10, 18, 30, 0, time.Local),
			},
			runs:        6,
			timeAdvance: 30 * time.Second,
		},
	}

	for _, ts := range tt {
		t.Run(ts.desc, func(t *testing.T) {
			server, err := miniredis.Run()
			require.NoError(t, err)
			defer server.Close()

			now := time.Date(2024, time.June, 23, 10, 15, 30, 0, time.Local)

			client := redis.NewClient(&redis.Options{
				Addr: server.Addr(),
			})
			defer client.Close()

			limiter := NewRedisBlockingLimiter(client, func() time.Time {
				return now
			})

			var lastRes *ratelimit.Result
			var lastErr error

			for x := 0; x < ts.runs; x++ {
				lastRes, lastErr = limiter.Execute(context.Background(), ts.req)
				if ts.timeAdvance != 0 {
					server.FastForward(ts.timeAdvance)
					now = now.Add(ts.timeAdvance)
				}
			}

			require.NoError(t, lastErr)
			assert.Equal(t, ts.res, lastRes)
		})
	}
}

func TestRedisBlockingLimiter_BlockLifecycle(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	now := time.Date(2024, time.June, 23, 10, 15, 30, 0, time.Local)

	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	defer client.Close()

	limiter := NewRedisBlockingLimiter(client, func() time.Time {
		return now
	})

	req := &ratelimit.Request{
		Key:      "1.2.3.4",
		Endpoint: ratelimit.EndpointLogin,
		Policy:   loginPolicy(),
	}

	for i := 0; i < 5; i++ {
		res, err := limiter.Execute(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, ratelimit.Allow, res.State)
		require.Equal(t, uint64(4-i), res.Remaining)
	}

	res, err := limiter.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Deny, res.State)
	assert.Equal(t, 15*time.Minute, res.RetryAfter)

	// mid-block the deny comes from the block key, retry-after ticking down
	server.FastForward(10 * time.Second)
	now = now.Add(10 * time.Second)

	res, err = limiter.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Deny, res.State)
	assert.Equal(t, 890*time.Second, res.RetryAfter)

	// once the block key expires a fresh window starts
	server.FastForward(890 * time.Second)
	now = now.Add(890 * time.Second)

	res, err = limiter.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Allow, res.State)
	assert.Equal(t, uint64(4), res.Remaining)
}

func TestRedisBlockingLimiter_InvalidPolicy(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	defer client.Close()

	limiter := NewRedisBlockingLimiter(client, time.Now)

	res, err := limiter.Execute(context.Background(), &ratelimit.Request{
		Key:      "1.2.3.4",
		Endpoint: ratelimit.EndpointGeneral,
		Policy:   ratelimit.Policy{MaxRequests: 0, Window: time.Minute},
	})

	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ratelimit.ErrInvalidPolicy))
}
