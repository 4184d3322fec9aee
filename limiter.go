package ratelimit

import (
	"context"
	"time"
)

// Request defines a request to be rate-limited.
type Request struct {
	Key      string
	Endpoint string
	Policy   Policy
}

// State represents the result of rate limiting.
type State int64

const (
	Deny State = iota
	Allow
)

// State strings for HTTP headers
var stateStrings = map[State]string{
	Allow: "Allow",
	Deny:  "Deny",
}

// Result is the outcome of a rate limit check.
//
// Remaining is the number of requests left in the current window when the
// request is allowed. RetryAfter is how long the client has to wait when it
// is denied; for an already blocked client it counts down to the end of the
// block. ExpiresAt is when the current window (or block) ends.
type Result struct {
	State      State
	Remaining  uint64
	RetryAfter time.Duration
	ExpiresAt  time.Time
}

// Strategy interface defines the contract for rate limiting strategies.
//
// An Execute call performs the whole read-check-increment for its key
// atomically, so callers never observe a half-applied decision.
type Strategy interface {
	Execute(ctx context.Context, r *Request) (*Result, error)
}
