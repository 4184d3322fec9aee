package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned when a policy fails validation.
var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// DefaultBlockDuration is applied when a policy leaves BlockDuration unset.
const DefaultBlockDuration = 15 * time.Minute

// Policy governs one endpoint class: how many requests a client may issue
// per window, and for how long a client that exceeds that budget is blocked.
type Policy struct {
	MaxRequests   uint64
	Window        time.Duration
	BlockDuration time.Duration
}

// Validate reports whether the policy is usable. Callers should validate
// once at registration time so Execute never sees a bad policy at request
// time.
func (p Policy) Validate() error {
	if p.MaxRequests == 0 {
		return fmt.Errorf("%w: max requests must be positive", ErrInvalidPolicy)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidPolicy)
	}
	if p.BlockDuration < 0 {
		return fmt.Errorf("%w: block duration must not be negative", ErrInvalidPolicy)
	}
	return nil
}

// Endpoint classes with well-known policies.
const (
	EndpointGeneral      = "general"
	EndpointLogin        = "login"
	EndpointRegistration = "registration"
	EndpointBooking      = "booking"
	EndpointSearch       = "search"
)

// DefaultPolicies returns the per-endpoint-class policies the reservation
// system ships with. The login and registration classes are deliberately
// tight to slow down credential stuffing and signup abuse.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		EndpointGeneral:      {MaxRequests: 100, Window: time.Minute, BlockDuration: DefaultBlockDuration},
		EndpointLogin:        {MaxRequests: 5, Window: time.Minute, BlockDuration: DefaultBlockDuration},
		EndpointRegistration: {MaxRequests: 3, Window: 5 * time.Minute, BlockDuration: DefaultBlockDuration},
		EndpointBooking:      {MaxRequests: 10, Window: time.Minute, BlockDuration: DefaultBlockDuration},
		EndpointSearch:       {MaxRequests: 30, Window: time.Minute, BlockDuration: DefaultBlockDuration},
	}
}
