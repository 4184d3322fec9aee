package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	_ http.Handler = &httpRateLimiterHandler{}
	_ Extractor    = &httpHeaderExtractor{}
	_ Extractor    = &clientIPExtractor{}
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitState     = "X-RateLimit-State"
	headerRetryAfter         = "Retry-After"
)

// Extractor extracts a key from an HTTP request for rate limiting.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type httpHeaderExtractor struct {
	headers []string
}

// Extract extracts values from HTTP headers to build the key.
func (h *httpHeaderExtractor) Extract(r *http.Request) (string, error) {
	values := make([]string, 0, len(h.headers))

	for _, key := range h.headers {
		// if we can't find a value for a header we should return an error
		if value := strings.TrimSpace(r.Header.Get(key)); value != "" {
			values = append(values, value)
		} else {
			return "", fmt.Errorf("header %v must have a value set", key)
		}
	}

	return strings.Join(values, "-"), nil
}

// NewHTTPHeaderExtractor creates an Extractor that keys clients by the given
// headers, e.g. an API key header.
func NewHTTPHeaderExtractor(headers ...string) Extractor {
	return &httpHeaderExtractor{headers: headers}
}

type clientIPExtractor struct {
	trustProxyHeaders bool
}

// Extract resolves the client network address. When proxy headers are
// trusted it prefers the first X-Forwarded-For entry (the original client),
// then X-Real-IP, and falls back to the connection's remote address.
func (c *clientIPExtractor) Extract(r *http.Request) (string, error) {
	if c.trustProxyHeaders {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return ip, nil
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP, nil
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host, nil
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr, nil
	}
	return "", fmt.Errorf("request carries no client address")
}

// NewClientIPExtractor creates an Extractor that keys clients by network
// address. Only set trustProxyHeaders when a trusted proxy sits in front of
// the server, otherwise clients can forge their identity.
func NewClientIPExtractor(trustProxyHeaders bool) Extractor {
	return &clientIPExtractor{trustProxyHeaders: trustProxyHeaders}
}

// RateLimiterConfig holds configuration for rate limiting one endpoint class.
type RateLimiterConfig struct {
	Extractor Extractor
	Strategy  Strategy
	Endpoint  string
	Policy    Policy
	// Recorder receives one Event per decision; best-effort, may be nil.
	Recorder Recorder
}

type httpRateLimiterHandler struct {
	handler http.Handler
	config  *RateLimiterConfig
}

// NewHTTPRateLimiterHandler wraps an existing http.Handler and performs rate
// limiting before forwarding the request to the API. The policy is validated
// here so a misconfigured route fails at registration, not per request.
func NewHTTPRateLimiterHandler(originalHandler http.Handler, config *RateLimiterConfig) (http.Handler, error) {
	if config.Extractor == nil {
		return nil, fmt.Errorf("rate limiter for endpoint %q needs an extractor", config.Endpoint)
	}
	if config.Strategy == nil {
		return nil, fmt.Errorf("rate limiter for endpoint %q needs a strategy", config.Endpoint)
	}
	if err := config.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("rate limiter for endpoint %q: %w", config.Endpoint, err)
	}

	return &httpRateLimiterHandler{
		handler: originalHandler,
		config:  config,
	}, nil
}

// ServeHTTP performs rate limiting and forwards the request if allowed.
func (h *httpRateLimiterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, err := h.config.Extractor.Extract(r)
	if err != nil {
		h.writeResponse(w, http.StatusBadRequest, "failed to build rate limiting key from request: %v", err)
		return
	}

	result, err := h.config.Strategy.Execute(r.Context(), &Request{
		Key:      key,
		Endpoint: h.config.Endpoint,
		Policy:   h.config.Policy,
	})

	if err != nil {
		h.writeResponse(w, http.StatusInternalServerError, "failed to run rate limiting for request: %v", err)
		return
	}

	if h.config.Recorder != nil {
		_ = h.config.Recorder.Record(r.Context(), Event{
			ID:       uuid.New().String(),
			Key:      key,
			Endpoint: h.config.Endpoint,
			Allowed:  result.State == Allow,
			Method:   r.Method,
			Path:     r.URL.Path,
			At:       time.Now(),
		})
	}

	w.Header().Set(headerRateLimitLimit, strconv.FormatUint(h.config.Policy.MaxRequests, 10))
	w.Header().Set(headerRateLimitRemaining, strconv.FormatUint(result.Remaining, 10))
	w.Header().Set(headerRateLimitState, stateStrings[result.State])

	// Too many requests
	if result.State == Deny {
		w.Header().Set(headerRetryAfter, strconv.FormatInt(retryAfterSeconds(result.RetryAfter), 10))
		h.writeResponse(w, http.StatusTooManyRequests, "you have sent too many requests to this service, slow down please")
		return
	}

	h.handler.ServeHTTP(w, r)
}

// retryAfterSeconds rounds up so a client honoring the header never retries
// while still denied.
func retryAfterSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

func (h *httpRateLimiterHandler) writeResponse(w http.ResponseWriter, status int, msg string, args ...interface{}) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(fmt.Sprintf(msg, args...))); err != nil {
		fmt.Printf("failed to write body to HTTP request: %v", err)
	}
}
