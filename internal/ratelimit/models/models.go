package models

import (
	"strings"
	"time"
)

// Policy describes a sliding-window limit for one kind of caller.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitResult is the outcome of a single limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the 429 body returned to throttled clients.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// IntakeKey builds the bucket key for a public intake request.
// Keys are namespaced so the same backing store can hold other buckets.
func IntakeKey(ip string) string {
	return "rl:intake:" + sanitizeKeyPart(ip)
}

// sanitizeKeyPart strips characters that would break key parsing downstream.
func sanitizeKeyPart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return '_'
		default:
			return r
		}
	}, s)
}
