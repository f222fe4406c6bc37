// Package service implements the intake rate limiter. A sliding-window bucket
// store tracks submissions per client IP; when the primary store fails a
// circuit breaker routes checks to an in-memory fallback so intake stays
// limited during a Redis outage.
package service

import (
	"context"
	"log/slog"
	"time"

	"serviapp/internal/ratelimit/metrics"
	"serviapp/internal/ratelimit/models"
	"serviapp/internal/ratelimit/store/bucket"
	"serviapp/pkg/platform/circuit"
)

// BucketStore checks and records requests against a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

// Limiter applies the intake policy per client IP.
type Limiter struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	policy   models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMetrics attaches limiter metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// WithFallback overrides the fallback store, mainly for tests.
func WithFallback(store BucketStore) Option {
	return func(l *Limiter) {
		if store != nil {
			l.fallback = store
		}
	}
}

// New builds a Limiter over the given primary store. The fallback defaults to
// a fresh in-memory store.
func New(primary BucketStore, policy models.Policy, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		primary:  primary,
		fallback: bucket.NewInMemoryBucketStore(),
		breaker:  circuit.New("ratelimit-bucket"),
		policy:   policy,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckIntake applies the intake policy for one client IP. Errors from the
// fallback store are returned as-is; the middleware decides whether to fail
// open.
func (l *Limiter) CheckIntake(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	key := models.IntakeKey(ip)

	if l.breaker.IsOpen() {
		// Probe the primary so the breaker can close again.
		if result, err := l.primary.Allow(ctx, key, l.policy.MaxRequests, l.policy.Window); err == nil {
			if usePrimary, change := l.breaker.RecordSuccess(); usePrimary {
				if change.Closed {
					l.logger.Info("rate limit store recovered, leaving fallback", "breaker", l.breaker.Name())
					l.metrics.SetBreakerOpen(false)
				}
				l.metrics.RecordCheck(result.Allowed)
				return result, nil
			}
		} else {
			l.breaker.RecordFailure()
		}
		l.metrics.RecordFallback()
		result, err := l.fallback.Allow(ctx, key, l.policy.MaxRequests, l.policy.Window)
		if err == nil {
			l.metrics.RecordCheck(result.Allowed)
		}
		return result, err
	}

	result, err := l.primary.Allow(ctx, key, l.policy.MaxRequests, l.policy.Window)
	if err != nil {
		useFallback, change := l.breaker.RecordFailure()
		if change.Opened {
			l.logger.Error("rate limit store failing, switching to in-memory fallback",
				"breaker", l.breaker.Name(), "error", err)
			l.metrics.SetBreakerOpen(true)
		}
		if useFallback {
			l.metrics.RecordFallback()
			result, err = l.fallback.Allow(ctx, key, l.policy.MaxRequests, l.policy.Window)
			if err == nil {
				l.metrics.RecordCheck(result.Allowed)
			}
			return result, err
		}
		return nil, err
	}

	l.breaker.RecordSuccess()
	l.metrics.RecordCheck(result.Allowed)
	return result, nil
}

// Reset clears the bucket for an IP on both stores.
func (l *Limiter) Reset(ctx context.Context, ip string) error {
	key := models.IntakeKey(ip)
	if err := l.primary.Reset(ctx, key); err != nil {
		return err
	}
	return l.fallback.Reset(ctx, key)
}
