package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serviapp/internal/ratelimit/models"
)

type stubLimiter struct {
	result *models.RateLimitResult
	err    error
}

func (s *stubLimiter) CheckIntake(context.Context, string) (*models.RateLimitResult, error) {
	return s.result, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
}

func TestLimitIntake_AllowedPassesThroughWithHeaders(t *testing.T) {
	limiter := &stubLimiter{result: &models.RateLimitResult{
		Allowed:   true,
		Limit:     5,
		Remaining: 3,
		ResetAt:   time.Unix(1700000000, 0),
	}}
	m := New(limiter, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/registrations", nil)
	m.LimitIntake(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))
}

func TestLimitIntake_LimitedReturns429(t *testing.T) {
	limiter := &stubLimiter{result: &models.RateLimitResult{
		Allowed:    false,
		Limit:      5,
		Remaining:  0,
		ResetAt:    time.Now().Add(10 * time.Minute),
		RetryAfter: 600,
	}}
	m := New(limiter, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/registrations", nil)
	m.LimitIntake(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestLimitIntake_LimiterErrorFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("store down")}
	m := New(limiter, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/registrations", nil)
	m.LimitIntake(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLimitIntake_DisabledSkipsChecks(t *testing.T) {
	limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: false}}
	m := New(limiter, testLogger(), WithDisabled(true))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/registrations", nil)
	m.LimitIntake(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
