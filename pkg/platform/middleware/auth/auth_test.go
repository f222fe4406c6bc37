package auth_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "serviapp/pkg/platform/middleware/auth"
	"serviapp/pkg/testutil"
)

type stubValidator struct {
	claims *authmw.Claims
	err    error
}

func (v *stubValidator) ValidateToken(string) (*authmw.Claims, error) {
	return v.claims, v.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func claimsEcho(t *testing.T, gotModerator, gotRole *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotModerator = authmw.GetModeratorID(r.Context())
		*gotRole = authmw.GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireModerator(t *testing.T) {
	t.Run("missing authorization header is rejected", func(t *testing.T) {
		validator := &stubValidator{claims: &authmw.Claims{ModeratorID: "m1", Role: authmw.RoleModerator}}
		handler := authmw.RequireModerator(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler should not be reached")
		}))

		req := testutil.NewRequest(t, http.MethodGet, "/registrations")
		rec := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		validator := &stubValidator{err: errors.New("expired")}
		handler := authmw.RequireModerator(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler should not be reached")
		}))

		req := testutil.NewRequest(t, http.MethodGet, "/registrations")
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid moderator token passes claims through", func(t *testing.T) {
		validator := &stubValidator{claims: &authmw.Claims{ModeratorID: "mod-123", Role: authmw.RoleModerator}}
		var gotModerator, gotRole string
		handler := authmw.RequireModerator(validator, discardLogger())(claimsEcho(t, &gotModerator, &gotRole))

		req := testutil.NewRequest(t, http.MethodGet, "/registrations")
		req.Header.Set("Authorization", "Bearer good-token")
		rec := testutil.DoRequest(handler, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "mod-123", gotModerator)
		assert.Equal(t, authmw.RoleModerator, gotRole)
	})

	t.Run("admin role is accepted on moderator routes", func(t *testing.T) {
		validator := &stubValidator{claims: &authmw.Claims{ModeratorID: "adm-1", Role: authmw.RoleAdmin}}
		var gotModerator, gotRole string
		handler := authmw.RequireModerator(validator, discardLogger())(claimsEcho(t, &gotModerator, &gotRole))

		req := testutil.NewRequest(t, http.MethodGet, "/registrations")
		req.Header.Set("Authorization", "Bearer good-token")
		rec := testutil.DoRequest(handler, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, authmw.RoleAdmin, gotRole)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("moderator role is forbidden on admin routes", func(t *testing.T) {
		validator := &stubValidator{claims: &authmw.Claims{ModeratorID: "m1", Role: authmw.RoleModerator}}
		handler := authmw.RequireAdmin(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler should not be reached")
		}))

		req := testutil.NewRequest(t, http.MethodGet, "/admin/providers")
		req.Header.Set("Authorization", "Bearer good-token")
		rec := testutil.DoRequest(handler, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "forbidden")
	})
}

func TestContextHelpers(t *testing.T) {
	req := testutil.NewRequest(t, http.MethodGet, "/registrations")
	req = testutil.WithModerator(req, "mod-9")

	assert.Equal(t, "mod-9", authmw.GetModeratorID(req.Context()))
	assert.Equal(t, authmw.RoleModerator, authmw.GetRole(req.Context()))

	req = testutil.WithAdmin(req, "adm-2")
	assert.Equal(t, "adm-2", authmw.GetModeratorID(req.Context()))
	assert.Equal(t, authmw.RoleAdmin, authmw.GetRole(req.Context()))

	assert.Empty(t, authmw.GetModeratorID(testutil.NewRequest(t, http.MethodGet, "/").Context()))
}
