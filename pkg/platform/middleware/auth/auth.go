// Package auth provides the moderator authentication middleware. All
// moderation and admin writes pass through RequireModerator before touching
// any store.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	request "serviapp/pkg/platform/middleware/request"
)

// TokenValidator validates a moderator bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims carries what the middleware needs from a validated token.
type Claims struct {
	ModeratorID string
	Role        string
}

// RoleModerator may transition registrations; RoleAdmin additionally manages
// providers directly.
const (
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type contextKeyModeratorID struct{}
type contextKeyRole struct{}

var (
	ContextKeyModeratorID = contextKeyModeratorID{}
	ContextKeyRole        = contextKeyRole{}
)

// GetModeratorID retrieves the authenticated moderator ID from the context.
func GetModeratorID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyModeratorID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(ContextKeyRole).(string)
	if !ok {
		return ""
	}
	return role
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireModerator rejects requests without a valid moderator bearer token.
func RequireModerator(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(validator, logger, RoleModerator, RoleAdmin)
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(validator, logger, RoleAdmin)
}

func requireRole(validator TokenValidator, logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if !roleAllowed(claims.Role, roles) {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"role", claims.Role,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role for this operation")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyModeratorID, claims.ModeratorID)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
