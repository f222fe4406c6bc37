package testutil

import (
	"context"
	"net/http"

	authmw "serviapp/pkg/platform/middleware/auth"
)

// WithModerator adds moderator claims to the request context, simulating what
// the auth middleware does for an authenticated moderation request.
func WithModerator(req *http.Request, moderatorID string) *http.Request {
	return WithRole(req, moderatorID, authmw.RoleModerator)
}

// WithAdmin adds admin claims to the request context.
func WithAdmin(req *http.Request, moderatorID string) *http.Request {
	return WithRole(req, moderatorID, authmw.RoleAdmin)
}

// WithRole adds arbitrary auth claims to the request context.
func WithRole(req *http.Request, moderatorID, role string) *http.Request {
	ctx := req.Context()
	if moderatorID != "" {
		ctx = context.WithValue(ctx, authmw.ContextKeyModeratorID, moderatorID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, authmw.ContextKeyRole, role)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
