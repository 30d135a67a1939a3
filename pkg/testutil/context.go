package testutil

import (
	"context"
	"net/http"

	"vaultbridge/internal/platform/middleware"
)

// WithUserID adds an authenticated user id to the request context, simulating
// what RequireAuth does for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}

// WithAuth adds the full authenticated identity to the request context.
func WithAuth(req *http.Request, userID, email string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	}
	if email != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyEmail, email)
	}
	return req.WithContext(ctx)
}
