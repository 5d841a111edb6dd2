package testutil

import (
	"context"
	"net/http"

	"veriscan/internal/platform/middleware"
)

// WithSubject adds an authenticated subject to the request context. This
// simulates what the auth middleware does for authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubject, subject)
	return req.WithContext(ctx)
}

// WithRole adds a role to the request context.
func WithRole(req *http.Request, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRole, role)
	return req.WithContext(ctx)
}

// WithAuth adds both subject and role to the request context. This is the
// typical state for an authenticated dashboard request.
func WithAuth(req *http.Request, subject, role string) *http.Request {
	ctx := req.Context()
	if subject != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySubject, subject)
	}
	if role != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
