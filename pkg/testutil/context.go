package testutil

import (
	"net/http"
	"time"

	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
)

// WithUserID adds an authenticated user ID to the request context, simulating
// what the auth middleware does. Invalid IDs are silently ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// WithAuth adds user and session IDs to the request context, the typical
// state of an authenticated request. Invalid IDs are silently ignored.
func WithAuth(req *http.Request, userID, sessionID string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if parsed, err := id.ParseSessionID(sessionID); err == nil {
		ctx = requestcontext.WithSessionID(ctx, parsed)
	}
	return req.WithContext(ctx)
}

// WithAdmin marks the request context as an admin verifier session.
func WithAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithAdmin(req.Context(), true))
}

// WithTime pins the request-scoped clock to a fixed instant.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
