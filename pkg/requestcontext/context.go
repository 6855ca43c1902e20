// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, tests
// inject them. Keeping this package free of net/http lets the engine's
// services stay transport-agnostic.
//
// The injected clock (Now/WithTime) is what makes TTL behavior testable:
// caches and the session context never call time.Now directly when a
// request time is present in the context.
package requestcontext

import (
	"context"
	"time"

	id "clinid/pkg/domain"
)

type (
	requestIDKey   struct{}
	sessionIDKey   struct{}
	requestTimeKey struct{}
)

// WithRequestID stores the correlation id for a request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithSessionID stores the conversation session id.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionID returns the conversation session id, or the zero value.
func SessionID(ctx context.Context) id.SessionID {
	v, _ := ctx.Value(sessionIDKey{}).(id.SessionID)
	return v
}

// WithTime pins the request time. Tests use this to control TTL expiry.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
