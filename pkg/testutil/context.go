package testutil

import (
	"context"
	"net/http"
	"time"

	id "partyreg/pkg/domain"
	"partyreg/pkg/requestcontext"
)

// WithCaller adds an authenticated identity to the request context,
// simulating what the auth middleware does for signed-in requests.
func WithCaller(req *http.Request, caller string) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), id.Identity(caller))
	return req.WithContext(ctx)
}

// WithAdmin marks the request context as admin-authenticated.
func WithAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithAdmin(req.Context()))
}

// FrozenContext returns a context with a fixed request time so assertions on
// timestamps are deterministic.
func FrozenContext(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
