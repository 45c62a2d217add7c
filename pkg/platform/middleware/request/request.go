package request

import (
	"net/http"

	"github.com/google/uuid"

	"partyreg/pkg/requestcontext"
)

// HeaderRequestID is honored when the caller supplies its own request ID.
const HeaderRequestID = "X-Request-Id"

// WithRequestID injects a request ID into the context and echoes it on the
// response so clients can correlate logs.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), requestID)))
	})
}
