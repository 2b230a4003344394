// Package requestid assigns a correlation ID to every request, honoring an
// inbound X-Request-ID header so IDs survive proxies.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"attest/pkg/requestcontext"
)

// Header is the canonical request ID header.
const Header = "X-Request-ID"

// Middleware reads or mints a request ID, stores it in the context, and
// echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
