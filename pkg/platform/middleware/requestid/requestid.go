// Package requestid copies chi's request ID into requestcontext so services
// can log it without importing chi.
package requestid

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"jailcheck/pkg/requestcontext"
)

// Middleware must run after chi's middleware.RequestID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = requestcontext.WithRequestID(ctx, id)
		}
		w.Header().Set(middleware.RequestIDHeader, requestcontext.RequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
