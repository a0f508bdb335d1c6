package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/shelfdex/shelfdex/pkg/logger"
)

type requestIDKey struct{}

// RequestID assigns a request ID (from the X-Request-ID header, if the
// caller supplied one, otherwise a fresh UUID), stores it on the request
// context for GetRequestID and pkg/logger, and echoes it back as a
// response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = logger.WithRequestID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored in ctx by RequestID, or ""
// if none is present.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
