package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Recovery returns middleware that converts a handler panic into a 500
// response instead of tearing down the connection. The panic value and stack
// are logged; the client sees an opaque error body.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Handler panic",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error":   "internal_error",
						"message": "Internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
