package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// FailureAuditor receives rejected authentication attempts. Satisfied by
// audit.SecurityAuditor; declared here to keep the dependency pointing from
// audit to auth, not both ways.
type FailureAuditor interface {
	LogAuthFailure(reason, path, clientIP string)
}

// Middleware provides HTTP authentication middleware.
// It is thin and delegates token validation to AuthService.
type Middleware struct {
	authService AuthService
	auditor     FailureAuditor
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware. The auditor may be nil to
// disable security audit events (unit tests).
func NewMiddleware(authService AuthService, auditor FailureAuditor, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		auditor:     auditor,
		logger:      logger,
	}
}

// RequireAuth validates the JWT and injects claims and the raw token into
// the request context for downstream handlers. Rejections are audited.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			if m.auditor != nil {
				m.auditor.LogAuthFailure(err.Error(), r.URL.Path, r.RemoteAddr)
			}
			m.unauthorized(w, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
