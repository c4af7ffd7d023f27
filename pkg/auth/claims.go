// Package auth provides JWT-based authentication for hindsight.
// Tokens are issued by an external identity provider and validated against
// its JWKS endpoints; this package never mints its own credentials.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the JWT claims structure hindsight accepts. RegisteredClaims
// covers the standard fields (sub, iss, exp, ...); the custom fields carry
// the user's identity for display and audit.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetUserIDFromContext returns the token subject, or "" for an
// unauthenticated request. Used by audit logging, which must never fail just
// because auth is disabled.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
