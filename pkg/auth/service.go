package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName is the httpOnly cookie carrying the JWT for browser clients.
const CookieName = "hindsight_jwt"

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// AuthService defines the interface for authentication operations.
// This abstraction separates HTTP handling from token validation, making
// both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request.
	// The token is looked up in:
	//   1. Cookie named "hindsight_jwt" (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the validated claims and the raw token string.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger,
	}
}

// ValidateRequest extracts and validates a JWT from the request.
func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	var tokenString string
	var tokenSource string

	// Try cookie first (browser clients)
	if cookie, err := r.Cookie(CookieName); err == nil {
		tokenString = cookie.Value
		tokenSource = "cookie"
	} else {
		// Fallback to Authorization header (API clients)
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.logger.Debug("No JWT found in request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			return nil, "", ErrMissingAuthorization
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return nil, "", ErrInvalidAuthFormat
		}
		tokenString = parts[1]
		tokenSource = "header"
	}

	claims, err := s.jwksClient.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	return claims, tokenString, nil
}

var _ AuthService = (*authService)(nil)
