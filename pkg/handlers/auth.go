package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/auth"
	"github.com/hindsightlog/hindsight/pkg/config"
)

// MeResponse for GET /api/me.
type MeResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

// AuthHandler drives the browser login flow: redirect to the identity
// provider with PKCE, exchange the callback code for a JWT, and store it in
// an httpOnly cookie. When auth is disabled these routes are not registered.
type AuthHandler struct {
	oauthClient *auth.OAuthClient
	config      *config.Config
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(oauthClient *auth.OAuthClient, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		oauthClient: oauthClient,
		config:      cfg,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
// requireAuth wraps only the endpoints that need an authenticated user.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /api/me", requireAuth(h.Me))
}

func (h *AuthHandler) redirectURI() string {
	return h.config.BaseURL + "/auth/callback"
}

// Login handles GET /auth/login.
// Generates state and a PKCE verifier, stashes them in the short-lived OAuth
// session cookie, and redirects the browser to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.loginError(w, err)
		return
	}
	verifier, err := auth.GenerateCodeVerifier()
	if err != nil {
		h.loginError(w, err)
		return
	}

	session, _ := auth.GetSession(r)
	session.Values[auth.SessionKeyState] = state
	session.Values[auth.SessionKeyCodeVerifier] = verifier
	if next := r.URL.Query().Get("next"); next != "" && next[0] == '/' {
		session.Values[auth.SessionKeyOriginalURL] = next
	}
	if err := auth.SaveSession(r, w, session); err != nil {
		h.loginError(w, err)
		return
	}

	authorizeURL := h.oauthClient.AuthorizeURL(state, auth.CodeChallengeS256(verifier), h.redirectURI())
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// Callback handles GET /auth/callback.
// Verifies the state parameter against the session, exchanges the code for
// a JWT, sets the httpOnly auth cookie, and sends the browser back to where
// it was headed.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_parameters", "Missing code or state"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	session, _ := auth.GetSession(r)
	expectedState, _ := session.Values[auth.SessionKeyState].(string)
	verifier, _ := session.Values[auth.SessionKeyCodeVerifier].(string)
	originalURL, _ := session.Values[auth.SessionKeyOriginalURL].(string)

	if expectedState == "" || state != expectedState {
		h.logger.Warn("OAuth state mismatch")
		if err := ErrorResponse(w, http.StatusBadRequest, "state_mismatch", "OAuth state mismatch"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	token, err := h.oauthClient.ExchangeCode(r.Context(), code, verifier, h.redirectURI())
	if err != nil {
		h.logger.Error("Token exchange failed", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadGateway, "token_exchange_failed", "Authentication failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	cookieSettings := auth.DeriveCookieSettings(h.config.BaseURL, h.config.CookieDomain)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   cookieSettings.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
		Path:     "/",
		Domain:   cookieSettings.Domain,
	})

	auth.ClearSessionValues(session)
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
	}

	if originalURL == "" {
		originalURL = "/"
	}
	h.logger.Info("Login completed", zap.String("redirect", originalURL))
	http.Redirect(w, r, originalURL, http.StatusFound)
}

// Logout handles POST /auth/logout by expiring the auth cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookieSettings := auth.DeriveCookieSettings(h.config.BaseURL, h.config.CookieDomain)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   cookieSettings.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Path:     "/",
		Domain:   cookieSettings.Domain,
	})

	h.logger.Info("User logged out")
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Me handles GET /api/me.
// Returns the authenticated user's identity from the validated claims.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok || claims == nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := MeResponse{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *AuthHandler) loginError(w http.ResponseWriter, err error) {
	h.logger.Error("Failed to start login", zap.Error(err))
	if err := ErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to start login"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
