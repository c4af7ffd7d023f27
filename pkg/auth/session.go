package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// Store is the session store for in-flight OAuth logins. It holds the state
// parameter, PKCE code verifier, and the URL the user was trying to reach.
var Store *sessions.CookieStore

// SessionName is the name of the OAuth session cookie.
const SessionName = "hindsight-oauth"

// Session value keys.
const (
	SessionKeyState        = "state"
	SessionKeyCodeVerifier = "code_verifier"
	SessionKeyOriginalURL  = "original_url"
)

// InitSessionStore initializes the cookie-based session store for the OAuth
// login flow.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive a 32-byte
// signing key. It must be consistent across restarts so logins that straddle
// a deploy still complete.
//
// The session lives 10 minutes, long enough for the redirect round trip and
// nothing more. Secure is derived from the deployment's base URL so local
// HTTP development still works.
func InitSessionStore(secret string, secure bool) {
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode, // the IdP redirect back is cross-site
	}
}

// GetSession retrieves the OAuth session from the request, creating a new
// one if absent.
func GetSession(r *http.Request) (*sessions.Session, error) {
	return Store.Get(r, SessionName)
}

// SaveSession saves the session to the response.
func SaveSession(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	return session.Save(r, w)
}

// ClearSessionValues removes OAuth state from the session after a completed
// or abandoned login.
func ClearSessionValues(session *sessions.Session) {
	delete(session.Values, SessionKeyState)
	delete(session.Values, SessionKeyCodeVerifier)
	delete(session.Values, SessionKeyOriginalURL)
}
