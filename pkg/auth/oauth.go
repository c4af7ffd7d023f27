package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthClient drives the authorization-code-with-PKCE login flow against the
// configured identity provider. It builds authorize URLs and exchanges
// callback codes for tokens; token validation stays with the JWKS client.
type OAuthClient struct {
	authServerURL string
	clientID      string
	scopes        string
	httpClient    *http.Client
}

// NewOAuthClient creates a client for the given authorization server.
// authServerURL is the server base; /authorize and /token are derived from it.
func NewOAuthClient(authServerURL, clientID, scopes string) *OAuthClient {
	return &OAuthClient{
		authServerURL: strings.TrimRight(authServerURL, "/"),
		clientID:      clientID,
		scopes:        scopes,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GenerateState returns a random URL-safe state parameter.
func GenerateState() (string, error) {
	return randomURLSafe(32)
}

// GenerateCodeVerifier returns a random PKCE code verifier (RFC 7636).
func GenerateCodeVerifier() (string, error) {
	return randomURLSafe(32)
}

// CodeChallengeS256 derives the S256 code challenge from a verifier.
func CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthorizeURL builds the IdP authorize URL for a login attempt.
func (c *OAuthClient) AuthorizeURL(state, codeChallenge, redirectURI string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", c.scopes)
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")
	return c.authServerURL + "/authorize?" + q.Encode()
}

// tokenResponse is the subset of the token endpoint response we use.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// ExchangeCode trades an authorization code for a JWT at the token endpoint.
// Returns the ID token when present (OIDC), else the access token.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("code_verifier", codeVerifier)
	form.Set("client_id", c.clientID)
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authServerURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to decode token response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s %s", resp.StatusCode, tr.Error, tr.ErrorDesc)
	}

	if tr.IDToken != "" {
		return tr.IDToken, nil
	}
	if tr.AccessToken != "" {
		return tr.AccessToken, nil
	}
	return "", fmt.Errorf("token response contained no token")
}

// randomURLSafe returns n random bytes base64url-encoded without padding.
func randomURLSafe(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
