package auth

import (
	"net/url"
)

// CookieSettings contains cookie security settings derived from the
// deployment's base URL.
type CookieSettings struct {
	// Secure restricts the cookie to HTTPS.
	Secure bool
	// Domain scopes the cookie; empty means host-only.
	Domain string
}

// DeriveCookieSettings determines cookie settings from the base URL, with an
// explicit config override for the domain. Localhost over HTTP gets an
// insecure cookie so local development works; anything else defaults to
// Secure.
func DeriveCookieSettings(baseURL, configCookieDomain string) CookieSettings {
	if configCookieDomain != "" {
		return CookieSettings{
			Secure: isHTTPS(baseURL),
			Domain: configCookieDomain,
		}
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		// Safe defaults for invalid URLs.
		return CookieSettings{Secure: true}
	}

	return CookieSettings{
		Secure: parsedURL.Scheme != "http",
	}
}

// isHTTPS reports whether the base URL uses HTTPS. Empty or unparseable URLs
// report true, the safe default.
func isHTTPS(baseURL string) bool {
	if baseURL == "" {
		return true
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return true
	}
	return parsedURL.Scheme != "http"
}
