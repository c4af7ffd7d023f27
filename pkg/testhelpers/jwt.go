package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates a test JWT token for use when verification is
// disabled. The token has a valid structure but no signature (alg: none),
// which the unverified development-mode parser accepts.
func GenerateTestJWT(sub, email, name string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s"`, sub)
	if email != "" {
		payload += fmt.Sprintf(`,"email":"%s"`, email)
	}
	if name != "" {
		payload += fmt.Sprintf(`,"name":"%s"`, name)
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix for
// the Authorization header.
func GenerateTestJWTWithBearer(sub, email, name string) string {
	return "Bearer " + GenerateTestJWT(sub, email, name)
}
