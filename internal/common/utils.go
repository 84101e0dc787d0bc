package common

import (
	"strings"
)

// BearerValue formats token as an Authorization header value.
// An empty token yields an empty string so callers can skip the header.
func BearerValue(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return BearerScheme + " " + token
}

// ParseBearer extracts the token from an Authorization header value.
// It returns false when the value is not a bearer credential.
func ParseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
