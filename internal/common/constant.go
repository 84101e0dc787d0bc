// Package common contains shared constants and small helpers used across
// QuickQR components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName correlates client log lines with backend requests.
	RequestIDHeaderName = "X-Request-ID"

	// BearerScheme is the authorization scheme used for session credentials.
	BearerScheme = "Bearer"

	// CredentialStorageKey is the fixed namespace under which the session
	// credential is persisted in durable client storage.
	CredentialStorageKey = "quickqr.session.token"

	// CredentialSavedAtKey records when the credential was last persisted.
	CredentialSavedAtKey = "quickqr.session.saved_at"
)
