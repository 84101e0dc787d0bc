// Package session holds the client's authentication state: the single
// process-wide answer to "who is using this client right now".
//
// # State machine
//
//	Unknown ──Restore──▶ Anonymous | Authenticated
//	Anonymous ──Login/Register──▶ Authenticated
//	Authenticated ──Logout/Reject──▶ Anonymous
//
// Unknown is entered once, at construction. There is no terminal state.
//
// # Credential
//
// The bearer token is owned by the Store. It is persisted through a
// storage.CredentialStore and handed to the transport only through
// TokenSource; State never carries it. Views should depend on Reader.
//
// # Concurrency
//
// Login, Register and Restore are mutually exclusive: a call made while
// another is outstanding fails with api.ErrOperationInProgress instead of
// racing a second credential into storage. Logout never waits.
// Subscribers are notified synchronously after every transition.
package session
