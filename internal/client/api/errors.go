package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNetwork means no response was received.
	ErrNetwork = errors.New("network error")

	// ErrAuthRejected means the backend refused the credential or the
	// email/password pair.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrInvalidCredentials is ErrAuthRejected on a login attempt.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrAuthRejected)

	// ErrValidation covers malformed input, client or server side.
	ErrValidation = errors.New("validation error")

	// ErrConflict means a uniqueness constraint was violated.
	ErrConflict = errors.New("conflict")

	ErrUsernameTaken = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("email already registered: %w", ErrConflict)

	// ErrNotFound means the addressed resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInternal covers unexpected failures such as undecodable payloads.
	ErrInternal = errors.New("internal error")

	// Store-level outcomes.
	ErrLoadFailed          = errors.New("load failed")
	ErrDeleteFailed        = errors.New("delete failed")
	ErrOperationInProgress = errors.New("operation in progress")
	ErrNoSession           = errors.New("no active session")
)

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Message    string
	Field      string
	kind       error
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (http %d)", e.Unwrap(), e.StatusCode)
	}
	return fmt.Sprintf("%v (http %d): %s", e.Unwrap(), e.StatusCode, e.Message)
}

// Unwrap exposes the sentinel category so errors.Is works. An HTTPError
// built outside this package is classified from its status.
func (e *HTTPError) Unwrap() error {
	if e.kind == nil {
		return classify(e.StatusCode, e.Field, e.Message)
	}
	return e.kind
}

// errorBody is the loose error envelope the backend emits.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Field   string `json:"field"`
}

func newHTTPError(status int, body errorBody) *HTTPError {
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	e := &HTTPError{StatusCode: status, Message: msg, Field: body.Field}
	e.kind = classify(status, body.Field, msg)
	return e
}

func classify(status int, field, msg string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthRejected
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return conflictKind(field, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrInternal
	}
}

func conflictKind(field, msg string) error {
	hint := strings.ToLower(field)
	if hint == "" {
		hint = strings.ToLower(msg)
	}
	switch {
	case strings.Contains(hint, "email"):
		return ErrEmailTaken
	case strings.Contains(hint, "username"), strings.Contains(hint, "user name"):
		return ErrUsernameTaken
	default:
		return ErrConflict
	}
}
