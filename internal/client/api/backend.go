package api

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Backend is the QR service as seen by the client stores.
type Backend interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, profile Profile) (*AuthResult, error)

	// Me resolves the profile owning token. It is used to validate a
	// persisted credential before the session is considered authenticated.
	Me(ctx context.Context, token string) (*User, error)

	History(ctx context.Context) ([]RawRecord, error)
	Generate(ctx context.Context, req GenerateRequest) (RawRecord, error)
	Delete(ctx context.Context, id string) error
}

// TokenSource yields the credential for authenticated calls; an empty
// string means no credential.
type TokenSource func() string

// User is the authenticated principal.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResult is the outcome of login and register.
type AuthResult struct {
	User  User
	Token string
}

// Profile is the registration payload.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GenerateRequest asks the backend for a new QR code.
type GenerateRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// RawRecord is an undecoded backend object. Numbers are json.Number.
type RawRecord map[string]any

// FieldString returns the first key of obj holding a non-empty scalar, as
// text. Numbers keep their literal form.
func FieldString(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch value := v.(type) {
		case string:
			if strings.TrimSpace(value) != "" {
				return value, true
			}
		case json.Number:
			return value.String(), true
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(value), true
		}
	}
	return "", false
}

func decodeUser(obj map[string]any) (*User, bool) {
	id, ok := FieldString(obj, "id", "_id", "user_id", "userId")
	if !ok {
		return nil, false
	}
	u := &User{ID: id}
	u.Username, _ = FieldString(obj, "username", "name")
	u.Email, _ = FieldString(obj, "email")
	return u, true
}
