package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &Config{}
	cfg.LoadDefaults()
	ts := httptest.NewServer(NewServer(cfg, NewStore(), nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		var raw any
		if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil {
			if m, ok := raw.(map[string]any); ok {
				out = m
			} else {
				out = map[string]any{"list": raw}
			}
		}
	}
	return resp, out
}

func register(t *testing.T, ts *httptest.Server, username, email string) string {
	t.Helper()
	resp, body := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "ann", "ann@example.com")

	resp, body := call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ann", user["username"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid email or password", body["message"])
}

func TestRegister_Errors(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "ann", "ann@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		field  string
	}{
		{"duplicate username", map[string]string{"username": "ann", "email": "x@example.com", "password": "secret1"}, http.StatusConflict, "username"},
		{"duplicate email", map[string]string{"username": "bob", "email": "ANN@example.com", "password": "secret1"}, http.StatusConflict, "email"},
		{"missing username", map[string]string{"email": "c@example.com", "password": "secret1"}, http.StatusUnprocessableEntity, "username"},
		{"short password", map[string]string{"username": "c", "email": "c@example.com", "password": "123"}, http.StatusUnprocessableEntity, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := call(t, ts, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestQRRoutes(t *testing.T) {
	ts := newTestServer(t)
	tok := register(t, ts, "ann", "ann@example.com")

	resp, _ := call(t, ts, http.MethodGet, "/api/qr/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := call(t, ts, http.MethodPost, "/api/qr/generate", tok, map[string]string{"url": "https://a.test", "name": "A"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Contains(t, data, "imageUrl")
	assert.Contains(t, data, "createdAt")
	assert.Equal(t, "url", data["type"])

	resp, body = call(t, ts, http.MethodGet, "/api/qr/history", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["list"].([]any)
	require.Len(t, list, 1)
	item := list[0].(map[string]any)
	assert.Contains(t, item, "image_url")
	assert.Contains(t, item, "created_at")

	resp, _ = call(t, ts, http.MethodPost, "/api/qr/generate", tok, map[string]string{"name": "no url"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodDelete, "/api/qr/1", tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = call(t, ts, http.MethodDelete, "/api/qr/1", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = call(t, ts, http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ann@example.com", body["user"].(map[string]any)["email"])

	resp, _ = call(t, ts, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]string{"-a", ":9999", "-ttl", "5", "-x", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 5.0, cfg.TokenTTL.Minutes())
	assert.Equal(t, "secretKey", cfg.SecretKey)

	_, err = LoadConfig([]string{"-ttl", "0"})
	assert.Error(t, err)
}
