package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRESTClient(srv.URL+"/api", 2*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestLogin_SendsCredentialsAndDecodesResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		assert.Equal(t, "secret", body["password"])

		writeJSON(w, http.StatusOK, `{"user":{"id":7,"username":"alice","email":"a@b.c"},"token":"T1"}`)
	})

	res, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Token)
	assert.Equal(t, User{ID: "7", Username: "alice", Email: "a@b.c"}, res.User)
}

func TestLogin_EnvelopedResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"user":{"id":"u-1","username":"bob"},"accessToken":"T2"}}`)
	})

	res, err := c.Login(context.Background(), "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "T2", res.Token)
	assert.Equal(t, "u-1", res.User.ID)
}

func TestLogin_401IsInvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"bad credentials"}`)
	})

	_, err := c.Login(context.Background(), "x", "y")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, ErrAuthRejected)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Equal(t, "bad credentials", he.Message)
}

func TestLogin_NoTokenIsInternal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":{"id":1}}`)
	})

	_, err := c.Login(context.Background(), "x", "y")
	require.ErrorIs(t, err, ErrInternal)
}

func TestRegister_ConflictMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"field email", `{"message":"duplicate","field":"email"}`, ErrEmailTaken},
		{"field username", `{"message":"duplicate","field":"username"}`, ErrUsernameTaken},
		{"message only", `{"message":"Username already exists"}`, ErrUsernameTaken},
		{"unknown", `{"message":"duplicate"}`, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/auth/register", r.URL.Path)
				writeJSON(w, http.StatusConflict, tt.body)
			})

			_, err := c.Register(context.Background(), Profile{Username: "u", Email: "e", Password: "p"})
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrConflict)
		})
	}
}

func TestRegister_422IsValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"error":"email is required"}`)
	})

	_, err := c.Register(context.Background(), Profile{})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "email is required")
}

func TestMe_UsesExplicitToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"user":{"id":3,"username":"carol","email":"c@d.e"}}`)
	})
	c.SetTokenSource(func() string { return "ignored" })

	u, err := c.Me(context.Background(), "stored")
	require.NoError(t, err)
	assert.Equal(t, "3", u.ID)
	assert.Equal(t, "carol", u.Username)
}

func TestHistory_AttachesBearerAndKeepsNumbers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[{"id":1,"image_url":"a.png"},{"id":"2","imageUrl":"b.png"}]`)
	})
	c.SetTokenSource(func() string { return "T" })

	items, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, json.Number("1"), items[0]["id"])
	assert.Equal(t, "2", items[1]["id"])
}

func TestHistory_EnvelopeAndEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"id":5}]}`)
	})
	items, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	items, err = c.History(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestHistory_MalformedIsInternal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":1}, 42]`)
	})
	_, err := c.History(context.Background())
	require.ErrorIs(t, err, ErrInternal)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":1`)
	})
	_, err = c.History(context.Background())
	require.ErrorIs(t, err, ErrInternal)
}

func TestHistory_401IsAuthRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
	})
	_, err := c.History(context.Background())
	require.ErrorIs(t, err, ErrAuthRejected)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGenerate_ReturnsRawObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qr/generate", r.URL.Path)
		var body GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, GenerateRequest{URL: "https://x.io", Name: "x"}, body)
		writeJSON(w, http.StatusCreated, `{"data":{"id":9,"url":"https://x.io"}}`)
	})

	raw, err := c.Generate(context.Background(), GenerateRequest{URL: "https://x.io", Name: "x"})
	require.NoError(t, err)
	require.Contains(t, raw, "data")
}

func TestDelete_StatusMapping(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.URL.Path {
		case "/api/qr/1":
			w.WriteHeader(http.StatusNoContent)
		case "/api/qr/2":
			writeJSON(w, http.StatusNotFound, `{"message":"gone"}`)
		default:
			writeJSON(w, http.StatusInternalServerError, `{"message":"boom"}`)
		}
	})

	require.NoError(t, c.Delete(context.Background(), "1"))
	assert.Equal(t, "/api/qr/1", gotPath)
	require.ErrorIs(t, c.Delete(context.Background(), "2"), ErrNotFound)
	require.ErrorIs(t, c.Delete(context.Background(), "3"), ErrInternal)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewRESTClient(url, time.Second)
	_, err := c.Login(context.Background(), "x", "y")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "the credential stays with the backend")
		switch r.URL.Path {
		case "/api/img/1.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(png)
		case "/api/img/denied.png":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c.SetTokenSource(func() string { return "T" })
	ctx := context.Background()

	got, err := c.Image(ctx, "/img/1.png")
	require.NoError(t, err)
	assert.Equal(t, png, got)

	_, err = c.Image(ctx, "/img/missing.png")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Image(ctx, "/img/denied.png")
	require.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrAuthRejected)
}

func TestImage_AbsoluteURL(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/create-qr-code/", r.URL.Path)
		_, _ = w.Write([]byte("img"))
	}))
	t.Cleanup(img.Close)

	c := NewRESTClient("http://127.0.0.1:1/api", 2*time.Second)
	got, err := c.Image(context.Background(), img.URL+"/v1/create-qr-code/?data=x")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), got)
}

func TestFieldString(t *testing.T) {
	obj := map[string]any{"a": "", "b": json.Number("12"), "c": "x", "d": nil}
	v, ok := FieldString(obj, "a", "d", "b")
	require.True(t, ok)
	assert.Equal(t, "12", v)

	_, ok = FieldString(obj, "missing", "a")
	assert.False(t, ok)
}
