package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/common"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// RESTClient implements Backend over the backend's JSON HTTP API.
type RESTClient struct {
	http *resty.Client

	mu     sync.RWMutex
	tokens TokenSource
}

var _ Backend = (*RESTClient)(nil)

// NewRESTClient creates a resty-backed client rooted at baseURL.
func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "QuickQR-Client/1.0").
		SetTimeout(timeout)

	return &RESTClient{http: httpClient}
}

// SetTokenSource installs the credential provider used by authenticated
// calls. The session store owns the credential; the client only reads it.
func (c *RESTClient) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *RESTClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens()
}

func (c *RESTClient) newRequest(ctx context.Context, token string) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetHeader(common.RequestIDHeaderName, uuid.NewString())
	if v := common.BearerValue(token); v != "" {
		req.SetHeader(common.AuthorizationHeaderName, v)
	}
	return req
}

// execute sends req and returns the decoded body (nil for empty bodies).
func (c *RESTClient) execute(req *resty.Request, method, path string) (any, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}

	if resp.IsError() {
		var body errorBody
		_ = json.Unmarshal(resp.Body(), &body)
		return nil, newHTTPError(resp.StatusCode(), body)
	}

	return decodeBody(resp.Body())
}

func decodeBody(b []byte) (any, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInternal, err)
	}
	return v, nil
}

// unwrapData strips a {"data": ...} envelope.
func unwrapData(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if inner, ok := obj["data"]; ok && inner != nil {
		return inner
	}
	return v
}

func decodeAuthResult(v any) (*AuthResult, error) {
	obj, ok := unwrapData(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: auth response is not an object", ErrInternal)
	}

	token, ok := FieldString(obj, "token", "access_token", "accessToken")
	if !ok {
		return nil, fmt.Errorf("%w: auth response carries no token", ErrInternal)
	}

	userObj, ok := obj["user"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: auth response carries no user", ErrInternal)
	}
	user, ok := decodeUser(userObj)
	if !ok {
		return nil, fmt.Errorf("%w: user without id", ErrInternal)
	}

	return &AuthResult{User: *user, Token: token}, nil
}

// Login calls POST /auth/login.
func (c *RESTClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req := c.newRequest(ctx, "").
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"email": email, "password": password})

	v, err := c.execute(req, http.MethodPost, "/auth/login")
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) && errors.Is(he.kind, ErrAuthRejected) {
			he.kind = ErrInvalidCredentials
		}
		return nil, err
	}
	return decodeAuthResult(v)
}

// Register calls POST /auth/register.
func (c *RESTClient) Register(ctx context.Context, profile Profile) (*AuthResult, error) {
	req := c.newRequest(ctx, "").
		SetHeader("Content-Type", "application/json").
		SetBody(profile)

	v, err := c.execute(req, http.MethodPost, "/auth/register")
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(v)
}

// Me calls GET /auth/me with the given token.
func (c *RESTClient) Me(ctx context.Context, token string) (*User, error) {
	v, err := c.execute(c.newRequest(ctx, token), http.MethodGet, "/auth/me")
	if err != nil {
		return nil, err
	}

	obj, ok := unwrapData(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: profile response is not an object", ErrInternal)
	}
	if inner, ok := obj["user"].(map[string]any); ok {
		obj = inner
	}
	user, ok := decodeUser(obj)
	if !ok {
		return nil, fmt.Errorf("%w: user without id", ErrInternal)
	}
	return user, nil
}

// History calls GET /qr/history.
func (c *RESTClient) History(ctx context.Context) ([]RawRecord, error) {
	v, err := c.execute(c.newRequest(ctx, c.token()), http.MethodGet, "/qr/history")
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []RawRecord{}, nil
	}

	items, ok := unwrapData(v).([]any)
	if !ok {
		return nil, fmt.Errorf("%w: history response is not a list", ErrInternal)
	}

	out := make([]RawRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: history item %d is not an object", ErrInternal, i)
		}
		out = append(out, RawRecord(obj))
	}
	return out, nil
}

// Generate calls POST /qr/generate. The result may still be enveloped.
func (c *RESTClient) Generate(ctx context.Context, gr GenerateRequest) (RawRecord, error) {
	req := c.newRequest(ctx, c.token()).
		SetHeader("Content-Type", "application/json").
		SetBody(gr)

	v, err := c.execute(req, http.MethodPost, "/qr/generate")
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: generate response is not an object", ErrInternal)
	}
	return RawRecord(obj), nil
}

// Delete calls DELETE /qr/:id.
func (c *RESTClient) Delete(ctx context.Context, id string) error {
	req := c.newRequest(ctx, c.token()).SetPathParam("id", id)

	_, err := c.execute(req, http.MethodDelete, "/qr/{id}")
	return err
}

// Image downloads the QR image at url. A relative url resolves against the
// base URL. Images may be served by a third party, so the credential is not
// attached.
func (c *RESTClient) Image(ctx context.Context, url string) ([]byte, error) {
	req := c.newRequest(ctx, "").SetHeader("Accept", "image/*")

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, url, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: image %s", ErrNotFound, url)
	case resp.IsError():
		// not a verdict on the session, whatever the status
		return nil, fmt.Errorf("%w: image %s: http %d", ErrInternal, url, resp.StatusCode())
	}
	return resp.Body(), nil
}
