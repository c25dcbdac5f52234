// Package apiclient performs authenticated calls against the community-admin
// backend. It attaches bearer auth, parses response bodies tolerantly,
// classifies outcomes by the application-level code field, and on the
// recoverable code refreshes the session once and retries the original call
// exactly once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/communigo/go-community-admin/internal/errors"
	"github.com/communigo/go-community-admin/session"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 10 * 1024 * 1024 // 10MB
	contentTypeJSON = "application/json"
)

// Client is the authenticated HTTP client for the community-admin backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Manager
	log        zerolog.Logger
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the transport-level timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the client's logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New initializes a Client for the backend at baseURL, authenticating through
// the given session manager.
func New(baseURL string, sessions *session.Manager, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[apiclient.New] baseURL is required")
	}
	if sessions == nil {
		return nil, errors.New("[apiclient.New] session manager is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		sessions:   sessions,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Sessions returns the session manager this client authenticates through.
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// response is the normalized outcome of one HTTP exchange.
type response struct {
	status  int
	body    []byte // raw JSON body, nil for non-JSON responses
	code    int    // application-level code field, 0 when absent
	message string // payload message field, or the plain-text body
}

// do performs a single HTTP call with no retry logic. The body is read as JSON
// when the response declares a JSON content type, otherwise as plain text
// carried in message; the backend's error payloads are not guaranteed to be
// JSON.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, token string) (*response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrapf(err, "marshalling request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, apperrors.Wrapf(err, "creating request")
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apperrors.Wrapf(err, "reading response body")
	}

	r := &response{status: resp.StatusCode}
	if strings.Contains(resp.Header.Get("Content-Type"), contentTypeJSON) {
		r.body = raw
		var envelope struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil {
			r.code = envelope.Code
			r.message = envelope.Message
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		r.message = text
	}
	return r, nil
}

// Call performs an authenticated request and decodes a 2xx JSON body into out
// (which may be nil). On the recoverable application code it refreshes the
// session through the single-flight coordinator and retries the original call
// exactly once with the new token. On the fatal code it forces a logout and
// fails without retrying.
func (c *Client) Call(ctx context.Context, method, path string, body, out interface{}) error {
	return c.call(ctx, method, path, body, out, true)
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}, retryEnabled bool) error {
	r, err := c.do(ctx, method, path, body, c.sessions.AccessToken())
	if err != nil {
		return err
	}

	switch {
	case r.code == CodeInvalidSession:
		c.log.Warn().Str("path", path).Msg("fatal session code received, forcing logout")
		c.sessions.ForceLogout()
		return apperrors.ErrInvalidSession

	case r.code == CodeTokenExpired:
		if !retryEnabled || !c.sessions.HasRefreshToken() {
			return apperrors.ErrSessionExpired
		}
		if _, err := c.sessions.Refresh(ctx, c.refreshSession); err != nil {
			return err
		}
		// The retry flag is attempt-scoped: a second expired-token code on
		// the retried attempt is not retried again.
		return c.call(ctx, method, path, body, out, false)

	case r.status < http.StatusOK || r.status >= http.StatusMultipleChoices:
		message := r.message
		if message == "" {
			message = fmt.Sprintf("unexpected status %d", r.status)
		}
		return &RequestError{Status: r.status, Message: message}
	}

	if out != nil && len(r.body) > 0 {
		if err := json.Unmarshal(r.body, out); err != nil {
			return apperrors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Call(ctx, http.MethodGet, path, nil, out)
}

// Post performs an authenticated POST request.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Call(ctx, http.MethodPost, path, body, out)
}

// Put performs an authenticated PUT request.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Call(ctx, http.MethodPut, path, body, out)
}

// Patch performs an authenticated PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Call(ctx, http.MethodPatch, path, body, out)
}

// Delete performs an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Call(ctx, http.MethodDelete, path, nil, nil)
}
