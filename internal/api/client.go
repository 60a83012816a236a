package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/balkashynov/saj/internal/config"
)

// Envelope is the {message, data} wrapper of every API response.
// Data is nil when the server sent no payload, which is different from an empty list.
type Envelope[T any] struct {
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// HasData reports whether the response carried a payload
func (e *Envelope[T]) HasData() bool {
	return e != nil && e.Data != nil
}

// TokenSource supplies the bearer token for outgoing requests
type TokenSource interface {
	Token() string
}

// Config holds what the client needs to reach the API
type Config struct {
	BaseURL string
	Mode    config.AuthMode
	Timeout time.Duration
}

// Client is the single HTTP access point to the API
type Client struct {
	baseURL string
	mode    config.AuthMode
	http    *http.Client
	jar     http.CookieJar
	log     zerolog.Logger

	transport http.RoundTripper

	mu           sync.RWMutex
	tokens       TokenSource
	unauthorized []func()
}

// Option customizes a Client
type Option func(*Client)

// WithTransport replaces the underlying transport (tests point it at httptest servers)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithCookieJar sets the jar used in cookie mode
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.jar = jar }
}

// WithTokenSource sets the token source used in bearer mode
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger for request failures
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates an API client for the configured auth mode
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("invalid auth mode %q", cfg.Mode)
	}

	c := &Client{
		baseURL:   base,
		mode:      cfg.Mode,
		log:       zerolog.Nop(),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.transport
	if c.mode == config.AuthModeBearer {
		rt = &bearerTransport{next: rt, tokens: tokenSourceFunc(c.Token)}
	}
	rt = &sessionTransport{next: rt, client: c}

	c.http = &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
	}

	// Cookie mode: the jar plays the role of the browser's credential store
	if c.mode == config.AuthModeCookie {
		if c.jar == nil {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return nil, err
			}
			c.jar = jar
		}
		c.http.Jar = c.jar
	}

	return c, nil
}

// Mode returns the credential strategy of this deployment
func (c *Client) Mode() config.AuthMode {
	return c.mode
}

// BaseURL returns the API address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UseTokenSource sets the bearer token source after construction.
// The session store and the client reference each other, so one side is wired late.
func (c *Client) UseTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// Token returns the current bearer token, or "" without a token source
func (c *Client) Token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// OnUnauthorized subscribes fn to the session-expired event.
// Subscribers run in subscription order on the goroutine that made the request.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = append(c.unauthorized, fn)
}

func (c *Client) emitUnauthorized() {
	c.mu.RLock()
	subscribers := make([]func(), len(c.unauthorized))
	copy(subscribers, c.unauthorized)
	c.mu.RUnlock()

	for _, fn := range subscribers {
		fn()
	}
}

// Get performs a GET and unwraps the envelope
func Get[T any](ctx context.Context, c *Client, path string) (*Envelope[T], error) {
	return do[T](ctx, c, http.MethodGet, path, nil)
}

// Post performs a POST with a JSON body and unwraps the envelope
func Post[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	return do[T](ctx, c, http.MethodPost, path, body)
}

// Put performs a PUT with a JSON body and unwraps the envelope
func Put[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	return do[T](ctx, c, http.MethodPut, path, body)
}

// Delete performs a DELETE and unwraps the envelope
func Delete[T any](ctx context.Context, c *Client, path string) (*Envelope[T], error) {
	return do[T](ctx, c, http.MethodDelete, path, nil)
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (*Envelope[T], error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(&RequestError{Method: method, Path: path, Status: resp.StatusCode, Err: err}, resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.translate(method, path, resp, raw)
	}

	var env Envelope[T]
	if len(bytes.TrimSpace(raw)) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, c.fail(&RequestError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("malformed response body: %w", err),
		}, resp)
	}
	return &env, nil
}

// send builds and performs one request
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Method: method, Path: path, Err: fmt.Errorf("failed to encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		reqErr := &RequestError{Method: method, Path: path, Err: err}
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, reqErr
	}
	return resp, nil
}

// translate converts a non-2xx response into the error taxonomy
func (c *Client) translate(method, path string, resp *http.Response, raw []byte) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)
	}

	return c.fail(&RequestError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Message: bodyMessage(raw),
	}, resp)
}

// fail logs a request failure and hands the error back
func (c *Client) fail(reqErr *RequestError, resp *http.Response) error {
	event := c.log.Error().
		Str("method", reqErr.Method).
		Str("path", reqErr.Path).
		Int("status", reqErr.Status)
	if resp != nil && resp.Request != nil {
		event = event.Str("request_id", resp.Request.Header.Get(HeaderRequestID))
	}
	if reqErr.Err != nil {
		event = event.Err(reqErr.Err)
	}
	event.Str("server_message", reqErr.Message).Msg("request failed")
	return reqErr
}

// bodyMessage extracts the message of an error body: an envelope, an {"error": ...}
// object or plain text
func bodyMessage(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		return parsed.Error
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return text
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return string(trimmed)
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

type tokenSourceFunc func() string

func (f tokenSourceFunc) Token() string { return f() }
