package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID correlates client log lines with server logs
const HeaderRequestID = "X-Request-ID"

type ctxKey int

const skipSessionHookKey ctxKey = iota

// withoutSessionHook marks a request whose 401 must not be treated as an expired session
func withoutSessionHook(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipSessionHookKey, true)
}

func sessionHookSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipSessionHookKey).(bool)
	return skip
}

// bearerTransport attaches the current session token to every request
type bearerTransport struct {
	next   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.tokens.Token()
	if token == "" {
		return t.next.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(clone)
}

// sessionTransport is the single interception point every request passes through.
// It stamps a request id and turns any 401 into the session-expired event.
type sessionTransport struct {
	next   http.RoundTripper
	client *Client
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !sessionHookSkipped(req.Context()) {
		t.client.log.Warn().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Msg("session expired")
		t.client.emitUnauthorized()
	}

	return resp, nil
}
