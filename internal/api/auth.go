package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/models"
)

const (
	loginPath  = "/auth/login"
	logoutPath = "/auth/logout"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login sends the credentials to the authentication endpoint and returns the new session.
// A 401 here means wrong credentials, so it never fires the session-expired event.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	ctx = withoutSessionHook(ctx)

	resp, err := c.send(ctx, http.MethodPost, loginPath, loginRequest{Username: username, Password: password})
	if err != nil {
		return models.Session{}, &AuthError{Kind: ErrAuthenticationFailed, Message: MsgAuthenticationFailed, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Session{}, &AuthError{Kind: ErrAuthenticationFailed, Message: MsgAuthenticationFailed, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return models.Session{}, &AuthError{Kind: ErrInvalidCredentials, Message: MsgInvalidCredentials}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := c.fail(&RequestError{
			Method:  http.MethodPost,
			Path:    loginPath,
			Status:  resp.StatusCode,
			Message: bodyMessage(raw),
		}, resp)
		return models.Session{}, &AuthError{Kind: ErrAuthenticationFailed, Message: MsgAuthenticationFailed, Err: reqErr}
	}

	session, err := decodeLogin(raw, c.mode)
	if err != nil {
		return models.Session{}, &AuthError{Kind: ErrAuthenticationFailed, Message: MsgAuthenticationFailed, Err: err}
	}
	return session, nil
}

// decodeLogin accepts both {message, data: {...}} and the bare identity/token object
func decodeLogin(raw []byte, mode config.AuthMode) (models.Session, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.Session{}, errors.New("empty login response")
	}

	var env Envelope[models.Session]
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.Session{}, fmt.Errorf("malformed login response: %w", err)
	}

	var session models.Session
	if env.HasData() {
		session = *env.Data
	} else if err := json.Unmarshal(raw, &session); err != nil {
		return models.Session{}, fmt.Errorf("malformed login response: %w", err)
	}

	switch mode {
	case config.AuthModeBearer:
		if session.Token == "" {
			return models.Session{}, errors.New("login response has no token")
		}
		// Only the token is kept in bearer mode
		return models.Session{Token: session.Token}, nil
	default:
		if session.UserID == "" || session.Username == "" {
			return models.Session{}, errors.New("login response has no user identity")
		}
		session.Token = ""
		return session, nil
	}
}

// Logout notifies the server that the session ends. Failures wrap ErrLogoutNotifyFailed.
func (c *Client) Logout(ctx context.Context) error {
	ctx = withoutSessionHook(ctx)

	resp, err := c.send(ctx, http.MethodPost, logoutPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutNotifyFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrLogoutNotifyFailed, resp.StatusCode)
	}
	return nil
}
