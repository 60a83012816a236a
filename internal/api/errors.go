package api

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the session store, the services and the screens.
var (
	// ErrInvalidCredentials: login rejected with 401
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthenticationFailed: any other login failure (network, server, body shape)
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrSessionExpired: an authenticated call came back 401
	ErrSessionExpired = errors.New("session expired")
	// ErrRequestFailed: any non-401 failure of a resource call
	ErrRequestFailed = errors.New("request failed")
	// ErrLogoutNotifyFailed: the server-side logout call failed
	ErrLogoutNotifyFailed = errors.New("logout notification failed")
)

// Localized messages shown to the user
const (
	MsgInvalidCredentials   = "Usuário ou senha inválidos."
	MsgAuthenticationFailed = "Erro ao fazer login"
	MsgSessionExpired       = "Sessão expirada. Faça login novamente."
	MsgRequestFailed        = "Erro ao comunicar com o servidor"
)

// AuthError is returned by Login. Kind is ErrInvalidCredentials or ErrAuthenticationFailed.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *AuthError) Is(target error) bool { return target == e.Kind }

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError describes a failed API call. Status is 0 when no response was received.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string // server supplied message, if any
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
}

func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

func (e *RequestError) Unwrap() error { return e.Err }

// UserMessage returns the localized text for err. Errors without a dedicated
// message fall back to fallback (the screens pass "Erro ao salvar cliente" and the like).
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return MsgSessionExpired
	}
	if fallback != "" {
		return fallback
	}
	return MsgRequestFailed
}

// ServerMessage returns the message the API attached to a failed request, if any
func ServerMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return ""
}
