package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/models"
)

// Persisted keys. A deployment uses either the token key or the identity keys.
const (
	KeyToken    = "saj_jwt_token"
	KeyUserID   = "saj_user_id"
	KeyFullName = "saj_full_name"
	KeyUsername = "saj_username"
	KeyRole     = "saj_role"
)

var (
	tokenKeys    = []string{KeyToken}
	identityKeys = []string{KeyUserID, KeyFullName, KeyUsername, KeyRole}
)

// ErrNoToken is returned by Claims when there is no bearer token to decode
var ErrNoToken = errors.New("no bearer token")

// Storage is the durable key/value surface the store persists to
type Storage interface {
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}

// Authenticator performs the server side of login and logout
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	Logout(ctx context.Context) error
}

// CookieClearer wipes the cookie-mode credential
type CookieClearer interface {
	Clear(ctx context.Context) error
}

// Store is the single owner of the authenticated identity.
// It starts in the loading state until Restore runs.
type Store struct {
	storage Storage
	auth    Authenticator
	mode    config.AuthMode
	log     zerolog.Logger
	cookies CookieClearer

	mu        sync.RWMutex
	session   models.Session
	loading   bool
	listeners []func()
}

// Option customizes a Store
type Option func(*Store)

// WithCookieClearer sets the cookie jar cleared on logout and expiry
func WithCookieClearer(c CookieClearer) Option {
	return func(s *Store) { s.cookies = c }
}

// NewStore creates a store in the loading state
func NewStore(storage Storage, auth Authenticator, mode config.AuthMode, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		auth:    auth,
		mode:    mode,
		log:     log,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted session. It never contacts the server and always
// leaves the loading state, even on error.
func (s *Store) Restore(ctx context.Context) error {
	var restored models.Session
	defer func() {
		s.mu.Lock()
		s.session = restored
		s.loading = false
		s.mu.Unlock()
		s.notify()
	}()

	keys := make([]string, 0, len(identityKeys)+len(tokenKeys))
	keys = append(keys, s.ownKeys()...)
	keys = append(keys, s.foreignKeys()...)
	values, err := s.storage.Load(ctx, keys...)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to restore session")
		return fmt.Errorf("failed to restore session: %w", err)
	}

	// A previous deployment may have used the other scheme
	if hasAny(values, s.foreignKeys()) {
		s.log.Info().Str("mode", string(s.mode)).Msg("purging session keys of the other auth mode")
		if err := s.storage.Remove(ctx, s.foreignKeys()...); err != nil {
			s.log.Warn().Err(err).Msg("failed to purge foreign session keys")
		}
	}

	session, complete := decode(values, s.mode)
	if !complete {
		if hasAny(values, s.ownKeys()) {
			s.log.Warn().Msg("discarding partial session")
			if err := s.storage.Remove(ctx, s.ownKeys()...); err != nil {
				s.log.Warn().Err(err).Msg("failed to purge partial session")
			}
		}
		return nil
	}

	restored = session
	s.log.Debug().Str("user", session.Username).Msg("session restored")
	return nil
}

// Login authenticates against the server and persists the session.
// State is published only after the storage write succeeded.
func (s *Store) Login(ctx context.Context, username, password string) error {
	session, err := s.auth.Login(ctx, username, password)
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return err
		}
		return &api.AuthError{Kind: api.ErrAuthenticationFailed, Message: api.MsgAuthenticationFailed, Err: err}
	}

	if err := s.storage.Save(ctx, encode(session, s.mode)); err != nil {
		s.log.Error().Err(err).Msg("failed to persist session")
		return &api.AuthError{
			Kind:    api.ErrAuthenticationFailed,
			Message: api.MsgAuthenticationFailed,
			Err:     fmt.Errorf("failed to persist session: %w", err),
		}
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	s.notify()

	s.log.Info().Str("user", session.Username).Str("mode", string(s.mode)).Msg("logged in")
	return nil
}

// Logout notifies the server and then clears the local session no matter what.
// Only a local storage failure is returned.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("logout notification failed")
	}
	return s.clear(ctx)
}

// Expire tears the session down after the server answered 401
func (s *Store) Expire() {
	s.log.Warn().Str("mode", string(s.mode)).Msg("session expired")
	if err := s.clear(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear expired session")
	}
}

// clear purges storage, cookies and memory. Memory is always cleared.
func (s *Store) clear(ctx context.Context) error {
	var errs []error
	if err := s.storage.Remove(ctx, s.ownKeys()...); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear session storage: %w", err))
	}
	if s.cookies != nil {
		if err := s.cookies.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear cookies: %w", err))
		}
	}

	s.mu.Lock()
	s.session = models.Session{}
	s.mu.Unlock()
	s.notify()

	return errors.Join(errs...)
}

// IsAuthenticated derives the status from the primary key field of the mode
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode == config.AuthModeBearer {
		return s.session.Token != ""
	}
	return s.session.UserID != ""
}

// Loading reports whether Restore has not completed yet
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Session returns a copy of the current identity
func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Token returns the bearer token, "" when absent
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Mode returns the auth mode of the store
func (s *Store) Mode() config.AuthMode {
	return s.mode
}

// DisplayName returns the name shown in headers: the full name in cookie mode,
// the token's name claim in bearer mode
func (s *Store) DisplayName() string {
	session := s.Session()
	if s.mode == config.AuthModeBearer {
		claims, err := s.Claims()
		if err != nil {
			return ""
		}
		if claims.Name != "" {
			return claims.Name
		}
		return claims.Subject
	}
	if session.FullName != "" {
		return session.FullName
	}
	return session.Username
}

// Subscribe registers fn to run after every state change
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// Claims describes the bearer token payload
type Claims struct {
	Subject   string
	UserID    string
	Name      string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the bearer token without verifying it. The server stays the
// authority on validity; this is for display only.
func (s *Store) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, ErrNoToken
	}
	return ParseClaims(token)
}

// ParseClaims decodes a JWT payload without verifying the signature
func ParseClaims(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("failed to decode token: %w", err)
	}

	var claims Claims
	claims.Subject, _ = mapClaims.GetSubject()
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.UserID, _ = mapClaims["uid"].(string)
	claims.Name, _ = mapClaims["name"].(string)
	claims.Role, _ = mapClaims["role"].(string)
	return claims, nil
}

func (s *Store) ownKeys() []string {
	if s.mode == config.AuthModeBearer {
		return tokenKeys
	}
	return identityKeys
}

func (s *Store) foreignKeys() []string {
	if s.mode == config.AuthModeBearer {
		return identityKeys
	}
	return tokenKeys
}

// encode maps a session onto the persisted keys of mode
func encode(session models.Session, mode config.AuthMode) map[string]string {
	if mode == config.AuthModeBearer {
		return map[string]string{KeyToken: session.Token}
	}
	return map[string]string{
		KeyUserID:   session.UserID,
		KeyFullName: session.FullName,
		KeyUsername: session.Username,
		KeyRole:     session.Role,
	}
}

// decode rebuilds a session; complete is false unless every key of mode is present
func decode(values map[string]string, mode config.AuthMode) (models.Session, bool) {
	if mode == config.AuthModeBearer {
		token, ok := values[KeyToken]
		if !ok || token == "" {
			return models.Session{}, false
		}
		return models.Session{Token: token}, true
	}

	for _, key := range identityKeys {
		if _, ok := values[key]; !ok {
			return models.Session{}, false
		}
	}
	if values[KeyUserID] == "" {
		return models.Session{}, false
	}
	return models.Session{
		UserID:   values[KeyUserID],
		FullName: values[KeyFullName],
		Username: values[KeyUsername],
		Role:     values[KeyRole],
	}, true
}

func hasAny(values map[string]string, keys []string) bool {
	for _, key := range keys {
		if _, ok := values[key]; ok {
			return true
		}
	}
	return false
}
