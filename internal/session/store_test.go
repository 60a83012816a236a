package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/db"
	"github.com/balkashynov/saj/internal/models"
)

// memStorage is an in-memory Storage with switchable failures
type memStorage struct {
	mu        sync.Mutex
	values    map[string]string
	failSave  bool
	failLoad  bool
	loadCalls int
}

func newMemStorage() *memStorage {
	return &memStorage{values: map[string]string{}}
}

func (m *memStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	if m.failLoad {
		return nil, errors.New("disk on fire")
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStorage) Save(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("disk full")
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *memStorage) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memStorage) snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// fakeAuth accepts a single credential pair
type fakeAuth struct {
	username, password string
	session            models.Session
	loginErr           error
	logoutErr          error
	logoutCalls        int
	loginCalls         int
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (models.Session, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return models.Session{}, f.loginErr
	}
	if username != f.username || password != f.password {
		return models.Session{}, &api.AuthError{Kind: api.ErrInvalidCredentials, Message: api.MsgInvalidCredentials}
	}
	return f.session, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

type fakeJar struct{ cleared int }

func (j *fakeJar) Clear(context.Context) error {
	j.cleared++
	return nil
}

var alice = models.Session{UserID: "u1", FullName: "Alice Souza", Username: "alice", Role: "ADMIN"}

func cookieAuth() *fakeAuth {
	return &fakeAuth{username: "alice", password: "secret", session: alice}
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_StartsLoading(t *testing.T) {
	s := NewStore(newMemStorage(), cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	assert.True(t, s.Loading())
	assert.False(t, s.IsAuthenticated())
}

func TestRestore_EmptyStorageEndsLoading(t *testing.T) {
	s := NewStore(newMemStorage(), cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))
	assert.False(t, s.Loading())
	assert.False(t, s.IsAuthenticated())
}

func TestRestore_LoadFailureStillEndsLoading(t *testing.T) {
	storage := newMemStorage()
	storage.failLoad = true
	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())

	require.Error(t, s.Restore(context.Background()))
	assert.False(t, s.Loading())
	assert.False(t, s.IsAuthenticated())
}

func TestLogin_ValidCredentialsPopulateStateAndStorage(t *testing.T) {
	storage := newMemStorage()
	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))

	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, alice, s.Session())
	assert.Equal(t, map[string]string{
		KeyUserID:   "u1",
		KeyFullName: "Alice Souza",
		KeyUsername: "alice",
		KeyRole:     "ADMIN",
	}, storage.snapshot())
}

func TestLogin_WrongPasswordLeavesStoreEmpty(t *testing.T) {
	storage := newMemStorage()
	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))

	err := s.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInvalidCredentials))
	assert.Equal(t, "Usuário ou senha inválidos.", api.UserMessage(err, ""))
	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Session().IsZero())
	assert.Empty(t, storage.snapshot())
}

func TestLogin_UnknownErrorIsAuthenticationFailed(t *testing.T) {
	auth := cookieAuth()
	auth.loginErr = errors.New("connection refused")
	s := NewStore(newMemStorage(), auth, config.AuthModeCookie, zerolog.Nop())

	err := s.Login(context.Background(), "alice", "secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrAuthenticationFailed))
	assert.False(t, errors.Is(err, api.ErrInvalidCredentials))
}

func TestLogin_PersistenceFailureChangesNothing(t *testing.T) {
	storage := newMemStorage()
	storage.failSave = true
	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))

	var notified int
	s.Subscribe(func() { notified++ })

	err := s.Login(context.Background(), "alice", "secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrAuthenticationFailed))
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, notified)
}

func TestLogout_ClearsEverythingEvenWhenServerFails(t *testing.T) {
	storage := newMemStorage()
	auth := cookieAuth()
	auth.logoutErr = errors.New("timeout")
	jar := &fakeJar{}
	s := NewStore(storage, auth, config.AuthModeCookie, zerolog.Nop(), WithCookieClearer(jar))
	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	require.NoError(t, s.Logout(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Session().IsZero())
	assert.Empty(t, storage.snapshot())
	assert.Equal(t, 1, jar.cleared)
	assert.Equal(t, 1, auth.logoutCalls)
}

func TestLogout_IsIdempotent(t *testing.T) {
	storage := newMemStorage()
	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	require.NoError(t, s.Logout(context.Background()))
	first := s.Session()
	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, first, s.Session())
	assert.True(t, s.Session().IsZero())
	assert.Empty(t, storage.snapshot())
}

func TestRestore_ReproducesLoginWithoutNetwork(t *testing.T) {
	storage := newMemStorage()
	first := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, first.Restore(context.Background()))
	require.NoError(t, first.Login(context.Background(), "alice", "secret"))

	// fresh process over the same storage
	auth := cookieAuth()
	second := NewStore(storage, auth, config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, second.Restore(context.Background()))

	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, first.Session(), second.Session())
	assert.Zero(t, auth.loginCalls)
	assert.Zero(t, auth.logoutCalls)
}

func TestRestore_PartialSessionIsPurged(t *testing.T) {
	storage := newMemStorage()
	storage.values[KeyUserID] = "u1"
	storage.values[KeyUsername] = "alice"

	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Session().IsZero())
	assert.Empty(t, storage.snapshot())
}

func TestRestore_PurgesOtherSchemeKeys(t *testing.T) {
	storage := newMemStorage()
	storage.values[KeyToken] = "stale-token"
	storage.values[KeyUserID] = "u1"
	storage.values[KeyFullName] = "Alice Souza"
	storage.values[KeyUsername] = "alice"
	storage.values[KeyRole] = "ADMIN"

	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "", s.Token())
	_, hasToken := storage.snapshot()[KeyToken]
	assert.False(t, hasToken)
}

func TestBearerMode_LoginRestoreAndExpire(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":  "alice",
		"uid":  "u1",
		"name": "Alice Souza",
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	storage := newMemStorage()
	auth := &fakeAuth{username: "alice", password: "secret", session: models.Session{Token: token}}

	s := NewStore(storage, auth, config.AuthModeBearer, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, token, s.Token())
	assert.Equal(t, map[string]string{KeyToken: token}, storage.snapshot())
	assert.Equal(t, "Alice Souza", s.DisplayName())

	claims, err := s.Claims()
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.False(t, claims.Expired(time.Now()))

	restored := NewStore(storage, auth, config.AuthModeBearer, zerolog.Nop())
	require.NoError(t, restored.Restore(context.Background()))
	assert.Equal(t, token, restored.Token())

	restored.Expire()
	assert.False(t, restored.IsAuthenticated())
	assert.Empty(t, storage.snapshot())

	_, err = restored.Claims()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSubscribe_NotifiedOnEveryChange(t *testing.T) {
	s := NewStore(newMemStorage(), cookieAuth(), config.AuthModeCookie, zerolog.Nop())

	var events []bool
	s.Subscribe(func() { events = append(events, s.IsAuthenticated()) })

	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	s.Expire()
	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, []bool{false, true, false, false}, events)
}

func TestExpire_FromClientEventClearsCookieSession(t *testing.T) {
	jar := &fakeJar{}
	storage := newMemStorage()
	s := NewStore(storage, cookieAuth(), config.AuthModeCookie, zerolog.Nop(), WithCookieClearer(jar))
	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	s.Expire()

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, storage.snapshot())
	assert.Equal(t, 1, jar.cleared)
}

func TestStore_OverSQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saj.db")

	gdb, err := db.Open(path)
	require.NoError(t, err)
	s := NewStore(db.NewKVStore(gdb), cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	require.NoError(t, db.Close(gdb))

	gdb, err = db.Open(path)
	require.NoError(t, err)
	defer db.Close(gdb)

	restored := NewStore(db.NewKVStore(gdb), cookieAuth(), config.AuthModeCookie, zerolog.Nop())
	require.NoError(t, restored.Restore(context.Background()))
	assert.Equal(t, alice, restored.Session())

	require.NoError(t, restored.Logout(context.Background()))
	values, err := db.NewKVStore(gdb).Load(context.Background(), identityKeys...)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestParseClaims_RejectsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.Error(t, err)
}
