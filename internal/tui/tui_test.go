package tui

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/logger"
	"github.com/balkashynov/saj/internal/models"
)

type fakeSession struct {
	loading       bool
	authenticated bool
	logouts       int
	listeners     []func()
}

func (s *fakeSession) Subscribe(fn func()) { s.listeners = append(s.listeners, fn) }

func (s *fakeSession) notify() {
	for _, fn := range s.listeners {
		fn()
	}
}

func (s *fakeSession) Loading() bool         { return s.loading }
func (s *fakeSession) IsAuthenticated() bool { return s.authenticated }
func (s *fakeSession) DisplayName() string   { return "Administrador" }

func (s *fakeSession) Restore(context.Context) error {
	s.loading = false
	return nil
}

func (s *fakeSession) Login(_ context.Context, username, password string) error {
	if username != "admin" || password != "secret" {
		return &api.AuthError{Kind: api.ErrInvalidCredentials, Message: api.MsgInvalidCredentials}
	}
	s.authenticated = true
	return nil
}

func (s *fakeSession) Logout(context.Context) error {
	s.logouts++
	s.authenticated = false
	return nil
}

type fakeScreen struct {
	route     guard.Route
	capturing bool
	keys      []string
}

func (f *fakeScreen) Init() tea.Cmd { return nil }

func (f *fakeScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		f.keys = append(f.keys, key.String())
	}
	return f, nil
}

func (f *fakeScreen) View(int, int) string { return "screen " + string(f.route) }
func (f *fakeScreen) Capturing() bool      { return f.capturing }
func (f *fakeScreen) Loading() bool        { return false }
func (f *fakeScreen) Help() string         { return "" }

func newTestApp(s *fakeSession, route guard.Route) AppModel {
	m := NewAppModel(context.Background(), s, nil, route)
	m.shimmer.SetActive(false)
	m.newScreen = func(r guard.Route) screen { return &fakeScreen{route: r} }
	return m
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(AppModel)
	require.True(t, ok)
	return app, cmd
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and every command of a batch, returning the messages.
// Only use it on commands that do not sleep.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, drain(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func findMsg[T any](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if found, ok := msg.(T); ok {
			return found
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func TestAppWaitsForRestore(t *testing.T) {
	s := &fakeSession{loading: true}
	m := newTestApp(s, guard.RouteClients)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, m.current)
	assert.Equal(t, guard.RouteClients, m.Route())
	assert.Contains(t, m.View(), "Carregando sessão...")

	s.loading = false
	m, _ = update(t, m, restoredMsg{})
	assert.Equal(t, guard.RouteLogin, m.Route())
	assert.Equal(t, "screen /login", m.current.View(0, 0))
}

func TestAppRendersProtectedRouteAfterRestore(t *testing.T) {
	s := &fakeSession{authenticated: true}
	m := newTestApp(s, guard.RouteClients)

	m, _ = update(t, m, restoredMsg{})
	assert.Equal(t, guard.RouteClients, m.Route())
	require.NotNil(t, m.current)
}

func TestAppLeavesLoginOnceAuthenticated(t *testing.T) {
	s := &fakeSession{}
	m := newTestApp(s, guard.RouteLogin)
	m, _ = update(t, m, restoredMsg{})
	assert.Equal(t, guard.RouteLogin, m.Route())

	s.authenticated = true
	m, _ = update(t, m, loginResultMsg{})
	assert.Equal(t, guard.RouteDashboard, m.Route())
}

func TestAppSessionExpiredGoesToLogin(t *testing.T) {
	s := &fakeSession{authenticated: true}
	m := newTestApp(s, guard.RouteProcesses)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, restoredMsg{})
	require.Equal(t, guard.RouteProcesses, m.Route())

	// The store's own hook already cleared the session
	s.authenticated = false
	m, _ = update(t, m, sessionExpiredMsg{})
	assert.Equal(t, guard.RouteLogin, m.Route())
	assert.Contains(t, m.View(), api.MsgSessionExpired)

	s.authenticated = true
	m, _ = update(t, m, loginResultMsg{})
	assert.Equal(t, guard.RouteDashboard, m.Route())
	assert.Empty(t, m.notice)
}

func TestAppFollowsSessionChanges(t *testing.T) {
	s := &fakeSession{authenticated: true}
	m := newTestApp(s, guard.RouteClients)
	m, _ = update(t, m, restoredMsg{})
	require.Equal(t, guard.RouteClients, m.Route())

	// the store was cleared outside the controller
	s.authenticated = false
	m, _ = update(t, m, sessionChangedMsg{})
	assert.Equal(t, guard.RouteLogin, m.Route())
	assert.Empty(t, m.notice)
}

func TestWatchForwardsSessionEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Sessão inválida ou expirada"}`))
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(api.Config{BaseURL: ts.URL + "/api", Mode: config.AuthModeBearer})
	require.NoError(t, err)

	s := &fakeSession{authenticated: true}
	var got []tea.Msg
	watch(s, client, func(msg tea.Msg) { got = append(got, msg) })

	s.notify()
	_, err = api.Get[[]models.Client](context.Background(), client, "/clients")
	require.Error(t, err)

	assert.Equal(t, []tea.Msg{sessionChangedMsg{}, sessionExpiredMsg{}}, got)
}

func TestAppNavigationKeys(t *testing.T) {
	s := &fakeSession{authenticated: true}
	m := newTestApp(s, guard.RouteDashboard)
	m, _ = update(t, m, restoredMsg{})

	m, _ = update(t, m, keyPress("2"))
	assert.Equal(t, guard.RouteClients, m.Route())
	m, _ = update(t, m, keyPress("4"))
	assert.Equal(t, guard.RouteAppointments, m.Route())

	// A screen reading text gets the digits instead
	fs := m.current.(*fakeScreen)
	fs.capturing = true
	m, _ = update(t, m, keyPress("3"))
	assert.Equal(t, guard.RouteAppointments, m.Route())
	assert.Equal(t, []string{"3"}, fs.keys)
}

func TestAppLogout(t *testing.T) {
	s := &fakeSession{authenticated: true}
	m := newTestApp(s, guard.RouteClients)
	m, _ = update(t, m, restoredMsg{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	msg := findMsg[loggedOutMsg](t, drain(cmd))
	assert.Equal(t, 1, s.logouts)

	m, _ = update(t, m, msg)
	assert.Equal(t, guard.RouteLogin, m.Route())
}

func TestAppLogsFailedRestoreAndLogout(t *testing.T) {
	var logs bytes.Buffer
	logger.Reset()
	t.Cleanup(logger.Reset)
	logger.Init(logger.Options{Level: "debug", Output: &logs})

	s := &fakeSession{}
	m := newTestApp(s, guard.RouteClients)
	m, _ = update(t, m, restoredMsg{err: errors.New("database is locked")})
	assert.Equal(t, guard.RouteLogin, m.Route())
	assert.Equal(t, "Não foi possível restaurar a sessão", m.notice)
	assert.Contains(t, logs.String(), "session restore failed")
	assert.Contains(t, logs.String(), "database is locked")

	m, _ = update(t, m, loggedOutMsg{err: errors.New("disk full")})
	assert.Equal(t, guard.RouteLogin, m.Route())
	assert.Contains(t, logs.String(), "logout left local state behind")
}

func TestAppQuit(t *testing.T) {
	s := &fakeSession{authenticated: true}
	m := newTestApp(s, guard.RouteDashboard)
	m, _ = update(t, m, restoredMsg{})

	m, cmd := update(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestLoginModel(t *testing.T) {
	s := &fakeSession{}
	var sc screen = NewLoginModel(context.Background(), s)

	sc, _ = sc.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sc, _ = sc.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Informe usuário e senha", sc.(LoginModel).err)

	sc, _ = sc.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	sc, _ = sc.Update(keyPress("admin"))
	sc, _ = sc.Update(tea.KeyMsg{Type: tea.KeyTab})
	sc, _ = sc.Update(keyPress("wrong"))
	sc, cmd := sc.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, sc.(LoginModel).submitting)

	result := findMsg[loginResultMsg](t, drain(cmd))
	assert.ErrorIs(t, result.err, api.ErrInvalidCredentials)

	sc, _ = sc.Update(result)
	lm := sc.(LoginModel)
	assert.False(t, lm.submitting)
	assert.Equal(t, api.MsgInvalidCredentials, lm.err)
	assert.Empty(t, lm.inputs[loginPassword].Value())
	assert.Equal(t, "admin", lm.inputs[loginUsername].Value())

	sc, _ = sc.Update(keyPress("secret"))
	_, cmd = sc.Update(tea.KeyMsg{Type: tea.KeyEnter})
	result = findMsg[loginResultMsg](t, drain(cmd))
	assert.NoError(t, result.err)
	assert.True(t, s.authenticated)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Nome é obrigatório; CPF/CNPJ é obrigatório",
		errorText(&models.ValidationError{Messages: []string{"Nome é obrigatório", "CPF/CNPJ é obrigatório"}}, "x"))

	conflict := &api.RequestError{Method: "DELETE", Path: "/clients/1", Status: 409, Message: "exclua os PROCESSOS primeiro"}
	assert.Equal(t, "Erro ao excluir cliente: exclua os PROCESSOS primeiro", errorText(conflict, "Erro ao excluir cliente"))

	network := &api.RequestError{Method: "GET", Path: "/clients", Err: errors.New("connection refused")}
	assert.Equal(t, msgLoadFailed, errorText(network, msgLoadFailed))

	assert.Equal(t, api.MsgSessionExpired, errorText(api.ErrSessionExpired, msgLoadFailed))
}
