package mockserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/models"
)

func testConfig() config.MockConfig {
	return config.MockConfig{
		JWTSecret:     "test-secret",
		AdminUser:     "admin",
		AdminPassword: "admin123",
		AdminFullName: "Administrador",
		TokenTTL:      time.Hour,
	}
}

func startServer(t *testing.T, mode config.AuthMode) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(testConfig(), mode, zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

type rawEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, client *http.Client, method, url, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func bearerLogin(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, raw := call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/login", "",
		map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, status)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestNew_RequiresSecretAndAdmin(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	_, err := New(cfg, config.AuthModeCookie, zerolog.Nop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.AdminPassword = ""
	_, err = New(cfg, config.AuthModeCookie, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(testConfig(), "basic", zerolog.Nop())
	assert.Error(t, err)
}

func TestLogin_WrongPasswordIsPlainText401(t *testing.T) {
	_, ts := startServer(t, config.AuthModeCookie)

	status, raw := call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/login", "",
		map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(raw), "Usuário ou senha inválidos.")
}

func TestCookieMode_LoginSetsCookieAndReturnsIdentity(t *testing.T) {
	_, ts := startServer(t, config.AuthModeCookie)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	// No cookie yet
	status, _ := call(t, client, http.MethodGet, ts.URL+"/api/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := call(t, client, http.MethodPost, ts.URL+"/api/auth/login", "",
		map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, status)

	var identity models.Session
	require.NoError(t, json.Unmarshal(raw, &identity))
	assert.NotEmpty(t, identity.UserID)
	assert.Equal(t, "admin", identity.Username)
	assert.Equal(t, "Administrador", identity.FullName)
	assert.Equal(t, RoleAdmin, identity.Role)
	assert.Empty(t, identity.Token)

	status, _ = call(t, client, http.MethodGet, ts.URL+"/api/clients", "", nil)
	assert.Equal(t, http.StatusOK, status)

	// Logout expires the cookie
	status, _ = call(t, client, http.MethodPost, ts.URL+"/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, client, http.MethodGet, ts.URL+"/api/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBearerMode_TokenAuthorizesRequests(t *testing.T) {
	_, ts := startServer(t, config.AuthModeBearer)

	status, raw := call(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	var env rawEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "null", string(env.Data))

	token := bearerLogin(t, ts)
	status, raw = call(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/users", token, nil)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, json.Unmarshal(raw, &env))
	var users []models.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.Empty(t, users[0].Password, "password hash must never leave the server")
}

func TestTokenWithForeignSignatureIsRejected(t *testing.T) {
	srv, ts := startServer(t, config.AuthModeBearer)
	token := bearerLogin(t, ts)

	srv.cfg.JWTSecret = "rotated"

	status, _ := call(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/clients", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestClientCRUDAndIntegrity(t *testing.T) {
	_, ts := startServer(t, config.AuthModeBearer)
	token := bearerLogin(t, ts)

	// Validation
	status, raw := call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/clients", token, models.Client{Name: "Jane Doe"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "CPF/CNPJ é obrigatório")

	status, raw = call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/clients", token,
		models.Client{Name: "Jane Doe", CpfCnpj: "123.456.789-00"})
	require.Equal(t, http.StatusCreated, status)
	var env rawEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	var client models.Client
	require.NoError(t, json.Unmarshal(env.Data, &client))
	require.NotEmpty(t, client.ID)

	status, raw = call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/processes", token,
		models.Process{Number: "0001", ClientID: client.ID, Status: models.StatusInProgress})
	require.Equal(t, http.StatusCreated, status)
	require.NoError(t, json.Unmarshal(raw, &env))
	var process models.Process
	require.NoError(t, json.Unmarshal(env.Data, &process))

	status, raw = call(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/clients/"+client.ID, token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(raw), "exclua os PROCESSOS primeiro")

	status, _ = call(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/processes/"+process.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/clients/"+client.ID, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = call(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/clients/"+client.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "null", string(env.Data))
}

func TestProcessRequiresExistingClient(t *testing.T) {
	_, ts := startServer(t, config.AuthModeBearer)
	token := bearerLogin(t, ts)

	status, raw := call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/processes", token,
		models.Process{Number: "0001", ClientID: "missing", Status: models.StatusInProgress})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "Cliente não encontrado")
}

func TestUsers_DuplicateUsernameAndPasswordRules(t *testing.T) {
	_, ts := startServer(t, config.AuthModeBearer)
	token := bearerLogin(t, ts)

	status, _ := call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/users", token,
		models.User{Username: "mariana", FullName: "Mariana Costa"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/users", token,
		models.User{Username: "mariana", FullName: "Mariana Costa", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, status)
	var env rawEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Empty(t, user.Password)

	status, _ = call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/users", token,
		models.User{Username: "MARIANA", FullName: "Outra", Password: "x"})
	assert.Equal(t, http.StatusConflict, status)

	// Updating without a password keeps the old one
	status, _ = call(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/users/"+user.ID, token,
		models.User{Username: "mariana", FullName: "Mariana C. Costa"})
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/login", "",
		map[string]string{"username": "mariana", "password": "s3cret"})
	assert.Equal(t, http.StatusOK, status)
}

func TestSeedDemo(t *testing.T) {
	srv, ts := startServer(t, config.AuthModeBearer)
	require.NoError(t, srv.SeedDemo(time.Now()))
	token := bearerLogin(t, ts)

	status, raw := call(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/clients", token, nil)
	require.Equal(t, http.StatusOK, status)
	var env rawEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	var clients []models.Client
	require.NoError(t, json.Unmarshal(env.Data, &clients))
	assert.Len(t, clients, 3)
	assert.Equal(t, "Jane Doe", clients[0].Name)

	users := srv.store.listUsers()
	require.Len(t, users, 2)
	lawyer := users[1]
	status, raw = call(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/appointments/lawyer/"+lawyer.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &env))
	var appointments []models.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &appointments))
	assert.Len(t, appointments, 3)

	// The lawyer has appointments, so it cannot be removed
	status, _ = call(t, http.DefaultClient, http.MethodDelete, ts.URL+"/api/users/"+lawyer.ID, token, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestRequestIDIsEchoed(t *testing.T) {
	_, ts := startServer(t, config.AuthModeCookie)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}
