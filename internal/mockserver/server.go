// Package mockserver is an in-memory stand-in for the SAJ API, used by
// `saj mock-server` and by the package tests.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/balkashynov/saj/internal/config"
)

// RoleAdmin is the role of the seeded administrator; other users are lawyers
const (
	RoleAdmin  = "ADMIN"
	RoleLawyer = "ADVOGADO"
)

// Server is the mock API
type Server struct {
	echo  *echo.Echo
	store *store
	cfg   config.MockConfig
	mode  config.AuthMode
	log   zerolog.Logger
}

// Option customizes a Server
type Option func(*Server)

// WithBcryptCost lowers the hashing cost, tests use bcrypt.MinCost
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.store.bcryptCost = cost }
}

// New builds the server and seeds the administrator account
func New(cfg config.MockConfig, mode config.AuthMode, log zerolog.Logger, opts ...Option) (*Server, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid auth mode %q", mode)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("mock server needs a JWT secret")
	}
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil, errors.New("mock server needs admin credentials")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	s := &Server{
		store: newStore(0),
		cfg:   cfg,
		mode:  mode,
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.store.createUser(adminUser(cfg), RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	s.echo = s.router()
	return s, nil
}

// Handler exposes the router, for httptest servers
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("mode", string(s.mode)).Msg("mock API listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info().Msg("mock API shutting down")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = echoValidator{}
	e.HTTPErrorHandler = s.errorHandler

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		TargetHeader: echo.HeaderXRequestID,
	}))
	e.Use(s.requestLogger)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)

	protected := api.Group("", s.requireAuth)

	// --- Resources ---
	protected.GET("/clients", s.listClients)
	protected.POST("/clients", s.createClient)
	protected.GET("/clients/:id", s.getClient)
	protected.PUT("/clients/:id", s.updateClient)
	protected.DELETE("/clients/:id", s.deleteClient)

	protected.GET("/processes", s.listProcesses)
	protected.POST("/processes", s.createProcess)
	protected.GET("/processes/:id", s.getProcess)
	protected.PUT("/processes/:id", s.updateProcess)
	protected.DELETE("/processes/:id", s.deleteProcess)

	protected.GET("/appointments", s.listAppointments)
	protected.GET("/appointments/lawyer/:lawyerId", s.listAppointmentsByLawyer)
	protected.POST("/appointments", s.createAppointment)
	protected.GET("/appointments/:id", s.getAppointment)
	protected.PUT("/appointments/:id", s.updateAppointment)
	protected.DELETE("/appointments/:id", s.deleteAppointment)

	protected.GET("/users", s.listUsers)
	protected.POST("/users", s.createUser)
	protected.GET("/users/:id", s.getUser)
	protected.PUT("/users/:id", s.updateUser)
	protected.DELETE("/users/:id", s.deleteUser)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// requestLogger logs one line per request with zerolog
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		s.log.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", c.Response().Status).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}
