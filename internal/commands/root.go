package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/db"
	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/logger"
	"github.com/balkashynov/saj/internal/services"
	"github.com/balkashynov/saj/internal/session"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Messages printed instead of a stack of wrapped errors
const (
	msgLoginRequired  = "Você não está autenticado. Execute 'saj login'."
	msgSessionExpired = "Sessão expirada. Execute 'saj login'."
)

// exitError is printed as is by main, which then exits 1
type exitError struct {
	msg string
	err error
}

func (e *exitError) Error() string { return e.msg }

func (e *exitError) Unwrap() error { return e.err }

// app is everything a command needs, wired once per process
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	logFile io.Closer
	client  *api.Client
	store   *session.Store
	svc     *services.Services
	expired atomic.Bool
}

// cli carries state shared by the command tree
type cli struct {
	app *app
	now func() time.Time
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c := &cli{now: time.Now}
	return c.execute(ctx, newRootCmd(c))
}

// execute runs the tree and releases the app even when the command failed,
// which cobra's post-run hooks do not
func (c *cli) execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if closeErr := c.app.close(); closeErr != nil && err == nil {
			err = closeErr
		}
		c.app = nil
	}
	return err
}

// newRootCmd builds the command tree. Commands annotated standalone skip the
// session wiring.
func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "saj",
		Short: "Terminal front-end for the SAJ legal office API",
		Long: `saj manages clients, legal processes and appointments of a legal office
through its HTTP API. Run it without arguments for the interactive UI, or use the
subcommands from scripts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   interactive,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationStandalone] == "true" {
				return nil
			}
			a, err := setup(cmd.Context(), cmd.Annotations[annotationInteractive] != "true")
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, c, guard.RouteDashboard)
		},
	}

	rootCmd.AddCommand(
		newUICmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newClientsCmd(c),
		newProcessesCmd(c),
		newAppointmentsCmd(c),
		newUsersCmd(c),
		newAgendaCmd(c),
		newSearchCmd(c),
		newMockServerCmd(),
		newVersionCmd(),
	)
	rootCmd.SetHelpCommand(newHelpCmd())

	return rootCmd
}

const (
	annotationStandalone  = "standalone"
	annotationInteractive = "interactive"
)

var (
	standalone  = map[string]string{annotationStandalone: "true"}
	interactive = map[string]string{annotationInteractive: "true"}
)

// setup loads the configuration and wires storage, client and session store.
// The store subscribes to the 401 hook before anyone else so its purge runs first.
// With restore unset the session is left loading for the UI to restore.
func setup(ctx context.Context, restore bool) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", cfg.Home, err)
	}

	a := &app{cfg: cfg}
	logFile, err := logger.OpenFile(cfg.LogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = logFile
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: logFile})

	a.db, err = db.Open(cfg.DatabasePath())
	if err != nil {
		a.close()
		return nil, err
	}
	jar, err := db.NewCookieJar(a.db)
	if err != nil {
		a.close()
		return nil, err
	}

	opts := []api.Option{api.WithLogger(log)}
	if cfg.AuthMode == config.AuthModeCookie {
		opts = append(opts, api.WithCookieJar(jar))
	}
	a.client, err = api.New(api.Config{BaseURL: cfg.APIURL, Mode: cfg.AuthMode, Timeout: cfg.RequestTimeout}, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store = session.NewStore(db.NewKVStore(a.db), a.client, cfg.AuthMode, log, session.WithCookieClearer(jar))
	a.client.UseTokenSource(a.store)
	a.client.OnUnauthorized(a.store.Expire)
	a.client.OnUnauthorized(func() { a.expired.Store(true) })
	a.svc = services.New(a.client)

	if !restore {
		return a, nil
	}
	if err := a.store.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("continuing without a restored session")
	}
	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, db.Close(a.db))
	}
	if a.logFile != nil {
		logger.Reset()
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// protected runs fn only with a session, and turns a 401 during fn into the
// session-expired message
func protected(c *cli, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := c.app
		if err := guard.Require(a.store); err != nil {
			return &exitError{msg: msgLoginRequired, err: err}
		}

		err := fn(cmd, a, args)
		if a.expired.Load() || errors.Is(err, api.ErrSessionExpired) {
			return &exitError{msg: msgSessionExpired, err: api.ErrSessionExpired}
		}
		return err
	}
}
