package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/logger"
	"github.com/balkashynov/saj/internal/mockserver"
)

func newMockServerCmd() *cobra.Command {
	var (
		addr string
		mode string
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory API for development",
		Long: `Run an in-memory implementation of the legal office API.

Only the administrator account exists at start (SAJ_MOCK_ADMIN_USER /
SAJ_MOCK_ADMIN_PASSWORD). --seed adds a lawyer, clients, processes and
appointments around today. Data is lost when the server stops.`,
		Args:        cobra.NoArgs,
		Annotations: standalone,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stdout})

			authMode := cfg.AuthMode
			if mode != "" {
				authMode = config.AuthMode(strings.ToLower(mode))
			}
			if addr == "" {
				addr = cfg.Mock.Addr
			}

			srv, err := mockserver.New(cfg.Mock, authMode, log)
			if err != nil {
				return fmt.Errorf("failed to create mock server: %w", err)
			}
			if seed {
				if err := srv.SeedDemo(time.Now()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API em http://localhost%s/api (modo %s). Ctrl+C para parar.\n", displayAddr(addr), authMode)
			return srv.Start(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default SAJ_MOCK_ADDR)")
	cmd.Flags().StringVar(&mode, "mode", "", "Auth mode: cookie or bearer (default SAJ_AUTH_MODE)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load demo data")
	return cmd
}

// displayAddr keeps the port of a ":8081" style address
func displayAddr(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
