package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/tui"
)

func newUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [rota]",
		Short: "Open the interactive UI",
		Long: `Open the interactive UI, optionally at a route:

  saj ui              dashboard
  saj ui clients      clients
  saj ui processes    processes
  saj ui appointments agenda
  saj ui login        login screen

Unknown routes open the dashboard. Protected routes redirect to the login
screen when there is no session.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: interactive,
		RunE: func(cmd *cobra.Command, args []string) error {
			route := guard.RouteDashboard
			if len(args) == 1 {
				route = guard.Resolve("/" + strings.TrimLeft(args[0], "/"))
			}
			return runUI(cmd, c, route)
		},
	}
}

func runUI(cmd *cobra.Command, c *cli, route guard.Route) error {
	a := c.app
	return tui.Run(cmd.Context(), a.store, a.client, a.svc, route)
}
