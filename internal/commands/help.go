package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "help [command]",
		Short:       "Show comprehensive help for saj",
		Long:        `Display detailed help for all saj commands and flags, or the help of one command.`,
		Annotations: standalone,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				target, _, err := cmd.Root().Find(args)
				if err != nil || target == nil {
					return fmt.Errorf("unknown help topic %q", args)
				}
				return target.Help()
			}
			showCustomHelp(cmd.OutOrStdout())
			return nil
		},
	}
}

func showCustomHelp(w io.Writer) {
	fmt.Fprint(w, `
███████╗ █████╗      ██╗
██╔════╝██╔══██╗     ██║
███████╗███████║     ██║
╚════██║██╔══██║██   ██║
███████║██║  ██║╚█████╔╝
╚══════╝╚═╝  ╚═╝ ╚════╝

saj - terminal front-end for the legal office API

SESSION:

  login                   Log in (prompts for missing values)
    -u, --username        Username
    -p, --password        Password
  logout                  End the session, locally even when the server is down
  whoami                  Show the logged in user

INTERACTIVE:

  (no command), ui [rota] Open the UI: dashboard, clients, processes, appointments

    Keys:
      1-4           Switch screen
      n             New record
      e / enter     Edit selected record
      d             Delete selected record
      /             Filter
      [ / ]         Previous / next lawyer (agenda)
      r             Reload
      ctrl+l        Logout
      q             Quit

RECORDS:

  clients | processes | appointments | users
    ls                    List records (--json)
      --lawyer            Appointments of one lawyer only
    show <id>             Show one record (--json)
    add <campos...>       Create a record
    edit <id> <campos...> Change the given fields only
    rm <id>               Delete a record (-y skips the question)

    Records can be addressed by id, and clients, processes and users also by
    name, number or username.

    Field syntax:
      free text     Primary field (name, number or description)
      key:value     Any other field; quote values with spaces

    Examples:
      saj clients add Jane Doe cpf:123.456.789-00 email:jane@example.com
      saj processes add 0001234-56.2026.8.26.0100 client:"Jane Doe"
      saj appointments add Audiência when:"amanhã 14:00" lawyer:mariana client:jane
      saj clients edit "Jane Doe" phone:"(11) 98765-4321"

  agenda                  Appointments grouped by day
    -l, --lawyer          Only this lawyer
    -w, --week            Current calendar week
    -d, --days            Days from today (default 7)

  search <query>          Search clients and processes (--json)

DEVELOPMENT:

  mock-server             Run the in-memory API
    --addr                Listen address (default SAJ_MOCK_ADDR)
    --mode                cookie or bearer (default SAJ_AUTH_MODE)
    --seed                Load demo data

  version                 Print the version
  help                    Show this help

ENVIRONMENT:

  SAJ_API_URL             API base URL (default http://localhost:8081/api)
  SAJ_AUTH_MODE           cookie or bearer
  SAJ_HOME                Data directory (default ~/.saj)
  SAJ_LOG_LEVEL           trace, debug, info, warn, error

`)
}
