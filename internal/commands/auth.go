package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/parser"
	"github.com/balkashynov/saj/internal/session"
)

func newLoginCmd(c *cli) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the API",
		Long: `Log in with a username and password. Missing values are prompted for;
the password is read without echo when stdin is a terminal.

The session is kept in the local database until 'saj logout' or until the
server rejects it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			var err error
			if strings.TrimSpace(username) == "" {
				if username, err = prompt(cmd, "Usuário", false); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd, "Senha", true); err != nil {
					return err
				}
			}
			if strings.TrimSpace(username) == "" || password == "" {
				return &exitError{msg: "Informe usuário e senha"}
			}

			if err := a.store.Login(cmd.Context(), strings.TrimSpace(username), password); err != nil {
				return &exitError{msg: api.UserMessage(err, api.MsgAuthenticationFailed), err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bem-vindo, %s!\n", a.store.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long:  `Notify the server and clear the local session. The local session is cleared even when the server cannot be reached.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			active := a.store.IsAuthenticated()
			// leftovers such as a cookie without a stored user are cleared too
			if err := a.store.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			if !active {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma sessão ativa.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada.")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: protected(c, func(cmd *cobra.Command, a *app, args []string) error {
			out := cmd.OutOrStdout()
			s := a.store.Session()

			fmt.Fprintf(out, "Usuário: %s\n", a.store.DisplayName())
			fmt.Fprintf(out, "Modo:    %s\n", a.store.Mode())
			fmt.Fprintf(out, "API:     %s\n", a.client.BaseURL())

			if a.store.Mode() != config.AuthModeBearer {
				if s.Username != "" {
					fmt.Fprintf(out, "Login:   %s\n", s.Username)
				}
				if s.Role != "" {
					fmt.Fprintf(out, "Perfil:  %s\n", s.Role)
				}
				return nil
			}

			claims, err := a.store.Claims()
			if errors.Is(err, session.ErrNoToken) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Login:   %s\n", claims.Subject)
			if claims.Role != "" {
				fmt.Fprintf(out, "Perfil:  %s\n", claims.Role)
			}
			if !claims.ExpiresAt.IsZero() {
				status := ""
				if claims.Expired(c.now()) {
					status = " (expirado)"
				}
				fmt.Fprintf(out, "Expira:  %s%s\n", parser.FormatDateTime(claims.ExpiresAt), status)
			}
			return nil
		}),
	}
}
