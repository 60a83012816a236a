package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// printTable renders rows under headers with a rounded border
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

// printJSON writes v indented
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// confirm asks a yes/no question on the command's input. Anything but s/sim/y/yes is no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [s/N] ", question)
	answer, _ := readLine(cmd.InOrStdin())
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "sim", "y", "yes":
		return true
	default:
		return false
	}
}

// prompt reads one line, hiding the echo when secret and the input is a terminal
func prompt(cmd *cobra.Command, label string, secret bool) (string, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)

	if f, ok := cmd.InOrStdin().(*os.File); ok && secret && term.IsTerminal(f.Fd()) {
		raw, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(raw), nil
	}

	line, err := readLine(cmd.InOrStdin())
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return line, nil
}

// readLine reads up to a newline one byte at a time, so consecutive prompts on
// the same input do not lose what a buffered reader would read ahead
func readLine(r io.Reader) (string, error) {
	var (
		line []byte
		b    [1]byte
	)
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				break
			}
			line = append(line, b[0])
		}
		if err != nil {
			return strings.TrimRight(string(line), "\r"), err
		}
	}
	return strings.TrimRight(string(line), "\r"), nil
}

// truncate shortens s to n glyphs
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// failure turns err into the message printed to the user. Validation problems
// are shown as they are; request failures get the server's message appended.
func failure(err error, fallback string) error {
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return &exitError{msg: ve.Error(), err: err}
	}

	msg := api.UserMessage(err, fallback)
	if server := api.ServerMessage(err); server != "" && !errors.Is(err, api.ErrSessionExpired) {
		msg += ": " + server
	}
	return &exitError{msg: msg, err: err}
}
