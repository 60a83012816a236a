package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/services"
)

// Run starts the TUI at route and blocks until it exits.
// Register the session store's own 401 hook on client first so it purges before the screen changes.
func Run(ctx context.Context, session Session, client *api.Client, svc *services.Services, route guard.Route) error {
	model := NewAppModel(ctx, session, svc, route)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	watch(session, client, p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// watch forwards session changes and the client's 401 hook to the program
func watch(session Session, client *api.Client, send func(tea.Msg)) {
	session.Subscribe(func() {
		send(sessionChangedMsg{})
	})
	client.OnUnauthorized(func() {
		send(sessionExpiredMsg{})
	})
}
