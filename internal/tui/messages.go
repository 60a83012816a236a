package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/models"
)

// restoredMsg is sent once the session store finished restoring
type restoredMsg struct{ err error }

// sessionChangedMsg is sent by the session store after every state change
type sessionChangedMsg struct{}

// sessionExpiredMsg is sent by the API client's 401 hook through Program.Send
type sessionExpiredMsg struct{}

// loggedOutMsg is sent when the logout command finished
type loggedOutMsg struct{ err error }

// loginResultMsg carries the outcome of a login attempt
type loginResultMsg struct{ err error }

// resourceLoadedMsg carries the data fetched for a resource screen
type resourceLoadedMsg struct {
	route guard.Route
	data  any
	err   error
}

// resourceSavedMsg carries the outcome of a create, update or delete
type resourceSavedMsg struct {
	route   guard.Route
	deleted bool
	err     error
}

// screen is one page of the application
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View(width, height int) string
	// Capturing reports whether the screen reads text input, which turns the global shortcuts off
	Capturing() bool
	// Loading reports whether the screen shows the loading placeholder
	Loading() bool
	Help() string
}

// errorText renders err for the inline error line. Validation problems are shown
// as they are; other failures use fallback plus the server's message, if any.
func errorText(err error, fallback string) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	msg := api.UserMessage(err, fallback)
	if errors.Is(err, api.ErrSessionExpired) {
		return msg
	}
	if server := api.ServerMessage(err); server != "" {
		msg += ": " + server
	}
	return msg
}
