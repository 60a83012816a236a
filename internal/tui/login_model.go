package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/saj/internal/api"
)

const (
	loginUsername = iota
	loginPassword
)

// LoginModel is the login screen
type LoginModel struct {
	ctx     context.Context
	session Session

	inputs  []textinput.Model
	focus   int
	spinner spinner.Model

	submitting bool
	err        string
}

// NewLoginModel creates the login screen with the username focused
func NewLoginModel(ctx context.Context, session Session) LoginModel {
	username := textinput.New()
	username.Placeholder = "usuário"
	username.CharLimit = 64
	username.Width = 30
	styleInput(&username)
	username.Focus()

	password := textinput.New()
	password.Placeholder = "senha"
	password.CharLimit = 128
	password.Width = 30
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	styleInput(&password)

	return LoginModel{
		ctx:     ctx,
		session: session,
		inputs:  []textinput.Model{username, password},
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))),
		),
	}
}

// Init initializes the model
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m LoginModel) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = errorText(msg.err, api.MsgAuthenticationFailed)
			m.inputs[loginPassword].SetValue("")
			return m.focusOn(loginPassword)
		}
		m.err = ""
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			return m.focusOn((m.focus + 1) % len(m.inputs))
		case "shift+tab", "up":
			return m.focusOn((m.focus + len(m.inputs) - 1) % len(m.inputs))
		case "enter":
			if m.focus == loginUsername {
				return m.focusOn(loginPassword)
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m LoginModel) focusOn(i int) (screen, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m, m.inputs[i].Focus()
}

// submit starts the login. Both fields are required.
func (m LoginModel) submit() (screen, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[loginUsername].Value())
	password := m.inputs[loginPassword].Value()
	if username == "" || password == "" {
		m.err = "Informe usuário e senha"
		return m, nil
	}

	m.err = ""
	m.submitting = true
	ctx, session := m.ctx, m.session
	login := func() tea.Msg {
		return loginResultMsg{err: session.Login(ctx, username, password)}
	}
	return m, tea.Batch(login, m.spinner.Tick)
}

// Capturing is always true: the login form reads text
func (m LoginModel) Capturing() bool { return true }

func (m LoginModel) Loading() bool { return false }

func (m LoginModel) Help() string {
	return "tab alterna campos • enter entrar • ctrl+c sair"
}

// View renders the login card
func (m LoginModel) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("⚖  SAJ"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Sistema de Agendamento Jurídico"))
	b.WriteString("\n\n")

	labels := []string{"Usuário", "Senha"}
	for i, input := range m.inputs {
		label := labelStyle
		if i == m.focus {
			label = label.Foreground(lipgloss.Color(ColorAccentBright))
		}
		b.WriteString(label.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.submitting:
		b.WriteString(m.spinner.View() + mutedStyle.Render(" Entrando..."))
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	default:
		b.WriteString(helpStyle.Render("enter para entrar"))
	}

	return cardStyle.
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(1, 3).
		Width(min(48, max(30, width-4))).
		Render(b.String())
}
