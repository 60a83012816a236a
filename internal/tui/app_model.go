package tui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/saj/internal/api"
	"github.com/balkashynov/saj/internal/guard"
	"github.com/balkashynov/saj/internal/logger"
	"github.com/balkashynov/saj/internal/services"
)

const sidebarWidth = 24

// Session is the part of the session store the TUI drives
type Session interface {
	guard.SessionState
	Restore(ctx context.Context) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	DisplayName() string
	Subscribe(fn func())
}

// AppModel is the controller of the TUI. It owns the current route and asks the
// guard what to do with it after every message.
type AppModel struct {
	ctx       context.Context
	session   Session
	newScreen func(guard.Route) screen

	route   guard.Route
	current screen
	notice  string

	shimmer *ShimmerState
	ticking bool

	width    int
	height   int
	quitting bool
}

// NewAppModel creates the controller, starting at route
func NewAppModel(ctx context.Context, session Session, svc *services.Services, route guard.Route) AppModel {
	shimmer := NewShimmerState(DefaultShimmerConfig())
	m := AppModel{
		ctx:     ctx,
		session: session,
		route:   route,
		shimmer: shimmer,
	}
	m.newScreen = func(r guard.Route) screen {
		switch r {
		case guard.RouteLogin:
			return NewLoginModel(ctx, session)
		case guard.RouteClients:
			return NewResourceModel(ctx, newClientsAdapter(svc), shimmer)
		case guard.RouteProcesses:
			return NewResourceModel(ctx, newProcessesAdapter(svc), shimmer)
		case guard.RouteAppointments:
			return NewResourceModel(ctx, newAppointmentsAdapter(svc), shimmer)
		default:
			return NewDashboardModel(ctx, svc, shimmer)
		}
	}
	return m
}

// Init restores the session. Nothing is rendered but the placeholder until it finishes.
func (m AppModel) Init() tea.Cmd {
	ctx, session := m.ctx, m.session
	restore := func() tea.Msg {
		return restoredMsg{err: session.Restore(ctx)}
	}
	return tea.Batch(restore, tea.SetWindowTitle("SAJ"), m.shimmer.Tick())
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next.sync(cmd)
		}

	case shimmerTickMsg:
		m.ticking = false
		return m.sync()

	case restoredMsg:
		if msg.err != nil {
			log := logger.Get()
			log.Error().Err(msg.err).Msg("session restore failed")
			m.notice = "Não foi possível restaurar a sessão"
		}
		return m.sync()

	case sessionChangedMsg:
		return m.sync()

	case sessionExpiredMsg:
		m.notice = api.MsgSessionExpired
		return m.sync()

	case loggedOutMsg:
		if msg.err != nil {
			log := logger.Get()
			log.Error().Err(msg.err).Msg("logout left local state behind")
		}
		return m.sync()
	}

	if m.current != nil {
		var cmd tea.Cmd
		m.current, cmd = m.current.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m.sync(cmds...)
}

// handleKey processes the global shortcuts
func (m AppModel) handleKey(msg tea.KeyMsg) (AppModel, tea.Cmd, bool) {
	if m.current == nil || m.route == guard.RouteLogin {
		return m, nil, false
	}

	if msg.String() == "ctrl+l" {
		ctx, session := m.ctx, m.session
		return m, func() tea.Msg {
			return loggedOutMsg{err: session.Logout(ctx)}
		}, true
	}

	if m.current.Capturing() {
		return m, nil, false
	}

	switch key := msg.String(); key {
	case "q":
		m.quitting = true
		return m, tea.Quit, true
	case "1", "2", "3", "4":
		i, _ := strconv.Atoi(key)
		next, cmd := m.navigate(guard.Routes[i-1])
		return next, cmd, true
	}
	return m, nil, false
}

// sync re-runs the guard against the current route and follows its decision
func (m AppModel) sync(cmds ...tea.Cmd) (AppModel, tea.Cmd) {
	decision := guard.Decide(guard.StateOf(m.session), m.route)
	switch decision.Action {
	case guard.Redirect:
		var cmd tea.Cmd
		m, cmd = m.navigate(decision.Target)
		cmds = append(cmds, cmd)
	case guard.Render:
		if m.current == nil {
			var cmd tea.Cmd
			m, cmd = m.navigate(m.route)
			cmds = append(cmds, cmd)
		}
	}

	if !m.ticking && m.needsShimmer() {
		if cmd := m.shimmer.Tick(); cmd != nil {
			m.ticking = true
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// navigate mounts a fresh screen for route. A protected route clears the login notice.
func (m AppModel) navigate(route guard.Route) (AppModel, tea.Cmd) {
	if route == m.route && m.current != nil {
		return m, nil
	}
	m.route = route
	if route.Protected() {
		m.notice = ""
	}
	m.current = m.newScreen(route)
	m.shimmer.Reset()
	return m, m.current.Init()
}

func (m AppModel) needsShimmer() bool {
	if m.session.Loading() {
		return true
	}
	return m.current != nil && m.current.Loading()
}

// Route returns the route currently shown
func (m AppModel) Route() guard.Route {
	return m.route
}

// View renders the application
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}

	if guard.Decide(guard.StateOf(m.session), m.route).Action == guard.Wait || m.current == nil {
		placeholder := m.shimmer.RenderShimmerText("Carregando sessão...", 40)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, placeholder)
	}

	if m.route == guard.RouteLogin {
		body := m.current.View(m.width, m.height-2)
		if m.notice != "" {
			body = lipgloss.JoinVertical(lipgloss.Center, warningStyle.Render(m.notice), "", body)
		}
		page := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, body)
		return page + "\n" + renderHelp(m.current.Help(), m.width)
	}

	contentWidth := max(20, m.width-sidebarWidth-2)
	contentHeight := max(5, m.height-3)

	content := lipgloss.NewStyle().
		Width(contentWidth).
		Height(contentHeight).
		PaddingLeft(1).
		Render(m.current.View(contentWidth-1, contentHeight))

	page := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(contentHeight), content)

	help := m.current.Help()
	if !m.current.Capturing() {
		help = strings.Join([]string{help, "1-4 navegar", "ctrl+l sair", "q fechar"}, " • ")
	}
	return page + "\n" + renderHelp(help, m.width)
}

// renderSidebar renders the navigation column
func (m AppModel) renderSidebar(height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("⚖  SAJ"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Agendamento Jurídico"))
	b.WriteString("\n\n")

	for i, route := range guard.Routes {
		line := strconv.Itoa(i+1) + "  " + route.Title()
		if route == m.route {
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorAccentBright)).
				Bold(true).
				Render("▸ " + line))
		} else {
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSecondaryText)).
				Render("  " + line))
		}
		b.WriteString("\n")
	}

	top := b.String()
	user := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(m.session.DisplayName()),
		helpStyle.Render("ctrl+l sair"),
	)
	gap := max(1, height-lipgloss.Height(top)-lipgloss.Height(user)-2)

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Render(top + strings.Repeat("\n", gap) + user)
}
