package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/saj/internal/parser"
	"github.com/balkashynov/saj/internal/services"
)

// msgLoadFailed is shown when a screen cannot fetch its data
const msgLoadFailed = "Erro ao carregar dados"

// dashboardLoadedMsg carries the dashboard data
type dashboardLoadedMsg struct {
	data *services.Dashboard
	err  error
}

// DashboardModel shows the office counters and the next appointments
type DashboardModel struct {
	ctx     context.Context
	svc     *services.Services
	shimmer *ShimmerState
	spinner spinner.Model
	now     func() time.Time

	loading bool
	data    *services.Dashboard
	err     string
}

// NewDashboardModel creates the dashboard screen
func NewDashboardModel(ctx context.Context, svc *services.Services, shimmer *ShimmerState) DashboardModel {
	return DashboardModel{
		ctx:     ctx,
		svc:     svc,
		shimmer: shimmer,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		now:     time.Now,
		loading: true,
	}
}

// Init fetches the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick)
}

func (m DashboardModel) fetch() tea.Cmd {
	ctx, svc, now := m.ctx, m.svc, m.now()
	return func() tea.Msg {
		data, err := svc.LoadDashboard(ctx, now)
		return dashboardLoadedMsg{data: data, err: err}
	}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(msg.err, msgLoadFailed)
			return m, nil
		}
		m.err = ""
		m.data = msg.data
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "r" && !m.loading {
			m.loading = true
			return m, tea.Batch(m.fetch(), m.spinner.Tick)
		}
	}
	return m, nil
}

func (m DashboardModel) Capturing() bool { return false }

// Loading is true only before the first load; refreshes keep the old data on screen
func (m DashboardModel) Loading() bool { return m.loading && m.data == nil }

func (m DashboardModel) Help() string { return "r atualizar" }

// View renders the counters and the upcoming appointments
func (m DashboardModel) View(width, height int) string {
	header := titleStyle.Render("Dashboard")
	if m.loading && m.data != nil {
		header += " " + m.spinner.View()
	}

	if m.data == nil {
		body := m.shimmer.RenderShimmerText("Carregando dashboard...", width)
		if m.err != "" {
			body = errorStyle.Render(m.err) + "\n" + helpStyle.Render("r tenta novamente")
		}
		return header + "\n\n" + body
	}

	stats := m.data.Stats
	cardWidth := max(16, (width-8)/4)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Clientes", stats.TotalClients, cardWidth),
		statCard("Processos ativos", stats.ActiveProcesses, cardWidth),
		statCard("Compromissos hoje", stats.TodayAppointments, cardWidth),
		statCard("Próximos 7 dias", stats.WeekAppointments, cardWidth),
	)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(cards)
	b.WriteString("\n\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n\n")
	}
	b.WriteString(labelStyle.Render("Próximos compromissos"))
	b.WriteString("\n")

	if len(m.data.Upcoming) == 0 {
		b.WriteString(mutedStyle.Render("Nenhum compromisso agendado"))
		return b.String()
	}

	for _, a := range m.data.Upcoming {
		when := parser.FormatTimestamp(a.DateTime)
		who := fmt.Sprintf("%s com %s",
			services.AppointmentClientName(m.data.Clients, a.ClientID),
			services.LawyerName(m.data.Users, a.LawyerID))
		line := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render(when) +
			"  " + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Render(who)
		if a.Description != "" {
			line += mutedStyle.Render("  " + a.Description)
		}
		b.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func statCard(label string, value, width int) string {
	return cardStyle.
		Width(width).
		Render(mutedStyle.Render(label) + "\n" + titleStyle.Render(strconv.Itoa(value)))
}
