package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/saj/internal/parser"
)

// ResourceModel is a list screen: a table of records with a create/edit form,
// delete confirmation and a filter box
type ResourceModel struct {
	ctx     context.Context
	adapter adapter

	table   table.Model
	spinner spinner.Model
	shimmer *ShimmerState
	filter  textinput.Model

	visible []int // adapter indexes of the rows on screen

	loading bool
	loaded  bool
	saving  bool
	err     string
	keepErr bool // err survives the next successful load
	flash   string

	form     FormModel
	formOpen bool
	editID   string

	confirm     choiceModal
	confirmOpen bool
	deleteID    string

	filtering bool
	width     int
	height    int
}

// NewResourceModel creates the screen of one resource
func NewResourceModel(ctx context.Context, a adapter, shimmer *ShimmerState) ResourceModel {
	t := table.New(
		table.WithColumns(a.Columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	filter := textinput.New()
	filter.Placeholder = "filtrar"
	filter.Width = 30
	styleInput(&filter)

	return ResourceModel{
		ctx:     ctx,
		adapter: a,
		table:   t,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))),
		),
		shimmer: shimmer,
		filter:  filter,
		loading: true,
	}
}

// Init fetches the records
func (m ResourceModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick)
}

func (m ResourceModel) fetch() tea.Cmd {
	ctx, route, fetch := m.ctx, m.adapter.Route(), m.adapter.Fetch()
	return func() tea.Msg {
		data, err := fetch(ctx)
		return resourceLoadedMsg{route: route, data: data, err: err}
	}
}

func (m ResourceModel) run(save saveFunc, deleted bool) tea.Cmd {
	ctx, route := m.ctx, m.adapter.Route()
	return func() tea.Msg {
		return resourceSavedMsg{route: route, deleted: deleted, err: save(ctx)}
	}
}

// Update handles messages
func (m ResourceModel) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resourceLoadedMsg:
		if msg.route != m.adapter.Route() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = errorText(msg.err, msgLoadFailed)
			m.keepErr = false
			return m, nil
		}
		if m.keepErr {
			m.keepErr = false
		} else {
			m.err = ""
		}
		m.loaded = true
		m.adapter.Apply(msg.data)
		m.refresh()
		return m, nil

	case resourceSavedMsg:
		if msg.route != m.adapter.Route() {
			return m, nil
		}
		return m.saved(msg)

	case spinner.TickMsg:
		if !m.loading && !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.formOpen:
			return m.updateForm(msg)
		case m.confirmOpen:
			return m.updateConfirm(msg)
		case m.filtering:
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}

	if m.formOpen {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes the table shortcuts
func (m ResourceModel) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	switch msg.String() {
	case "r":
		m.loading = true
		m.flash = ""
		return m, tea.Batch(m.fetch(), m.spinner.Tick)
	case "n", "a":
		if !m.loaded {
			return m, nil
		}
		m.flash = ""
		m.editID = ""
		m.form = NewFormModel("Novo "+m.adapter.Noun(), m.adapter.Fields(), m.adapter.Values(-1), false)
		m.formOpen = true
		return m, textinput.Blink
	case "e", "enter":
		i, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.flash = ""
		m.editID = m.adapter.ID(i)
		m.form = NewFormModel("Editar "+m.adapter.Noun(), m.adapter.Fields(), m.adapter.Values(i), true)
		m.formOpen = true
		return m, textinput.Blink
	case "d", "x", "delete":
		i, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.deleteID = m.adapter.ID(i)
		m.confirm = newChoiceModal("Excluir "+m.adapter.Noun()+" "+m.adapter.Label(i)+"?", false)
		m.confirmOpen = true
		return m, nil
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "[", "]":
		sel, ok := m.adapter.(lawyerSelector)
		if !ok || !m.loaded {
			return m, nil
		}
		delta := 1
		if msg.String() == "[" {
			delta = -1
		}
		if sel.CycleLawyer(delta) {
			m.loading = true
			return m, tea.Batch(m.fetch(), m.spinner.Tick)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ResourceModel) updateForm(msg tea.KeyMsg) (screen, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)

	switch {
	case m.form.cancelled:
		m.formOpen = false
		return m, nil
	case m.form.submitted:
		m.form.submitted = false
		save, err := m.adapter.Submit(m.editID, m.form.Values())
		if err != nil {
			m.form.err = errorText(err, m.saveFailed())
			return m, nil
		}
		m.form.saving = true
		m.saving = true
		return m, tea.Batch(m.run(save, false), m.spinner.Tick)
	}
	return m, cmd
}

func (m ResourceModel) updateConfirm(msg tea.KeyMsg) (screen, tea.Cmd) {
	var c choice
	m.confirm, c = m.confirm.handle(msg)
	switch c {
	case choiceYes:
		m.confirmOpen = false
		m.saving = true
		return m, tea.Batch(m.run(m.adapter.Delete(m.deleteID), true), m.spinner.Tick)
	case choiceNo, choiceDismiss:
		m.confirmOpen = false
	}
	return m, nil
}

func (m ResourceModel) updateFilter(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		m.filter.Blur()
		m.filtering = false
		m.refresh()
		return m, nil
	case "enter":
		m.filter.Blur()
		m.filtering = false
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

// saved closes the form on success and reloads the list
func (m ResourceModel) saved(msg resourceSavedMsg) (screen, tea.Cmd) {
	m.saving = false
	m.form.saving = false

	if msg.err != nil {
		if msg.deleted {
			// the record may already be gone server-side, reload either way
			m.err = errorText(msg.err, "Erro ao excluir "+m.adapter.Noun())
			m.keepErr = true
			m.loading = true
			return m, tea.Batch(m.fetch(), m.spinner.Tick)
		}
		if m.formOpen {
			m.form.err = errorText(msg.err, m.saveFailed())
		} else {
			m.err = errorText(msg.err, m.saveFailed())
		}
		return m, nil
	}

	m.err = ""
	m.formOpen = false
	noun := strings.ToUpper(m.adapter.Noun()[:1]) + m.adapter.Noun()[1:]
	if msg.deleted {
		m.flash = noun + " excluído"
	} else {
		m.flash = noun + " salvo"
	}
	m.loading = true
	return m, tea.Batch(m.fetch(), m.spinner.Tick)
}

func (m ResourceModel) saveFailed() string {
	return "Erro ao salvar " + m.adapter.Noun()
}

// refresh rebuilds the table rows from the adapter, applying the filter
func (m *ResourceModel) refresh() {
	rows := m.adapter.Rows()
	needle := parser.Fold(m.filter.Value())

	m.visible = nil
	var shown []table.Row
	for i, row := range rows {
		if needle != "" && !strings.Contains(parser.Fold(strings.Join(row, " ")), needle) {
			continue
		}
		m.visible = append(m.visible, i)
		shown = append(shown, row)
	}
	m.table.SetRows(shown)
	if m.table.Cursor() >= len(shown) {
		m.table.SetCursor(max(0, len(shown)-1))
	}
}

// selected maps the table cursor back to an adapter index
func (m ResourceModel) selected() (int, bool) {
	if m.loading || len(m.visible) == 0 {
		return 0, false
	}
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return 0, false
	}
	return m.visible[c], true
}

// Capturing is true while a modal or the filter box reads keys
func (m ResourceModel) Capturing() bool {
	return m.formOpen || m.confirmOpen || m.filtering
}

// Loading is true until the first load finished
func (m ResourceModel) Loading() bool {
	return m.loading && !m.loaded && m.err == ""
}

func (m ResourceModel) Help() string {
	switch {
	case m.formOpen || m.confirmOpen:
		return ""
	case m.filtering:
		return "enter aplica • esc limpa"
	}
	help := "↑/↓ navegar • n novo • e editar • d excluir • / filtrar • r atualizar"
	if _, ok := m.adapter.(lawyerSelector); ok {
		help += " • [ ] advogado"
	}
	return help
}

// View renders the table, or the open modal centered over the content area
func (m ResourceModel) View(width, height int) string {
	if m.formOpen {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.form.View())
	}
	if m.confirmOpen {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}

	var b strings.Builder
	header := titleStyle.Render(m.adapter.Route().Title())
	if sel, ok := m.adapter.(lawyerSelector); ok {
		header += mutedStyle.Render("  Advogado: ") + labelStyle.Render(sel.Lawyer())
	}
	if m.loading || m.saving {
		header += " " + m.spinner.View()
	}
	b.WriteString(header)
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(mutedStyle.Render("Filtro: ") + m.filter.View())
		b.WriteString("\n")
	}

	switch {
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	case m.flash != "":
		b.WriteString(successStyle.Render(m.flash))
	}
	b.WriteString("\n")

	if !m.loaded {
		if m.Loading() {
			b.WriteString(m.shimmer.RenderShimmerText("Carregando "+strings.ToLower(m.adapter.Route().Title())+"...", width))
		} else {
			b.WriteString(helpStyle.Render("r tenta novamente"))
		}
		return b.String()
	}

	if len(m.visible) == 0 {
		if m.filter.Value() != "" {
			b.WriteString(mutedStyle.Render("Nenhum registro corresponde ao filtro"))
		} else {
			b.WriteString(mutedStyle.Render("Nenhum " + m.adapter.Noun() + " cadastrado"))
		}
		return b.String()
	}

	t := m.table
	t.SetColumns(m.adapter.Columns(width))
	t.SetWidth(width)
	t.SetHeight(max(3, height-lipgloss.Height(b.String())-1))
	b.WriteString(t.View())
	return b.String()
}
