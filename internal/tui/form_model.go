package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/saj/internal/services"
)

// FormModel is the modal create/edit form of a resource screen
type FormModel struct {
	title   string
	fields  []services.Field
	inputs  []textinput.Model
	initial []string
	focus   int
	editing bool

	err       string
	saving    bool
	submitted bool
	cancelled bool

	// Save prompt shown on Esc when there are unsaved changes
	prompt     choiceModal
	promptOpen bool
}

// NewFormModel creates a form pre-filled with values, focused on the first field
func NewFormModel(title string, fields []services.Field, values map[string]string, editing bool) FormModel {
	m := FormModel{
		title:   title,
		fields:  fields,
		editing: editing,
	}
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 256
		ti.Width = 44
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		styleInput(&ti)
		ti.SetValue(values[f.Key])
		if i == 0 {
			ti.Focus()
		}
		m.inputs = append(m.inputs, ti)
		m.initial = append(m.initial, values[f.Key])
	}
	return m
}

// Values returns the submitted values: every field for a new record, only the
// changed ones when editing
func (m FormModel) Values() map[string]string {
	values := map[string]string{}
	for i, f := range m.fields {
		v := m.inputs[i].Value()
		if m.editing && v == m.initial[i] {
			continue
		}
		values[f.Key] = v
	}
	return values
}

// HasChanges reports whether any field differs from its initial value
func (m FormModel) HasChanges() bool {
	for i := range m.inputs {
		if m.inputs[i].Value() != m.initial[i] {
			return true
		}
	}
	return false
}

// missing returns the message for the first empty required field
func (m FormModel) missing() string {
	for i, f := range m.fields {
		if f.Required && strings.TrimSpace(m.inputs[i].Value()) == "" {
			return f.Label + " é obrigatório"
		}
	}
	return ""
}

// Update handles messages
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	key, isKey := msg.(tea.KeyMsg)
	if isKey && m.promptOpen {
		var c choice
		m.prompt, c = m.prompt.handle(key)
		switch c {
		case choiceYes:
			m.promptOpen = false
			return m.submit()
		case choiceNo:
			m.promptOpen = false
			m.cancelled = true
		case choiceDismiss:
			m.promptOpen = false
		}
		return m, nil
	}

	if isKey {
		switch key.String() {
		case "esc":
			if m.HasChanges() {
				m.prompt = newChoiceModal("Salvar alterações?", true)
				m.promptOpen = true
				return m, nil
			}
			m.cancelled = true
			return m, nil
		case "tab", "down":
			return m.focusOn((m.focus + 1) % len(m.inputs))
		case "shift+tab", "up":
			return m.focusOn((m.focus + len(m.inputs) - 1) % len(m.inputs))
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focus == len(m.inputs)-1 {
				return m.submit()
			}
			return m.focusOn(m.focus + 1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) focusOn(i int) (FormModel, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m, m.inputs[i].Focus()
}

// submit checks presence before handing the values to the screen
func (m FormModel) submit() (FormModel, tea.Cmd) {
	if msg := m.missing(); msg != "" {
		m.err = msg
		return m, nil
	}
	m.err = ""
	m.submitted = true
	return m, nil
}

// View renders the modal
func (m FormModel) View() string {
	if m.promptOpen {
		return m.prompt.View()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		label := labelStyle
		if i == m.focus {
			label = label.Foreground(lipgloss.Color(ColorAccentBright))
		}
		name := f.Label
		if f.Required {
			name += " *"
		}
		b.WriteString(label.Render(name))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.saving:
		b.WriteString(mutedStyle.Render("Salvando..."))
	case m.err != "":
		b.WriteString(errorStyle.Width(48).Render(m.err))
	default:
		b.WriteString(helpStyle.Render("tab próximo campo • ctrl+s salvar • esc cancelar"))
	}

	return modalStyle.Width(52).Render(b.String())
}
