package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// choice is the outcome of a key press on a choiceModal
type choice int

const (
	choicePending choice = iota
	choiceYes
	choiceNo
	choiceDismiss
)

// choiceModal is a Sim/Não confirmation box
type choiceModal struct {
	prompt string
	yes    bool
}

func newChoiceModal(prompt string, yes bool) choiceModal {
	return choiceModal{prompt: prompt, yes: yes}
}

// handle applies a key press
func (c choiceModal) handle(msg tea.KeyMsg) (choiceModal, choice) {
	switch strings.ToLower(msg.String()) {
	case "left", "right", "h", "l", "tab":
		c.yes = !c.yes
	case "y", "s":
		return c, choiceYes
	case "n":
		return c, choiceNo
	case "enter":
		if c.yes {
			return c, choiceYes
		}
		return c, choiceNo
	case "esc":
		return c, choiceDismiss
	}
	return c, choicePending
}

// View renders the box
func (c choiceModal) View() string {
	yesStyle := lipgloss.NewStyle().Padding(0, 2)
	noStyle := lipgloss.NewStyle().Padding(0, 2)
	if c.yes {
		yesStyle = yesStyle.
			Background(lipgloss.Color(ColorAccentBright)).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)
	} else {
		noStyle = noStyle.
			Background(lipgloss.Color(ColorError)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(c.prompt))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, yesStyle.Render("Sim"), "   ", noStyle.Render("Não")))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("← → ou S/N para escolher, Enter confirma\nEsc cancela"))

	return modalStyle.Width(50).Align(lipgloss.Center).Render(b.String())
}
