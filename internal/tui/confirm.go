package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel asks one yes/no question. No is the default; anything but
// an explicit yes declines.
type confirmModel struct {
	question string
	answer   bool
}

func newConfirm(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.answer = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.answer = false
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Approval required"))
	b.WriteString("\n\n")
	b.WriteString(m.question)
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("y approve · n decline (default)"))
	return b.String()
}

// Confirm asks the question on the terminal and reports the answer.
func Confirm(question string) (bool, error) {
	final, err := tea.NewProgram(newConfirm(question)).Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}
