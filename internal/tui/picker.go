// Package tui provides the small interactive surfaces: the in-session
// autonomy picker and the yes/no confirmation prompt.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/aegis/internal/autonomy"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// levelHints describe what each tier permits, indexed by Level.
var levelHints = [...]string{
	"no tools at all",
	"read-only tools inside the workspace",
	"read and write inside the workspace",
	"workspace plus home directory and web fetches",
	"unsandboxed shell, no path confinement",
}

// pickerModel selects an autonomy level for the rest of the session.
type pickerModel struct {
	current autonomy.Level
	cursor  int
	chosen  autonomy.Level
	ok      bool
}

func newPicker(current autonomy.Level) pickerModel {
	return pickerModel{current: current, cursor: int(current)}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m, nil
	}

	switch key.String() {
	case "0", "1", "2", "3", "4":
		m.chosen = autonomy.Level(int(key.String()[0] - '0'))
		m.ok = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < int(autonomy.Full) {
			m.cursor++
		}
	case "enter":
		m.chosen = autonomy.Level(m.cursor)
		m.ok = true
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Autonomy level (this session only)"))
	b.WriteString("\n\n")

	for i, name := range autonomy.LevelNames() {
		marker := "  "
		line := fmt.Sprintf("[%d] %-9s  %s", i, name, levelHints[i])
		if autonomy.Level(i) == m.current {
			line += "  (current)"
		}
		if i == m.cursor {
			marker = "> "
			line = selectedStyle.Render(line)
		} else {
			line = dimStyle.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}

	b.WriteString(helpStyle.Render("0-4 select · up/down move · enter choose · esc cancel"))
	return b.String()
}

// PickLevel runs the picker and returns the chosen level. The second
// return is false when the user cancelled; the override is never written
// to configuration.
func PickLevel(current autonomy.Level) (autonomy.Level, bool, error) {
	final, err := tea.NewProgram(newPicker(current)).Run()
	if err != nil {
		return current, false, err
	}
	m := final.(pickerModel)
	if !m.ok {
		return current, false, nil
	}
	return m.chosen, true, nil
}
