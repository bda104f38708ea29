package agent

import (
	"fmt"
	"strings"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
)

// BuildSystemPrompt composes the first-round system prompt: the wire
// format, the tools registered for this session, the active trust tier,
// and whatever the memory file holds.
func BuildSystemPrompt(level autonomy.Level, workDir string, tools []domain.Tool, memory string) string {
	var b strings.Builder

	b.WriteString("You are a coding agent working in ")
	b.WriteString(workDir)
	b.WriteString(".\n\n")

	fmt.Fprintf(&b, "You run at the %q autonomy level. Tools outside this level are refused by policy; do not retry a refused call.\n\n", level)

	if len(tools) == 0 {
		b.WriteString("No tools are available at this level. Answer from the conversation alone.\n")
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("To use a tool, reply with exactly one block:\n\n")
	b.WriteString(toolCallMarker + " <name>\n<input lines>\n" + toolCallEnd + "\n\n")
	b.WriteString("Nothing after " + toolCallEnd + " is read. When you can answer directly, reply in plain text without the markers.\n\n")

	b.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}

	if memory != "" {
		b.WriteString("\nNotes from previous sessions:\n")
		b.WriteString(strings.TrimRight(memory, "\n"))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
