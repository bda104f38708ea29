package domain

import (
	"time"
)

// Message represents a single turn in a conversation
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionID"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ToolName  string    `json:"toolName,omitempty"`
	ToolOK    bool      `json:"toolOK,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// IsToolResult reports whether the message is a synthetic tool-result turn.
func (m Message) IsToolResult() bool { return m.Role == RoleTool }

// Excerpt returns the first n runes of the content, for summaries and titles.
func (m Message) Excerpt(n int) string {
	runes := []rune(m.Content)
	if len(runes) <= n {
		return m.Content
	}
	return string(runes[:n]) + "..."
}
