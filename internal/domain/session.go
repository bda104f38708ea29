package domain

import (
	"time"
)

// Session represents one conversation with the agent
type Session struct {
	ID        string    `json:"id"`
	Directory string    `json:"directory"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Usage accumulates token counts for a session.
type Usage struct {
	SessionID    string    `json:"sessionID"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
