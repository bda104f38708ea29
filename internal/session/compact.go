package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/storage"
)

// SummaryTitle heads every synthetic summary message.
const SummaryTitle = "[Conversation Summary]"

// DefaultKeepLast is how many recent messages compaction leaves untouched.
const DefaultKeepLast = 10

// perMessageOverhead approximates the framing cost of one message.
const perMessageOverhead = 4

// Needed reports whether history plus the system prompt crowds the
// context window. The estimate is deliberately crude (length/4 plus a
// fixed per-message overhead): it decides when to compact, not billing.
func Needed(messages []*domain.Message, window, systemTokens int) bool {
	if window <= 0 {
		return false
	}
	est := systemTokens
	for _, m := range messages {
		est += len(m.Content)/4 + perMessageOverhead
	}
	return est > window*3/4
}

// Compactor folds old conversation turns into one synthetic summary
// message. Summarization is deterministic text extraction; no model call.
type Compactor struct {
	store *storage.Storage
}

func NewCompactor(store *storage.Storage) *Compactor {
	return &Compactor{store: store}
}

// Compact summarizes every message older than the last keepLast, deletes
// those rows, and inserts the summary as one system message carrying the
// earliest summarized timestamp. Returns how many messages were folded.
// The newest keepLast messages are never touched.
func (c *Compactor) Compact(ctx context.Context, sessionID string, keepLast int) (int, error) {
	if keepLast < 0 {
		keepLast = 0
	}
	messages, err := c.store.GetMessages(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("get messages: %w", err)
	}
	if len(messages) <= keepLast {
		return 0, nil
	}

	toSummarize := messages[:len(messages)-keepLast]

	// A lone summary left over from the previous pass folds to itself.
	if len(toSummarize) == 1 && isSummary(toSummarize[0]) {
		return 0, nil
	}

	summary := &domain.Message{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Role:      domain.RoleSystem,
		Content:   SummaryTitle + "\n\n" + summarize(toSummarize),
		CreatedAt: toSummarize[0].CreatedAt,
	}

	for _, msg := range toSummarize {
		if err := c.store.DeleteMessage(ctx, msg.ID); err != nil {
			return 0, fmt.Errorf("delete message %s: %w", msg.ID, err)
		}
	}
	if err := c.store.CreateMessage(ctx, summary); err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}

	return len(toSummarize), nil
}

// summarize renders one line per folded message: a short excerpt for
// user/assistant turns, an ok/failed tag for tool results.
func summarize(messages []*domain.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			fmt.Fprintf(&sb, "User: %s\n", msg.Excerpt(80))
		case domain.RoleAssistant:
			fmt.Fprintf(&sb, "Assistant: %s\n", msg.Excerpt(80))
		case domain.RoleTool:
			tag := "[ok]"
			if !msg.ToolOK {
				tag = "[failed]"
			}
			fmt.Fprintf(&sb, "Tool %s %s: %s\n", msg.ToolName, tag, msg.Excerpt(80))
		case domain.RoleSystem:
			// An earlier summary folds into the new one unchanged.
			fmt.Fprintf(&sb, "%s\n", strings.TrimPrefix(msg.Content, SummaryTitle+"\n\n"))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func isSummary(msg *domain.Message) bool {
	return msg.Role == domain.RoleSystem && strings.HasPrefix(msg.Content, SummaryTitle)
}
