// Package tokens provides token counting using tiktoken-go.
// Used for usage accounting on provider calls.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/joss/aegis/internal/domain"
)

// Counter provides token counting for messages and text.
// Uses cl100k_base encoding.
type Counter struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

// Global counter instance
var defaultCounter = &Counter{}

// Count returns the number of tokens in the given text.
func Count(text string) int {
	return defaultCounter.Count(text)
}

// CountMessages returns total tokens for a slice of messages.
func CountMessages(msgs []*domain.Message) int {
	return defaultCounter.CountMessages(msgs)
}

// CountMessage returns tokens for a single message.
func CountMessage(msg *domain.Message) int {
	return defaultCounter.CountMessage(msg)
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	c.init()
	if c.err != nil || c.enc == nil {
		// Fallback: rough estimate (4 chars per token)
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// CountMessages returns total tokens for a slice of messages.
func (c *Counter) CountMessages(msgs []*domain.Message) int {
	total := 0
	for _, msg := range msgs {
		total += c.CountMessage(msg)
	}
	return total
}

// CountMessage returns tokens for a single message.
// Each message carries a small fixed overhead for role and framing.
func (c *Counter) CountMessage(msg *domain.Message) int {
	tokens := 4 + c.Count(msg.Content)
	if msg.ToolName != "" {
		tokens += c.Count(msg.ToolName)
	}
	return tokens
}

func (c *Counter) init() {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
}
