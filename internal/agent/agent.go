// Package agent drives the converse-parse-dispatch loop: call the model,
// scan the turn for a tool call, run it through the dispatcher, feed the
// result back, repeat until the model answers in plain text or the round
// budget runs out.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/logging"
	"github.com/joss/aegis/internal/session"
	"github.com/joss/aegis/internal/tokens"
	"github.com/joss/aegis/pkg/llm"
)

// ToolRunner is the dispatcher surface the loop drives.
type ToolRunner interface {
	Execute(ctx context.Context, name, input string) (string, error)
}

// followupPrompt replaces the system prompt on rounds after a tool ran, so
// the model answers instead of re-emitting call syntax at its own output.
const followupPrompt = "Given the tool result above, answer the original question. " +
	"Reply in plain text, or emit another TOOL_CALL block only if more information is needed."

// placeholderName labels the synthetic failure result for a turn whose
// tool call could not be parsed.
const placeholderName = "tool_call"

// Config tunes one Agent.
type Config struct {
	Model         string
	MaxIterations int
	MaxTokens     int
	Temperature   float64
	ContextWindow int
	KeepLast      int
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 8
	}
	if c.KeepLast <= 0 {
		c.KeepLast = session.DefaultKeepLast
	}
	return c
}

// Agent runs user turns against one session.
type Agent struct {
	provider llm.Provider
	tools    ToolRunner
	sess     *session.Session
	cfg      Config
	log      *logging.Logger
}

func New(provider llm.Provider, tools ToolRunner, sess *session.Session, cfg Config) *Agent {
	return &Agent{
		provider: provider,
		tools:    tools,
		sess:     sess,
		cfg:      cfg.withDefaults(),
		log:      logging.New("agent").WithSession(sess.ID),
	}
}

// Run executes one user turn: reset the per-prompt counters, fold old
// history if the context window is filling up, persist the utterance, then
// at most MaxIterations inference rounds with tool dispatch in between.
// A turn without a tool call is the final answer. A tool call naming the
// same tool as the previous round returns that round's result verbatim.
// An exhausted budget returns the last successful tool result.
func (a *Agent) Run(ctx context.Context, utterance string) (string, error) {
	a.sess.Policy().ResetPrompt()

	// One turn id for every event this utterance produces, down through
	// the dispatcher.
	ctx = logging.WithTurnID(ctx, "")

	if folded, err := a.sess.CompactIfNeeded(ctx, a.cfg.ContextWindow, a.cfg.KeepLast); err != nil {
		a.log.Warn("compact_failed", nil, err)
	} else if folded > 0 {
		a.log.Info("history_compacted", map[string]interface{}{"folded": folded})
	}

	if _, err := a.sess.AppendUser(ctx, utterance); err != nil {
		return "", fmt.Errorf("append user message: %w", err)
	}

	var (
		lastTool   string // tool dispatched on the previous round
		lastResult string // what that round fed back to the model
		bestAnswer string // most recent successful tool output
		haveAnswer bool
		afterTool  bool
	)

	for round := 0; round < a.cfg.MaxIterations; round++ {
		resp, err := a.chat(ctx, afterTool)
		if err != nil {
			return "", err
		}

		parsed := parseToolCall(resp.Content)
		switch parsed.kind {
		case parseNone:
			if _, err := a.sess.AppendAssistant(ctx, resp.Content); err != nil {
				return "", fmt.Errorf("append assistant message: %w", err)
			}
			return resp.Content, nil

		case parseMalformed, parseTooLong:
			a.log.Warn("tool_call_unparseable", map[string]interface{}{
				"round":  round,
				"reason": parsed.reason,
			}, nil)
			if _, err := a.sess.AppendAssistant(ctx, resp.Content); err != nil {
				return "", fmt.Errorf("append assistant message: %w", err)
			}
			if _, err := a.sess.AppendToolResult(ctx, placeholderName, false, parsed.reason); err != nil {
				return "", fmt.Errorf("append tool result: %w", err)
			}
			afterTool = true

		case parseFound:
			if parsed.call.name == lastTool {
				a.log.Info("identical_call_loop", map[string]interface{}{"tool": lastTool})
				return lastResult, nil
			}

			output, derr := a.tools.Execute(ctx, parsed.call.name, parsed.call.input)
			result, ok := output, derr == nil
			if derr != nil {
				result = derr.Error()
			}

			if _, err := a.sess.AppendAssistant(ctx, resp.Content); err != nil {
				return "", fmt.Errorf("append assistant message: %w", err)
			}
			if _, err := a.sess.AppendToolResult(ctx, parsed.call.name, ok, result); err != nil {
				return "", fmt.Errorf("append tool result: %w", err)
			}

			lastTool, lastResult = parsed.call.name, result
			if ok {
				bestAnswer, haveAnswer = output, true
			}
			afterTool = true
		}
	}

	if haveAnswer {
		return bestAnswer, nil
	}
	return "", fmt.Errorf("no final answer after %d rounds", a.cfg.MaxIterations)
}

// chat loads the persisted history and makes one provider call, recording
// usage either from the endpoint's accounting or a local estimate.
func (a *Agent) chat(ctx context.Context, afterTool bool) (*llm.ChatResponse, error) {
	history, err := a.sess.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	req := &llm.ChatRequest{
		Model:        a.cfg.Model,
		Messages:     requestMessages(history),
		SystemPrompt: a.sess.SystemPrompt(),
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
	}
	if afterTool {
		req.SystemPrompt = followupPrompt
	}

	start := time.Now()
	resp, err := a.provider.Chat(ctx, req)
	if err != nil {
		// Already retried; the endpoint's last word goes to the user as-is.
		return nil, err
	}
	a.log.TimedEvent("provider_call", start, map[string]interface{}{
		"messages": len(req.Messages),
	})

	in, out := 0, 0
	if resp.Usage != nil {
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
	} else {
		in = tokens.Count(req.SystemPrompt) + tokens.CountMessages(history)
		out = tokens.Count(resp.Content)
	}
	if err := a.sess.RecordUsage(ctx, in, out); err != nil {
		a.log.Warn("usage_record_failed", nil, err)
	}

	return resp, nil
}

// requestMessages converts stored history into provider messages. Tool
// results become user-role text so any chat endpoint can consume them;
// the stored rows keep their true roles.
func requestMessages(history []*domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(history))
	for _, m := range history {
		if m.Role == domain.RoleTool {
			out = append(out, domain.Message{
				Role:    domain.RoleUser,
				Content: fmt.Sprintf("Tool result (%s):\n%s", m.ToolName, m.Content),
			})
			continue
		}
		out = append(out, *m)
	}
	return out
}
