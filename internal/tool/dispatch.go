package tool

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/logging"
	"github.com/joss/aegis/internal/policy"
	"github.com/joss/aegis/internal/sanitize"
)

const (
	maxToolNameBytes = 64
	maxInputBytes    = 256 << 10
)

// Auditor is the slice of the journal the dispatcher and shell tool write.
type Auditor interface {
	ToolAllowed(level, tool, detail string) error
	ToolBlocked(level, tool, reason, detail string) error
	ShellAllowed(level, command string) error
	ShellBlocked(level, reason, command string) error
}

// Classifier is the execution-policy surface the shell tool consults.
type Classifier interface {
	Evaluate(command string) policy.Verdict
}

// Dispatcher is the single choke point for tool execution. Every call
// passes the same gate sequence; no gate is skippable per tool.
type Dispatcher struct {
	reg     *Registry
	policy  *autonomy.Policy
	journal Auditor
	log     *logging.Logger
	recov   *logging.RecoveryHandler
}

func NewDispatcher(reg *Registry, pol *autonomy.Policy, journal Auditor) *Dispatcher {
	return &Dispatcher{
		reg:     reg,
		policy:  pol,
		journal: journal,
		log:     logging.New("dispatch"),
		recov:   logging.NewRecoveryHandler("dispatch"),
	}
}

// Execute runs one tool call through the gate sequence: validation,
// existence, autonomy, rate, sensitive path, cooldown, audit, handler,
// sanitizer. The audit record is written before the handler runs. A gate
// failure never reaches the handler and is still journaled.
func (d *Dispatcher) Execute(ctx context.Context, name, input string) (string, error) {
	level := d.policy.Level().String()
	detail := inputDetail(input)
	d.log.Debug("execute", map[string]interface{}{
		"tool": name,
		"turn": logging.TurnIDFromContext(ctx),
	})

	if len(name) > maxToolNameBytes {
		return "", d.blocked(level, "tool", "tool name exceeds 64 bytes", detail)
	}
	if len(input) > maxInputBytes {
		return "", d.blocked(level, name, "input exceeds 256 KiB", detail)
	}
	if !utf8.ValidString(input) {
		return "", d.blocked(level, name, "input is not valid UTF-8", detail)
	}

	t, ok := d.reg.Get(name)
	if !ok {
		return "", d.blocked(level, name, "tool not registered for this session", detail)
	}
	info := t.Info()

	if err := d.policy.CheckTool(name, info.Write); err != nil {
		return "", d.blocked(level, name, err.Error(), detail)
	}

	if err := d.policy.RecordCall(); err != nil {
		return "", d.blocked(level, name, err.Error(), detail)
	}

	if tok, hit := sensitiveInFirstLine(input); hit {
		return "", d.blocked(level, name, fmt.Sprintf("sensitive path %q is never accessible", tok), detail)
	}

	if info.Write {
		if err := d.policy.TouchWrite(); err != nil {
			return "", d.blocked(level, name, err.Error(), detail)
		}
	}

	if err := d.journal.ToolAllowed(level, name, detail); err != nil {
		d.log.Warn("journal_append_failed", map[string]interface{}{"tool": name}, err)
	}

	// A panicking handler becomes a failed call, not a dead loop.
	var res *Result
	err := d.recov.WrapError(func() error {
		var herr error
		res, herr = t.Execute(ctx, input)
		return herr
	})
	if err != nil {
		clean, _ := sanitize.Redact(err.Error())
		return "", fmt.Errorf("%s: %s", name, clean)
	}

	clean, count := sanitize.Redact(res.Output)
	if count > 0 {
		d.log.Info("output_redacted", map[string]interface{}{
			"tool":  name,
			"count": count,
		})
	}
	return clean, nil
}

// blocked journals the denial and returns it as the caller-visible error.
func (d *Dispatcher) blocked(level, name, reason, detail string) error {
	if err := d.journal.ToolBlocked(level, name, reason, detail); err != nil {
		d.log.Warn("journal_append_failed", map[string]interface{}{"tool": name}, err)
	}
	return fmt.Errorf("tool %s blocked: %s", name, reason)
}

// sensitiveInFirstLine checks the first input line against the denylist,
// both as a whole path and token by token.
func sensitiveInFirstLine(input string) (string, bool) {
	first := input
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		first = input[:i]
	}
	if trimmed := strings.TrimSpace(first); autonomy.IsSensitivePath(trimmed) {
		return trimmed, true
	}
	return autonomy.SensitiveToken(first)
}

// inputDetail is the journal detail field: the first line, bounded.
func inputDetail(input string) string {
	first := input
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		first = input[:i]
	}
	first = strings.TrimSpace(first)
	if len(first) > 120 {
		first = first[:120] + "..."
	}
	return fmt.Sprintf("input=%q", first)
}
