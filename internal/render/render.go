// Package render formats CLI output. Presentation only; the commands do
// the lookups and pass plain domain values in.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/policy"
)

// Renderer formats values for the terminal. pretty adds headers and
// rulers; color handling follows fatih/color's TTY detection.
type Renderer struct {
	pretty bool
}

// New creates a renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

func decisionString(d policy.Decision) string {
	switch d {
	case policy.Allow:
		return color.GreenString("allow")
	case policy.Prompt:
		return color.YellowString("prompt")
	case policy.Forbidden:
		return color.RedString("forbidden")
	default:
		return d.String()
	}
}

// Verdict formats one classifier evaluation.
func (r *Renderer) Verdict(command string, v policy.Verdict) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "command:  %s\n", command)
	fmt.Fprintf(&sb, "decision: %s\n", decisionString(v.Decision))
	fmt.Fprintf(&sb, "reason:   %s\n", v.Reason)
	if v.Prefix != "" {
		fmt.Fprintf(&sb, "rule:     %q\n", v.Prefix)
	}
	return sb.String()
}

// Rules formats the loaded policy table in load order.
func (r *Renderer) Rules(rules []policy.Rule) string {
	if len(rules) == 0 {
		return "No rules loaded\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Execution Policy\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	for _, rule := range rules {
		fmt.Fprintf(&sb, "%-9s  %-40s  %s\n",
			decisionString(rule.Decision),
			strings.Join(rule.Prefixes, " "),
			rule.Reason)
	}
	return sb.String()
}

// AuditLines formats journal lines, marking outcomes.
func (r *Renderer) AuditLines(lines []string) string {
	if len(lines) == 0 {
		return "Journal is empty\n"
	}

	var sb strings.Builder
	for _, line := range lines {
		switch {
		case strings.Contains(line, " BLOCKED:"):
			sb.WriteString(color.RedString(line))
		case strings.Contains(line, " ALLOWED"):
			sb.WriteString(color.GreenString(line))
		default:
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Sessions formats the session list newest first.
func (r *Renderer) Sessions(sessions []*domain.Session) string {
	if len(sessions) == 0 {
		return "No sessions\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Sessions\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	for _, s := range sessions {
		fmt.Fprintf(&sb, "%s  %s  %-30s %s\n",
			s.ID,
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			truncate(s.Title, 30),
			color.HiBlackString(s.Directory))
	}
	return sb.String()
}

// SessionDetail formats one session with its history and usage.
func (r *Renderer) SessionDetail(sess *domain.Session, msgs []*domain.Message, usage *domain.Usage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "session:   %s\n", sess.ID)
	fmt.Fprintf(&sb, "title:     %s\n", sess.Title)
	fmt.Fprintf(&sb, "directory: %s\n", sess.Directory)
	fmt.Fprintf(&sb, "created:   %s\n", sess.CreatedAt.Local().Format(time.RFC3339))
	if usage != nil {
		fmt.Fprintf(&sb, "usage:     %d in / %d out tokens\n", usage.InputTokens, usage.OutputTokens)
	}
	sb.WriteByte('\n')

	for _, m := range msgs {
		tag := string(m.Role)
		if m.Role == domain.RoleTool {
			outcome := "ok"
			if !m.ToolOK {
				outcome = "failed"
			}
			tag = fmt.Sprintf("tool %s [%s]", m.ToolName, outcome)
		}
		fmt.Fprintf(&sb, "%s  %-24s %s\n",
			color.HiBlackString(m.CreatedAt.Local().Format("15:04:05")),
			tag,
			truncate(oneLine(m.Content), 80))
	}
	return sb.String()
}

// Status formats the live trust state for the /status command.
func (r *Renderer) Status(level autonomy.Level, cfg autonomy.Config, snap autonomy.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "level:          %s\n", color.GreenString(level.String()))
	fmt.Fprintf(&sb, "prompt calls:   %s\n", ratio(snap.PromptCalls, cfg.MaxCallsPerPrompt))
	fmt.Fprintf(&sb, "session calls:  %s\n", ratio(snap.SessionCalls, cfg.MaxCallsPerSession))
	fmt.Fprintf(&sb, "bytes written:  %s\n", ratio(snap.BytesWritten, cfg.MaxWriteBytes))
	fmt.Fprintf(&sb, "files created:  %s\n", ratio(snap.FilesCreated, cfg.MaxFilesCreated))
	if !snap.LastWrite.IsZero() {
		fmt.Fprintf(&sb, "last write:     %s\n", snap.LastWrite.Local().Format(time.RFC3339))
	}
	return sb.String()
}

func ratio(used, max int64) string {
	if max <= 0 {
		return fmt.Sprintf("%d (no ceiling)", used)
	}
	return fmt.Sprintf("%d of %d", used, max)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	return s[:n-3] + "..."
}

func oneLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
