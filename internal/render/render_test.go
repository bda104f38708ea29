package render

import (
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/policy"
)

func init() {
	color.NoColor = true
}

func TestVerdict(t *testing.T) {
	r := New(false)
	got := r.Verdict("rm -rf /", policy.Verdict{
		Decision: policy.Forbidden,
		Reason:   "recursive deletion of the filesystem root",
		Prefix:   "rm -rf /",
	})
	assert.Contains(t, got, "command:  rm -rf /")
	assert.Contains(t, got, "decision: forbidden")
	assert.Contains(t, got, "reason:   recursive deletion of the filesystem root")
	assert.Contains(t, got, `rule:     "rm -rf /"`)
}

func TestVerdictWithoutRule(t *testing.T) {
	got := New(false).Verdict("catalog", policy.Verdict{
		Decision: policy.Prompt,
		Reason:   policy.DefaultReason,
	})
	assert.Contains(t, got, "decision: prompt")
	assert.NotContains(t, got, "rule:")
}

func TestRules(t *testing.T) {
	r := New(true)
	got := r.Rules([]policy.Rule{
		{Prefixes: []string{"ls", "cat"}, Decision: policy.Allow, Reason: "read-only"},
		{Prefixes: []string{"systemctl"}, Decision: policy.Prompt, Reason: "service control"},
	})
	assert.Contains(t, got, "Execution Policy")
	assert.Contains(t, got, "ls cat")
	assert.Contains(t, got, "service control")

	assert.Equal(t, "No rules loaded\n", r.Rules(nil))
}

func TestAuditLines(t *testing.T) {
	r := New(false)
	got := r.AuditLines([]string{
		"2026-08-21T07:31:04Z [workspace] TOOL read_file ALLOWED input=\"x\" event=abc",
		"2026-08-21T07:31:09Z [workspace] SHELL BLOCKED:nope command=\"rm\" event=def",
	})
	assert.Contains(t, got, "TOOL read_file ALLOWED")
	assert.Contains(t, got, "SHELL BLOCKED:nope")

	assert.Equal(t, "Journal is empty\n", r.AuditLines(nil))
}

func TestSessions(t *testing.T) {
	now := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	r := New(false)
	got := r.Sessions([]*domain.Session{
		{ID: "01J00000000000000000000001", Title: "fix the scheduler", Directory: "/work", UpdatedAt: now},
	})
	assert.Contains(t, got, "01J00000000000000000000001")
	assert.Contains(t, got, "fix the scheduler")
	assert.Contains(t, got, "/work")

	assert.Equal(t, "No sessions\n", r.Sessions(nil))
}

func TestSessionDetail(t *testing.T) {
	now := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	sess := &domain.Session{ID: "abc", Title: "t", Directory: "/w", CreatedAt: now}
	msgs := []*domain.Message{
		{Role: domain.RoleUser, Content: "read main.go", CreatedAt: now},
		{Role: domain.RoleTool, ToolName: "read_file", ToolOK: false, Content: "tool read_file blocked: x", CreatedAt: now},
	}
	usage := &domain.Usage{InputTokens: 120, OutputTokens: 40}

	got := New(false).SessionDetail(sess, msgs, usage)
	assert.Contains(t, got, "session:   abc")
	assert.Contains(t, got, "usage:     120 in / 40 out tokens")
	assert.Contains(t, got, "user")
	assert.Contains(t, got, "tool read_file [failed]")
}

func TestStatus(t *testing.T) {
	cfg := autonomy.Config{MaxCallsPerPrompt: 25, MaxCallsPerSession: 200}
	snap := autonomy.Snapshot{PromptCalls: 3, SessionCalls: 17}

	got := New(false).Status(autonomy.Workspace, cfg, snap)
	assert.Contains(t, got, "level:          workspace")
	assert.Contains(t, got, "prompt calls:   3 of 25")
	assert.Contains(t, got, "session calls:  17 of 200")
	assert.Contains(t, got, "bytes written:  0 (no ceiling)")
	assert.NotContains(t, got, "last write:")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "veryl...", truncate("verylongtitle", 8))
}
