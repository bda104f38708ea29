// Package audit maintains the append-only journal of tool and shell
// decisions. Every dispatcher gate outcome lands here before the handler
// runs, so the journal is the authoritative record of what the agent was
// allowed to do.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joss/aegis/internal/config"
	"github.com/joss/aegis/internal/sanitize"
)

// Action identifies what kind of operation a record describes.
type Action string

const (
	ActionTool  Action = "TOOL"
	ActionShell Action = "SHELL"
)

// Outcome is the gate's verdict for the action.
type Outcome string

const (
	OutcomeAllowed Outcome = "ALLOWED"
	OutcomeBlocked Outcome = "BLOCKED"
)

// Rotation defaults. A write that would push the active file past the
// ceiling rotates first; the oldest generation is dropped.
const (
	DefaultMaxBytes    = 1 << 20
	DefaultGenerations = 3
)

// Record is one journal entry before formatting. Level carries the active
// autonomy level tag; Reason is required for blocked records; Detail is a
// free-form key=value tail such as path=... or command="...".
type Record struct {
	Level   string
	Action  Action
	Tool    string
	Outcome Outcome
	Reason  string
	Detail  string
}

func (r Record) text() string {
	var b strings.Builder
	b.WriteString(string(r.Action))
	if r.Tool != "" {
		b.WriteByte(' ')
		b.WriteString(r.Tool)
	}
	b.WriteByte(' ')
	b.WriteString(string(r.Outcome))
	if r.Outcome == OutcomeBlocked && r.Reason != "" {
		b.WriteByte(':')
		b.WriteString(r.Reason)
	}
	if r.Detail != "" {
		b.WriteByte(' ')
		b.WriteString(r.Detail)
	}
	return b.String()
}

// Journal is the rotating append-only decision log.
type Journal struct {
	mu          sync.Mutex
	path        string
	maxBytes    int64
	generations int
	file        *os.File
	size        int64
}

// Option configures the journal.
type Option func(*Journal)

// WithPath sets the active journal file path.
func WithPath(path string) Option {
	return func(j *Journal) {
		if path != "" {
			j.path = path
		}
	}
}

// WithMaxBytes sets the rotation ceiling.
func WithMaxBytes(n int64) Option {
	return func(j *Journal) {
		if n > 0 {
			j.maxBytes = n
		}
	}
}

// WithGenerations sets how many rotated generations are kept.
func WithGenerations(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.generations = n
		}
	}
}

// Open creates or resumes the journal at its configured path.
func Open(opts ...Option) (*Journal, error) {
	j := &Journal{
		maxBytes:    DefaultMaxBytes,
		generations: DefaultGenerations,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.path == "" {
		j.path = filepath.Join(config.GetPaths().Journal, "audit.log")
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	if err := j.open(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) open() error {
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat journal: %w", err)
	}
	j.file = f
	j.size = info.Size()
	return nil
}

// Append writes one record. The record body is passed through the secret
// sanitizer so that command lines cannot leak credentials into the journal.
func (j *Journal) Append(rec Record) error {
	clean, _ := sanitize.Redact(rec.text())
	line := fmt.Sprintf("%s [%s] %s event=%s\n",
		time.Now().UTC().Format(time.RFC3339), rec.Level, clean, uuid.New().String())

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal is closed")
	}
	if j.size+int64(len(line)) > j.maxBytes {
		if err := j.rotate(); err != nil {
			return err
		}
	}
	n, err := j.file.WriteString(line)
	j.size += int64(n)
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// rotate shifts audit.log.N-1 -> audit.log.N up to the generation count,
// drops the oldest, and reopens a fresh active file. Callers hold j.mu.
func (j *Journal) rotate() error {
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	j.file = nil

	oldest := fmt.Sprintf("%s.%d", j.path, j.generations)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("drop oldest generation: %w", err)
	}
	for i := j.generations - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", j.path, i)
		to := fmt.Sprintf("%s.%d", j.path, i+1)
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shift generation %d: %w", i, err)
		}
	}
	if err := os.Rename(j.path, j.path+".1"); err != nil {
		return fmt.Errorf("rotate journal: %w", err)
	}
	return j.open()
}

// ToolAllowed records an allowed tool dispatch.
func (j *Journal) ToolAllowed(level, tool, detail string) error {
	return j.Append(Record{
		Level: level, Action: ActionTool, Tool: tool,
		Outcome: OutcomeAllowed, Detail: detail,
	})
}

// ToolBlocked records a denied tool dispatch with the gate's reason.
func (j *Journal) ToolBlocked(level, tool, reason, detail string) error {
	return j.Append(Record{
		Level: level, Action: ActionTool, Tool: tool,
		Outcome: OutcomeBlocked, Reason: reason, Detail: detail,
	})
}

// ShellAllowed records a shell command that passed both shell gates.
func (j *Journal) ShellAllowed(level, command string) error {
	return j.Append(Record{
		Level: level, Action: ActionShell,
		Outcome: OutcomeAllowed, Detail: fmt.Sprintf("command=%q", command),
	})
}

// ShellBlocked records a shell command refused by the classifier or the
// autonomy gate.
func (j *Journal) ShellBlocked(level, reason, command string) error {
	return j.Append(Record{
		Level: level, Action: ActionShell,
		Outcome: OutcomeBlocked, Reason: reason, Detail: fmt.Sprintf("command=%q", command),
	})
}

// Path returns the active journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Tail returns the last n lines of the active journal file.
func (j *Journal) Tail(n int) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Close flushes and closes the active file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
