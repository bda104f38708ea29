package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
)

// MemoryAppend adds a dated bullet to the agent memory file. Appending is
// the gentler mutation and unlocks a level below overwriting.
type MemoryAppend struct {
	path   string
	policy *autonomy.Policy
}

func NewMemoryAppend(path string, pol *autonomy.Policy) *MemoryAppend {
	return &MemoryAppend{path: path, policy: pol}
}

func (m *MemoryAppend) Info() domain.Tool {
	return domain.Tool{
		Name:        "memory_append",
		Description: "Append a note to the agent memory file. Input: the note text.",
		Write:       true,
	}
}

func (m *MemoryAppend) Execute(ctx context.Context, input string) (*Result, error) {
	if err := m.policy.CheckMemoryWrite(true); err != nil {
		return nil, err
	}

	note := strings.TrimSpace(input)
	if note == "" {
		return nil, fmt.Errorf("%w: empty note", ErrInvalidInput)
	}

	entry := fmt.Sprintf("- [%s] %s\n", time.Now().UTC().Format("2006-01-02"), note)
	if err := m.policy.RecordWrite(int64(len(entry))); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		return nil, fmt.Errorf("append memory: %w", err)
	}

	return &Result{
		Title:  "Memory append",
		Output: fmt.Sprintf("Noted: %s", note),
		Metadata: map[string]any{
			"path": m.path,
		},
	}, nil
}

var _ Executor = (*MemoryAppend)(nil)

// MemoryWrite replaces the whole memory file.
type MemoryWrite struct {
	path   string
	policy *autonomy.Policy
}

func NewMemoryWrite(path string, pol *autonomy.Policy) *MemoryWrite {
	return &MemoryWrite{path: path, policy: pol}
}

func (m *MemoryWrite) Info() domain.Tool {
	return domain.Tool{
		Name:        "memory_write",
		Description: "Replace the agent memory file. Input: the full new content.",
		Write:       true,
	}
}

func (m *MemoryWrite) Execute(ctx context.Context, input string) (*Result, error) {
	if err := m.policy.CheckMemoryWrite(false); err != nil {
		return nil, err
	}

	if err := m.policy.RecordWrite(int64(len(input))); err != nil {
		return nil, err
	}

	if err := writeFileContents(m.path, input); err != nil {
		return nil, err
	}

	return &Result{
		Title:  "Memory write",
		Output: fmt.Sprintf("Memory replaced (%d bytes)", len(input)),
		Metadata: map[string]any{
			"path":  m.path,
			"bytes": len(input),
		},
	}, nil
}

var _ Executor = (*MemoryWrite)(nil)
