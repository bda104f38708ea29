package tool

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
)

type WriteFile struct {
	policy *autonomy.Policy
}

func NewWriteFile(pol *autonomy.Policy) *WriteFile {
	return &WriteFile{policy: pol}
}

func (w *WriteFile) Info() domain.Tool {
	return domain.Tool{
		Name:        "write_file",
		Description: "Write a file, replacing any existing content. Input: the file path on the first line, the content on the following lines.",
		Write:       true,
	}
}

func (w *WriteFile) Execute(ctx context.Context, input string) (*Result, error) {
	path, content := firstLine(input)
	if path == "" {
		return nil, fmt.Errorf("%w: missing file path", ErrInvalidInput)
	}

	// Ceilings are charged before the write; a denied attempt still costs.
	if err := w.policy.RecordWrite(int64(len(content))); err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)
	if created {
		if err := w.policy.RecordFileCreated(); err != nil {
			return nil, err
		}
	}

	if err := writeFileContents(path, content); err != nil {
		return nil, err
	}

	lines := strings.Count(content, "\n") + 1
	return &Result{
		Title:  fmt.Sprintf("Write %s", path),
		Output: fmt.Sprintf("Wrote %d lines to %s", lines, path),
		Metadata: map[string]any{
			"path":    path,
			"bytes":   len(content),
			"created": created,
		},
	}, nil
}

var _ Executor = (*WriteFile)(nil)
