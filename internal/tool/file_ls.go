package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/joss/aegis/internal/domain"
)

type ListDir struct {
	workDir string
}

func NewListDir(workDir string) *ListDir {
	return &ListDir{workDir: workDir}
}

func (l *ListDir) Info() domain.Tool {
	return domain.Tool{
		Name:        "list_dir",
		Description: "List a directory. Input: the directory path, or empty for the working directory.",
		Write:       false,
	}
}

func (l *ListDir) Execute(ctx context.Context, input string) (*Result, error) {
	path, _ := firstLine(input)
	if path == "" {
		path = l.workDir
	}

	entries, err := listDirEntries(path)
	if err != nil {
		return nil, err
	}

	output := strings.Join(entries, "\n")
	if len(entries) == 0 {
		output = "(empty directory)"
	}

	return &Result{
		Title:  fmt.Sprintf("List %s", path),
		Output: output,
		Metadata: map[string]any{
			"path":  path,
			"count": len(entries),
		},
	}, nil
}

var _ Executor = (*ListDir)(nil)
