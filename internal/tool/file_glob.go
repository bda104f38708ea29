package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/joss/aegis/internal/domain"
)

type Glob struct {
	workDir string
}

func NewGlob(workDir string) *Glob {
	return &Glob{workDir: workDir}
}

func (g *Glob) Info() domain.Tool {
	return domain.Tool{
		Name:        "glob",
		Description: "Find files matching a glob pattern. Input: the pattern on the first line (**/*.go for recursive), an optional base directory on the second.",
		Write:       false,
	}
}

func (g *Glob) Execute(ctx context.Context, input string) (*Result, error) {
	pattern, rest := firstLine(input)
	if pattern == "" {
		return nil, fmt.Errorf("%w: missing glob pattern", ErrInvalidInput)
	}

	basePath := g.workDir
	if dir, _ := firstLine(rest); dir != "" {
		basePath = dir
	}

	matches, err := globFiles(basePath, pattern)
	if err != nil {
		return nil, err
	}

	output := strings.Join(matches, "\n")
	if len(matches) == 0 {
		output = "No files found"
	}

	return &Result{
		Title:  fmt.Sprintf("Glob %s", pattern),
		Output: truncateOutput(output, 30000),
		Metadata: map[string]any{
			"pattern": pattern,
			"count":   len(matches),
		},
	}, nil
}

var _ Executor = (*Glob)(nil)
