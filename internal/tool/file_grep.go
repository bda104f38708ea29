package tool

import (
	"context"
	"fmt"

	"github.com/joss/aegis/internal/domain"
	"github.com/joss/aegis/internal/exec"
)

type Grep struct {
	workDir string
	runner  exec.Runner
}

func NewGrep(workDir string, runner exec.Runner) *Grep {
	if runner == nil {
		runner = exec.Default
	}
	return &Grep{workDir: workDir, runner: runner}
}

func (g *Grep) Info() domain.Tool {
	return domain.Tool{
		Name:        "grep",
		Description: "Search file contents with ripgrep. Input: the regex pattern on the first line, an optional path on the second.",
		Write:       false,
	}
}

func (g *Grep) Execute(ctx context.Context, input string) (*Result, error) {
	pattern, rest := firstLine(input)
	if pattern == "" {
		return nil, fmt.Errorf("%w: missing search pattern", ErrInvalidInput)
	}

	searchPath := g.workDir
	if p, _ := firstLine(rest); p != "" {
		searchPath = p
	}

	// rg exits nonzero on no matches; that is not a failure here.
	out, _ := g.runner.Run(ctx, "rg", "--color=never", "-n", pattern, searchPath)

	output := string(out)
	if output == "" {
		output = "No matches found"
	}

	return &Result{
		Title:  fmt.Sprintf("Grep %s", pattern),
		Output: truncateOutput(output, 30000),
		Metadata: map[string]any{
			"pattern": pattern,
			"path":    searchPath,
		},
	}, nil
}

var _ Executor = (*Grep)(nil)
