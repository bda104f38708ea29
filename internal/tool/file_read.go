package tool

import (
	"context"
	"fmt"

	"github.com/joss/aegis/internal/domain"
)

type ReadFile struct{}

func NewReadFile() *ReadFile { return &ReadFile{} }

func (r *ReadFile) Info() domain.Tool {
	return domain.Tool{
		Name:        "read_file",
		Description: "Read a text file. Input: the file path on the first line.",
		Write:       false,
	}
}

func (r *ReadFile) Execute(ctx context.Context, input string) (*Result, error) {
	path, _ := firstLine(input)
	if path == "" {
		return nil, fmt.Errorf("%w: missing file path", ErrInvalidInput)
	}

	content, err := readFileWithLines(path, 0, 2000)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Read %s", path),
		Output: content,
		Metadata: map[string]any{
			"path": path,
		},
	}, nil
}

var _ Executor = (*ReadFile)(nil)
