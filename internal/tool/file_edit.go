package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/domain"
)

const (
	editMarkerOld = "<<<<<<< OLD"
	editMarkerSep = "======="
	editMarkerNew = ">>>>>>> NEW"
)

type EditFile struct {
	policy *autonomy.Policy
}

func NewEditFile(pol *autonomy.Policy) *EditFile {
	return &EditFile{policy: pol}
}

func (e *EditFile) Info() domain.Tool {
	return domain.Tool{
		Name: "edit_file",
		Description: "Replace one occurrence of a text block in a file. Input: the file path on the first line, " +
			"then the old text between '<<<<<<< OLD' and '=======' and the new text up to '>>>>>>> NEW'.",
		Write: true,
	}
}

func (e *EditFile) Execute(ctx context.Context, input string) (*Result, error) {
	path, oldStr, newStr, err := parseEditInput(input)
	if err != nil {
		return nil, err
	}

	if err := e.policy.RecordWrite(int64(len(newStr))); err != nil {
		return nil, err
	}

	size, err := editFileContents(path, oldStr, newStr)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Edit %s", path),
		Output: fmt.Sprintf("Replaced 1 occurrence in %s", path),
		Metadata: map[string]any{
			"path":  path,
			"bytes": size,
		},
	}, nil
}

// parseEditInput splits the wire layout into path, old text, and new text.
// Malformed input names the missing marker instead of guessing.
func parseEditInput(input string) (path, oldStr, newStr string, err error) {
	path, rest := firstLine(input)
	if path == "" {
		return "", "", "", fmt.Errorf("%w: missing file path", ErrInvalidInput)
	}

	lines := strings.Split(rest, "\n")
	oldStart, sep, newEnd := -1, -1, -1
	for i, line := range lines {
		switch strings.TrimRight(line, " \t") {
		case editMarkerOld:
			if oldStart < 0 {
				oldStart = i
			}
		case editMarkerSep:
			if oldStart >= 0 && sep < 0 {
				sep = i
			}
		case editMarkerNew:
			if sep >= 0 && newEnd < 0 {
				newEnd = i
			}
		}
	}

	if oldStart < 0 {
		return "", "", "", fmt.Errorf("%w: missing %q marker", ErrInvalidInput, editMarkerOld)
	}
	if sep < 0 {
		return "", "", "", fmt.Errorf("%w: missing %q separator", ErrInvalidInput, editMarkerSep)
	}
	if newEnd < 0 {
		return "", "", "", fmt.Errorf("%w: missing %q marker", ErrInvalidInput, editMarkerNew)
	}

	oldStr = strings.Join(lines[oldStart+1:sep], "\n")
	newStr = strings.Join(lines[sep+1:newEnd], "\n")
	if oldStr == "" {
		return "", "", "", fmt.Errorf("%w: old text is empty", ErrInvalidInput)
	}
	return path, oldStr, newStr, nil
}

var _ Executor = (*EditFile)(nil)
