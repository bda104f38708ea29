package tool

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

func readFileWithLines(path string, offset, limit int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if offset > 0 && lineNum < offset {
			continue
		}
		if len(lines) >= limit {
			break
		}

		line := scanner.Text()
		// Truncate long lines
		if len(line) > 2000 {
			line = line[:2000] + "..."
		}
		lines = append(lines, fmt.Sprintf("%6d\t%s", lineNum, line))
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	return strings.Join(lines, "\n"), nil
}

func writeFileContents(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	return os.WriteFile(path, []byte(content), 0644)
}

// editFileContents replaces one occurrence of oldStr and returns the new
// file size in bytes.
func editFileContents(path, oldStr, newStr string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	str := string(content)
	count := strings.Count(str, oldStr)

	if count == 0 {
		return 0, fmt.Errorf("old text not found in file")
	}
	if count > 1 {
		return 0, fmt.Errorf("old text found %d times - provide more surrounding context", count)
	}

	newContent := strings.Replace(str, oldStr, newStr, 1)
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		return 0, fmt.Errorf("write file: %w", err)
	}

	return len(newContent), nil
}

func globFiles(basePath, pattern string) ([]string, error) {
	var matches []string

	fsys := os.DirFS(basePath)
	err := doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
		if !d.IsDir() {
			matches = append(matches, filepath.Join(basePath, path))
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}

	return matches, nil
}

func listDirEntries(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var result []string
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}

		if e.IsDir() {
			result = append(result, fmt.Sprintf("%s/", e.Name()))
			continue
		}
		result = append(result, fmt.Sprintf("%s %s", e.Name(), formatSize(info.Size())))
	}

	return result, nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// firstLine splits tool input into its first line and the remainder.
func firstLine(input string) (string, string) {
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		return strings.TrimSpace(input[:i]), input[i+1:]
	}
	return strings.TrimSpace(input), ""
}

func truncateOutput(s string, max int) string {
	if len(s) > max {
		return s[:max] + "\n... (output truncated)"
	}
	return s
}

func truncateTitle(s string) string {
	s = strings.Split(s, "\n")[0]
	if len(s) > 50 {
		return s[:47] + "..."
	}
	return s
}
