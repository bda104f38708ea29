package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/aegis/internal/autonomy"
	"github.com/joss/aegis/internal/exec"
)

func fullPolicy() *autonomy.Policy {
	return autonomy.NewPolicy(autonomy.Full, autonomy.Config{})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\ngamma\n"), 0644))

	res, err := NewReadFile().Execute(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "1\talpha")
	assert.Contains(t, res.Output, "3\tgamma")
	assert.Equal(t, path, res.Metadata["path"])
}

func TestReadFileErrors(t *testing.T) {
	r := NewReadFile()

	_, err := r.Execute(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Execute(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open file")
}

func TestReadFileTruncatesLongLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 3000)), 0644))

	res, err := NewReadFile().Execute(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "...")
	assert.Less(t, len(res.Output), 2100)
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("12345"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	l := NewListDir(dir)

	res, err := l.Execute(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "a.txt 5 B")
	assert.Contains(t, res.Output, "sub/")
	assert.Equal(t, 2, res.Metadata["count"])

	empty := t.TempDir()
	res, err = l.Execute(context.Background(), empty)
	require.NoError(t, err)
	assert.Equal(t, "(empty directory)", res.Output)

	_, err = l.Execute(context.Background(), filepath.Join(dir, "nope"))
	require.Error(t, err)
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "util.go"), []byte("package pkg"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0644))

	g := NewGlob(dir)

	res, err := g.Execute(context.Background(), "**/*.go")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Metadata["count"])
	assert.Contains(t, res.Output, "main.go")
	assert.Contains(t, res.Output, filepath.Join("pkg", "util.go"))
	assert.NotContains(t, res.Output, "notes.txt")

	res, err = g.Execute(context.Background(), "*.rs")
	require.NoError(t, err)
	assert.Equal(t, "No files found", res.Output)

	_, err = g.Execute(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGlobExplicitBaseDir(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "x.md"), []byte("#"), 0644))

	g := NewGlob(t.TempDir())
	res, err := g.Execute(context.Background(), "*.md\n"+base)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "x.md")
}

func TestGrep(t *testing.T) {
	runner := exec.NewMockRunner()
	runner.AddResponse("rg", exec.MockResponse{Output: []byte("main.go:3:func main()\n")})
	g := NewGrep("/work", runner)

	res, err := g.Execute(context.Background(), "func main")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "main.go:3")

	call := runner.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, "rg", call.Name)
	assert.Equal(t, []string{"--color=never", "-n", "func main", "/work"}, call.Args)
}

func TestGrepNoMatches(t *testing.T) {
	runner := exec.NewMockRunner()
	g := NewGrep("/work", runner)

	res, err := g.Execute(context.Background(), "needle\n/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "No matches found", res.Output)
	assert.Equal(t, "/elsewhere", runner.LastCall().Args[3])

	_, err = g.Execute(context.Background(), "")
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	w := NewWriteFile(fullPolicy())

	res, err := w.Execute(context.Background(), path+"\nhello\nworld")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "Wrote 2 lines")
	assert.Equal(t, true, res.Metadata["created"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", string(data))

	// Overwriting is not a creation.
	res, err = w.Execute(context.Background(), path+"\nreplaced")
	require.NoError(t, err)
	assert.Equal(t, false, res.Metadata["created"])

	_, err = w.Execute(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWriteFileCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "f.txt")
	w := NewWriteFile(fullPolicy())

	_, err := w.Execute(context.Background(), path+"\ncontent")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestWriteFileByteBudget(t *testing.T) {
	dir := t.TempDir()
	pol := autonomy.NewPolicy(autonomy.Full, autonomy.Config{MaxWriteBytes: 10})
	w := NewWriteFile(pol)
	ctx := context.Background()

	_, err := w.Execute(ctx, filepath.Join(dir, "a")+"\n12345678")
	require.NoError(t, err)

	_, err = w.Execute(ctx, filepath.Join(dir, "b")+"\n12345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write budget exhausted")

	// The denied attempt was still charged; even one byte is over now.
	_, err = w.Execute(ctx, filepath.Join(dir, "c")+"\nx")
	require.Error(t, err)
}

func TestWriteFileCreationBudget(t *testing.T) {
	dir := t.TempDir()
	pol := autonomy.NewPolicy(autonomy.Full, autonomy.Config{MaxFilesCreated: 1})
	w := NewWriteFile(pol)
	ctx := context.Background()

	existing := filepath.Join(dir, "a")
	_, err := w.Execute(ctx, existing+"\nfirst")
	require.NoError(t, err)

	_, err = w.Execute(ctx, filepath.Join(dir, "b")+"\nsecond")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file creation budget exhausted")

	// Rewriting an existing file does not charge the creation budget.
	_, err = w.Execute(ctx, existing+"\nthird")
	require.NoError(t, err)
}

func TestEditFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "code.go")
	require.NoError(t, os.WriteFile(path, []byte("func old() {}\nfunc keep() {}\n"), 0644))

	input := strings.Join([]string{
		path,
		"<<<<<<< OLD",
		"func old() {}",
		"=======",
		"func renamed() {}",
		">>>>>>> NEW",
	}, "\n")

	e := NewEditFile(fullPolicy())
	res, err := e.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, res.Output, "Replaced 1 occurrence")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "func renamed() {}\nfunc keep() {}\n", string(data))
}

func TestEditFileOldTextErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.txt")
	require.NoError(t, os.WriteFile(path, []byte("same\nsame\n"), 0644))
	e := NewEditFile(fullPolicy())

	missing := strings.Join([]string{path, "<<<<<<< OLD", "absent", "=======", "x", ">>>>>>> NEW"}, "\n")
	_, err := e.Execute(context.Background(), missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "old text not found")

	ambiguous := strings.Join([]string{path, "<<<<<<< OLD", "same", "=======", "x", ">>>>>>> NEW"}, "\n")
	_, err = e.Execute(context.Background(), ambiguous)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 times")
}

func TestParseEditInput(t *testing.T) {
	valid := strings.Join([]string{
		"/tmp/f",
		"<<<<<<< OLD",
		"line one",
		"line two",
		"=======",
		"replacement",
		">>>>>>> NEW",
	}, "\n")

	path, oldStr, newStr, err := parseEditInput(valid)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/f", path)
	assert.Equal(t, "line one\nline two", oldStr)
	assert.Equal(t, "replacement", newStr)

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"no path", "", "missing file path"},
		{"no old marker", "/tmp/f\njust text", `missing "<<<<<<< OLD"`},
		{"no separator", "/tmp/f\n<<<<<<< OLD\nold", `missing "======="`},
		{"no new marker", "/tmp/f\n<<<<<<< OLD\nold\n=======\nnew", `missing ">>>>>>> NEW"`},
		{"empty old text", "/tmp/f\n<<<<<<< OLD\n=======\nnew\n>>>>>>> NEW", "old text is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseEditInput(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseEditInputTrailingWhitespaceOnMarkers(t *testing.T) {
	input := "/tmp/f\n<<<<<<< OLD \t\nold\n=======\t\nnew\n>>>>>>> NEW "
	_, oldStr, newStr, err := parseEditInput(input)
	require.NoError(t, err)
	assert.Equal(t, "old", oldStr)
	assert.Equal(t, "new", newStr)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes))
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input     string
		wantFirst string
		wantRest  string
	}{
		{"one", "one", ""},
		{"  padded  ", "padded", ""},
		{"a\nb\nc", "a", "b\nc"},
		{"\nbody", "", "body"},
	}
	for _, tt := range tests {
		first, rest := firstLine(tt.input)
		assert.Equal(t, tt.wantFirst, first, "input %q", tt.input)
		assert.Equal(t, tt.wantRest, rest, "input %q", tt.input)
	}
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short"))
	assert.Equal(t, "first", truncateTitle("first\nsecond"))

	long := strings.Repeat("a", 80)
	got := truncateTitle(long)
	assert.Len(t, got, 50)
	assert.True(t, strings.HasSuffix(got, "..."))
}
