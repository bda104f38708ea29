package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlainAnswer(t *testing.T) {
	got := parseToolCall("The build failed because of a missing import.")
	assert.Equal(t, parseNone, got.kind)
}

func TestParseWellFormedCall(t *testing.T) {
	resp := "Let me check the file first.\n" +
		"TOOL_CALL: read_file\n" +
		"cmd/main.go\n" +
		"END_TOOL_CALL\n" +
		"ignored trailer"

	got := parseToolCall(resp)
	assert.Equal(t, parseFound, got.kind)
	assert.Equal(t, "read_file", got.call.name)
	assert.Equal(t, "cmd/main.go", got.call.input)
}

func TestParseTrimsName(t *testing.T) {
	tests := []struct {
		marker string
		want   string
	}{
		{"TOOL_CALL: grep  ", "grep"},
		{"TOOL_CALL:grep", "grep"},
		{"  TOOL_CALL:   list_dir\t", "list_dir"},
	}
	for _, tt := range tests {
		got := parseToolCall(tt.marker + "\nx\nEND_TOOL_CALL")
		assert.Equal(t, parseFound, got.kind)
		assert.Equal(t, tt.want, got.call.name)
	}
}

func TestParseMarkerMidSentenceIgnored(t *testing.T) {
	got := parseToolCall("I would use TOOL_CALL: read_file for that.")
	assert.Equal(t, parseNone, got.kind)
}

func TestParseMissingTerminator(t *testing.T) {
	got := parseToolCall("TOOL_CALL: write_file\nnotes.txt\nline one\nline two")
	assert.Equal(t, parseFound, got.kind)
	assert.Equal(t, "write_file", got.call.name)
	assert.Equal(t, "notes.txt\nline one\nline two", got.call.input)
}

func TestParseEmptyInput(t *testing.T) {
	got := parseToolCall("TOOL_CALL: task_status\nEND_TOOL_CALL")
	assert.Equal(t, parseFound, got.kind)
	assert.Equal(t, "", got.call.input)
}

func TestParsePreservesInputVerbatim(t *testing.T) {
	resp := "TOOL_CALL: write_file\n" +
		"main.go\n" +
		"\n" +
		"\tif x {\n" +
		"END_TOOL_CALL"

	got := parseToolCall(resp)
	assert.Equal(t, parseFound, got.kind)
	assert.Equal(t, "main.go\n\n\tif x {", got.call.input)
}

func TestParseLeadingBlankInputLineKept(t *testing.T) {
	got := parseToolCall("TOOL_CALL: shell\n\nls -la\nEND_TOOL_CALL")
	assert.Equal(t, parseFound, got.kind)
	assert.Equal(t, "\nls -la", got.call.input)
}

func TestParseMissingName(t *testing.T) {
	got := parseToolCall("TOOL_CALL:\nsomething\nEND_TOOL_CALL")
	assert.Equal(t, parseMalformed, got.kind)
	assert.Equal(t, "tool call is missing a name", got.reason)
}

func TestParseNameTooLong(t *testing.T) {
	name := strings.Repeat("n", 65)
	got := parseToolCall("TOOL_CALL: " + name + "\nx\nEND_TOOL_CALL")
	assert.Equal(t, parseTooLong, got.kind)
	assert.Equal(t, "tool name exceeds 64 bytes", got.reason)

	okName := strings.Repeat("n", 64)
	got = parseToolCall("TOOL_CALL: " + okName + "\nEND_TOOL_CALL")
	assert.Equal(t, parseFound, got.kind)
}

func TestParseInputTooLong(t *testing.T) {
	chunk := strings.Repeat("x", 64<<10)
	var b strings.Builder
	b.WriteString("TOOL_CALL: write_file\n")
	for i := 0; i < 5; i++ {
		b.WriteString(chunk)
		b.WriteByte('\n')
	}
	b.WriteString("END_TOOL_CALL")

	got := parseToolCall(b.String())
	assert.Equal(t, parseTooLong, got.kind)
	assert.Equal(t, "input exceeds 256 KiB", got.reason)
}

func TestParseLargeInputWithinBoundOK(t *testing.T) {
	content := strings.Repeat("y", 10<<10)
	got := parseToolCall("TOOL_CALL: write_file\nbig.txt\n" + content + "\nEND_TOOL_CALL")
	assert.Equal(t, parseFound, got.kind)
	assert.Len(t, got.call.input, len("big.txt")+1+len(content))
}

func TestParseTerminatorToleratesWhitespace(t *testing.T) {
	got := parseToolCall("TOOL_CALL: grep\npattern\n  END_TOOL_CALL  \ntrailing prose")
	assert.Equal(t, parseFound, got.kind)
	assert.Equal(t, "pattern", got.call.input)
}
