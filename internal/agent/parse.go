package agent

import (
	"bufio"
	"strings"
)

const (
	toolCallMarker = "TOOL_CALL:"
	toolCallEnd    = "END_TOOL_CALL"

	maxNameBytes  = 64
	maxInputBytes = 256 << 10
	maxLineBytes  = 1 << 20
)

// parseKind classifies what a scan found in one assistant turn.
type parseKind int

const (
	parseNone parseKind = iota // no marker, the turn is a final answer
	parseFound
	parseMalformed
	parseTooLong
)

type toolCall struct {
	name  string
	input string
}

type parseResult struct {
	kind   parseKind
	call   toolCall
	reason string
}

// parseToolCall scans an assistant turn for the tool-call wire format:
//
//	TOOL_CALL: <name>
//	...input lines...
//	END_TOOL_CALL
//
// Prose before the marker is ignored. The name is trimmed of surrounding
// whitespace. A missing terminator means the rest of the turn is the
// input. Oversized names and inputs come back as parseTooLong, never
// silently truncated.
func parseToolCall(response string) parseResult {
	sc := bufio.NewScanner(strings.NewReader(response))
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, toolCallMarker) {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, toolCallMarker))
		if name == "" {
			return parseResult{kind: parseMalformed, reason: "tool call is missing a name"}
		}
		if len(name) > maxNameBytes {
			return parseResult{kind: parseTooLong, reason: "tool name exceeds 64 bytes"}
		}
		return scanInput(sc, name)
	}
	if sc.Err() != nil {
		return parseResult{kind: parseTooLong, reason: "response line exceeds 1 MiB"}
	}
	return parseResult{kind: parseNone}
}

// scanInput collects raw lines after the marker until the terminator,
// bounding growth as it goes.
func scanInput(sc *bufio.Scanner, name string) parseResult {
	var b strings.Builder
	first := true
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == toolCallEnd {
			break
		}
		need := len(line)
		if !first {
			need++
		}
		if b.Len()+need > maxInputBytes {
			return parseResult{kind: parseTooLong, reason: "input exceeds 256 KiB"}
		}
		if !first {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		first = false
	}
	if sc.Err() != nil {
		return parseResult{kind: parseTooLong, reason: "response line exceeds 1 MiB"}
	}
	return parseResult{kind: parseFound, call: toolCall{name: name, input: b.String()}}
}
