package policy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// userRuleReason is attached to rules loaded from a rule file.
const userRuleReason = "user rule"

// LoadFile reads a rule file and returns its rules. The file is UTF-8,
// one rule per line:
//
//	allow: ls tree
//	prompt: terraform kubectl
//	forbidden: shred
//
// Blank lines and lines starting with # are ignored.
func LoadFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	rules, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Parse reads rules from r, reporting malformed lines by number.
func Parse(r io.Reader) ([]Rule, error) {
	var rules []Rule

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, rest, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("line %d: missing decision separator", lineno)
		}

		decision, err := parseDecision(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}

		prefixes := strings.Fields(rest)
		if len(prefixes) == 0 {
			return nil, fmt.Errorf("line %d: no command prefixes", lineno)
		}

		rules = append(rules, Rule{
			Prefixes: prefixes,
			Decision: decision,
			Reason:   userRuleReason,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	return rules, nil
}

func parseDecision(name string) (Decision, error) {
	switch strings.ToLower(name) {
	case "allow":
		return Allow, nil
	case "prompt":
		return Prompt, nil
	case "forbidden":
		return Forbidden, nil
	default:
		return Prompt, fmt.Errorf("unknown decision %q (want allow, prompt, or forbidden)", name)
	}
}
