// Package policy classifies shell commands into allow, prompt, and
// forbidden buckets via prefix rules. The classifier is independent of the
// autonomy level; it answers "how risky is this command", not "may this
// session run it".
package policy

import (
	"strings"
)

// Decision is the classifier outcome, ordered so that a greater value is
// the stricter one.
type Decision int

const (
	Allow Decision = iota
	Prompt
	Forbidden
)

// String returns the lowercase name used in rule files and journal records.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Prompt:
		return "prompt"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rule maps a set of literal command prefixes to one decision.
type Rule struct {
	Prefixes []string
	Decision Decision
	Reason   string
}

// Verdict is the result of evaluating one command.
type Verdict struct {
	Decision Decision
	Reason   string
	Prefix   string
}

// DefaultReason is the justification attached when no rule matches.
const DefaultReason = "unknown command requires approval"

// Table holds the loaded rules. Built once at startup, not mutated during
// a session.
type Table struct {
	rules []Rule
}

// New returns a table containing only the built-in rules.
func New() *Table {
	return &Table{rules: builtinRules()}
}

// NewEmpty returns a table with no rules, for tests and tooling.
func NewEmpty() *Table {
	return &Table{}
}

// Append adds rules to the table. Later rules participate in the same
// longest-prefix resolution as built-ins; they do not override.
func (t *Table) Append(rules ...Rule) {
	t.rules = append(t.rules, rules...)
}

// Rules returns a copy of the loaded rule list.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Evaluate classifies a command. Among all matching prefixes the longest
// wins; equal lengths resolve to the stricter decision. No match yields
// Prompt so unknown commands fail toward caution.
func (t *Table) Evaluate(command string) Verdict {
	cmd := strings.TrimSpace(command)

	best := Verdict{Decision: Prompt, Reason: DefaultReason}
	bestLen := -1

	for _, rule := range t.rules {
		for _, prefix := range rule.Prefixes {
			if !matchPrefix(cmd, prefix) {
				continue
			}
			if len(prefix) > bestLen || (len(prefix) == bestLen && rule.Decision > best.Decision) {
				best = Verdict{Decision: rule.Decision, Reason: rule.Reason, Prefix: prefix}
				bestLen = len(prefix)
			}
		}
	}

	return best
}

// boundary characters that may follow a single-word prefix. Without this
// check "cat" would match "catalog".
const boundaryChars = " \t;&|<>()'\""

func matchPrefix(cmd, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(cmd, prefix) {
		return false
	}
	if len(cmd) == len(prefix) {
		return true
	}
	// Multi-word prefixes and prefixes already ending at a symbol match as
	// plain prefixes; only a trailing word can be extended into a longer one.
	if strings.ContainsAny(prefix, " \t") || !isWordByte(prefix[len(prefix)-1]) {
		return true
	}
	return strings.IndexByte(boundaryChars, cmd[len(prefix)]) >= 0
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '-'
}
