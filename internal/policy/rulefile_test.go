package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRules(t *testing.T) {
	input := `# custom site policy

allow: tree lsblk
prompt: terraform kubectl
forbidden: shred

# trailing comment
`

	rules, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}

	if rules[0].Decision != Allow || len(rules[0].Prefixes) != 2 {
		t.Errorf("rule 0 = %+v, want allow with 2 prefixes", rules[0])
	}
	if rules[1].Decision != Prompt {
		t.Errorf("rule 1 decision = %s, want prompt", rules[1].Decision)
	}
	if rules[2].Decision != Forbidden || rules[2].Prefixes[0] != "shred" {
		t.Errorf("rule 2 = %+v, want forbidden shred", rules[2])
	}
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"unknown decision", "deny: rm\n", "line 1"},
		{"missing separator", "allow rm\n", "line 1"},
		{"no prefixes", "allow:\n", "line 1"},
		{"error names later line", "# ok\nallow: ls\nbogus: x\n", "line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileAppendsToBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.rules")
	content := "allow: lsblk\nforbidden: shred\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	table := New()
	table.Append(rules...)

	if got := table.Evaluate("lsblk"); got.Decision != Allow {
		t.Errorf("user allow rule should apply, got %s", got.Decision)
	}
	if got := table.Evaluate("shred -u secrets.txt"); got.Decision != Forbidden {
		t.Errorf("user forbidden rule should apply, got %s", got.Decision)
	}
	// Built-ins still resolve.
	if got := table.Evaluate("rm -rf /"); got.Decision != Forbidden {
		t.Errorf("built-in should survive append, got %s", got.Decision)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.rules"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestUserRulesJoinResolution(t *testing.T) {
	// A user rule with a longer prefix refines a built-in instead of
	// replacing it.
	rules, err := Parse(strings.NewReader("forbidden: apt-get\n"))
	if err != nil {
		t.Fatal(err)
	}

	table := New()
	table.Append(rules...)

	if got := table.Evaluate("apt-get install jq"); got.Decision != Forbidden {
		t.Errorf("user rule should win by tie strictness, got %s", got.Decision)
	}
	if got := table.Evaluate("apt update"); got.Decision != Prompt {
		t.Errorf("built-in apt rule should still hold, got %s", got.Decision)
	}
}
