package policy

import (
	"testing"
)

func TestEvaluateBuiltins(t *testing.T) {
	table := New()

	tests := []struct {
		name string
		cmd  string
		want Decision
	}{
		// Forbidden
		{"root wipe", "rm -rf /", Forbidden},
		{"root wipe subpath", "rm -rf /home", Forbidden},
		{"raw device write", "dd if=backup.img of=/dev/sda", Prompt},
		{"raw device write prefix", "dd of=/dev/sda if=backup.img", Forbidden},
		{"mkfs", "mkfs /dev/sdb1", Forbidden},
		{"mkfs dotted", "mkfs.ext4 /dev/sdb1", Forbidden},
		{"fork bomb", ":(){ :|:& };:", Forbidden},
		{"shutdown", "shutdown -h now", Forbidden},
		{"reboot", "reboot", Forbidden},

		// Prompt
		{"service restart", "systemctl restart nginx", Prompt},
		{"bare systemctl", "systemctl status nginx", Prompt},
		{"firewall", "iptables -F", Prompt},
		{"user management", "useradd eve", Prompt},
		{"mounts", "mount /dev/sdb1 /mnt", Prompt},
		{"package install", "apt-get install jq", Prompt},
		{"bare dd", "dd if=a of=b", Prompt},

		// Allow
		{"ls", "ls -la", Allow},
		{"cat passwd", "cat /etc/passwd", Allow},
		{"git status", "git status", Allow},
		{"git log", "git log --oneline -5", Allow},
		{"df", "df -h", Allow},

		// Defaults
		{"catalog is not cat", "catalog", Prompt},
		{"unknown tool", "terraform apply", Prompt},
		{"lsof is not ls", "lsof -i :80", Prompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Evaluate(tt.cmd)
			if got.Decision != tt.want {
				t.Errorf("Evaluate(%q) = %s (%s), want %s",
					tt.cmd, got.Decision, got.Reason, tt.want)
			}
		})
	}
}

func TestEvaluateDefaultReason(t *testing.T) {
	table := New()

	got := table.Evaluate("frobnicate --all")
	if got.Decision != Prompt {
		t.Fatalf("Evaluate(unknown) = %s, want prompt", got.Decision)
	}
	if got.Reason != DefaultReason {
		t.Errorf("reason = %q, want %q", got.Reason, DefaultReason)
	}
	if got.Prefix != "" {
		t.Errorf("prefix = %q, want empty for default verdict", got.Prefix)
	}
}

func TestEvaluateLongestPrefixWins(t *testing.T) {
	table := NewEmpty()
	table.Append(
		Rule{Prefixes: []string{"git"}, Decision: Prompt, Reason: "git is stateful"},
		Rule{Prefixes: []string{"git status"}, Decision: Allow, Reason: "read-only"},
	)

	if got := table.Evaluate("git status -sb"); got.Decision != Allow {
		t.Errorf("longer allow prefix should win, got %s", got.Decision)
	}
	if got := table.Evaluate("git commit -m x"); got.Decision != Prompt {
		t.Errorf("short prefix should apply elsewhere, got %s", got.Decision)
	}
}

func TestEvaluateTieGoesToStricter(t *testing.T) {
	table := NewEmpty()
	table.Append(
		Rule{Prefixes: []string{"halt"}, Decision: Allow, Reason: "permissive user rule"},
		Rule{Prefixes: []string{"halt"}, Decision: Forbidden, Reason: "power control"},
	)

	got := table.Evaluate("halt")
	if got.Decision != Forbidden {
		t.Errorf("equal-length tie must resolve stricter, got %s", got.Decision)
	}

	// Same result regardless of load order.
	reversed := NewEmpty()
	reversed.Append(
		Rule{Prefixes: []string{"halt"}, Decision: Forbidden, Reason: "power control"},
		Rule{Prefixes: []string{"halt"}, Decision: Allow, Reason: "permissive user rule"},
	)
	if got := reversed.Evaluate("halt"); got.Decision != Forbidden {
		t.Errorf("tie resolution must be order-independent, got %s", got.Decision)
	}
}

func TestMatchPrefixBoundaries(t *testing.T) {
	tests := []struct {
		cmd    string
		prefix string
		want   bool
	}{
		{"cat file", "cat", true},
		{"cat", "cat", true},
		{"catalog", "cat", false},
		{"cat;ls", "cat", true},
		{"cat|wc", "cat", true},
		{"cat</dev/null", "cat", true},
		{"cat(x)", "cat", true},
		{"cat-herder", "cat", false},
		{"rm -rf /var", "rm -rf /", true},
		{"mkfs.ext4 /dev/sdb", "mkfs.", true},
		{":(){ :|:& };:", ":(){", true},
		{"", "cat", false},
		{"cat file", "", false},
	}

	for _, tt := range tests {
		if got := matchPrefix(tt.cmd, tt.prefix); got != tt.want {
			t.Errorf("matchPrefix(%q, %q) = %v, want %v", tt.cmd, tt.prefix, got, tt.want)
		}
	}
}

func TestEvaluateTrimsCommand(t *testing.T) {
	table := New()

	if got := table.Evaluate("   ls -la  "); got.Decision != Allow {
		t.Errorf("leading whitespace should not defeat matching, got %s", got.Decision)
	}
}

func TestDecisionString(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{Allow, "allow"},
		{Prompt, "prompt"},
		{Forbidden, "forbidden"},
		{Decision(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}
