package policy

// builtinRules is the fixed base table: destructive operations are
// forbidden outright, administrative state changes require approval, and
// read-only inspection passes.
func builtinRules() []Rule {
	return []Rule{
		// Destructive, irreversible
		{
			Prefixes: []string{"rm -rf /", "rm -fr /", "rm -r /", "rm -rf --no-preserve-root"},
			Decision: Forbidden,
			Reason:   "recursive deletion of the filesystem root",
		},
		{
			Prefixes: []string{"dd of=/dev/", "dd if=/dev/zero of=/dev/", "dd if=/dev/random of=/dev/"},
			Decision: Forbidden,
			Reason:   "raw write to a block device",
		},
		{
			Prefixes: []string{"mkfs", "mkfs."},
			Decision: Forbidden,
			Reason:   "filesystem formatting destroys existing data",
		},
		{
			Prefixes: []string{":(){", ":() {"},
			Decision: Forbidden,
			Reason:   "fork bomb",
		},
		{
			Prefixes: []string{"shutdown", "poweroff", "halt", "reboot", "init 0", "init 6"},
			Decision: Forbidden,
			Reason:   "power control terminates the host",
		},

		// Administrative, state-changing
		{
			Prefixes: []string{"systemctl restart", "systemctl stop", "systemctl start", "systemctl enable", "systemctl disable", "systemctl", "service"},
			Decision: Prompt,
			Reason:   "service control changes system state",
		},
		{
			Prefixes: []string{"iptables", "ip6tables", "nft", "ufw", "firewall-cmd"},
			Decision: Prompt,
			Reason:   "firewall modification",
		},
		{
			Prefixes: []string{"useradd", "userdel", "usermod", "groupadd", "groupdel", "passwd", "chpasswd"},
			Decision: Prompt,
			Reason:   "user account management",
		},
		{
			Prefixes: []string{"mount", "umount"},
			Decision: Prompt,
			Reason:   "mount table changes",
		},
		{
			Prefixes: []string{"apt", "apt-get", "dnf", "yum", "pacman", "zypper", "rpm", "dd"},
			Decision: Prompt,
			Reason:   "package or image operation changes installed state",
		},

		// Read-only inspection
		{
			Prefixes: []string{
				"ls", "cat", "head", "tail", "less", "grep", "rg", "find",
				"stat", "file", "wc", "du", "df", "ps", "free", "uptime",
				"uname", "id", "whoami", "pwd", "date", "which", "env",
				"echo", "hostname",
			},
			Decision: Allow,
			Reason:   "read-only inspection",
		},
		{
			Prefixes: []string{"git status", "git log", "git diff", "git show", "git branch"},
			Decision: Allow,
			Reason:   "read-only repository inspection",
		},
	}
}
