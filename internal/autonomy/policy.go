package autonomy

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Config carries the ceilings and flags that bound a session. The zero
// value disables every ceiling; DefaultConfig matches shipped defaults.
type Config struct {
	ConfirmDestructive bool
	MaxWriteBytes      int64
	MaxFilesCreated    int64
	MaxCallsPerPrompt  int64
	MaxCallsPerSession int64
	ShellTimeout       time.Duration
	WriteCooldown      time.Duration
}

// DefaultConfig returns the shipped ceilings.
func DefaultConfig() Config {
	return Config{
		ConfirmDestructive: true,
		MaxWriteBytes:      10 << 20,
		MaxFilesCreated:    50,
		MaxCallsPerPrompt:  25,
		MaxCallsPerSession: 200,
		ShellTimeout:       2 * time.Minute,
		WriteCooldown:      time.Second,
	}
}

// ShellDecision is the autonomy gate's answer for one shell command,
// ordered by permissiveness.
type ShellDecision int

const (
	ShellDeny ShellDecision = iota
	ShellPrompt
	ShellAllow
)

func (d ShellDecision) String() string {
	switch d {
	case ShellDeny:
		return "deny"
	case ShellPrompt:
		return "prompt"
	case ShellAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Verdict pairs a shell decision with its reason.
type Verdict struct {
	Decision ShellDecision
	Reason   string
}

// Policy is the session's trust state: one active level, the configured
// ceilings, and the runtime counters. It is carried explicitly through the
// dispatcher and handlers rather than living in a global.
type Policy struct {
	mu      sync.RWMutex
	level   Level
	cfg     Config
	counter Counters
}

// NewPolicy creates a policy at the given level.
func NewPolicy(level Level, cfg Config) *Policy {
	return &Policy{level: level, cfg: cfg}
}

// Level returns the active level.
func (p *Policy) Level() Level {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

// SetLevel overrides the level for the remainder of the session. The
// override is never persisted.
func (p *Policy) SetLevel(l Level) error {
	if !l.Valid() {
		return fmt.Errorf("invalid autonomy level %d", int(l))
	}
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
	return nil
}

// Config returns the configured ceilings.
func (p *Policy) Config() Config {
	return p.cfg
}

// observeTools is the fixed read-only tool allowlist available at Observe.
var observeTools = map[string]bool{
	"read_file": true,
	"list_dir":  true,
	"glob":      true,
	"grep":      true,
}

// CheckTool decides whether the named tool may run at the active level.
// Registry population is enforced separately; this gate holds even for a
// tool that was registered anyway.
func (p *Policy) CheckTool(name string, isWrite bool) error {
	switch p.Level() {
	case None:
		return fmt.Errorf("autonomy level none denies all tools")
	case Observe:
		if isWrite {
			return fmt.Errorf("write tool %q denied at observe level", name)
		}
		if !observeTools[name] {
			return fmt.Errorf("tool %q is not in the observe allowlist", name)
		}
		return nil
	default:
		return nil
	}
}

// CheckMemoryWrite gates agent-memory mutation: appending unlocks at
// Workspace, overwriting only at Home.
func (p *Policy) CheckMemoryWrite(isAppend bool) error {
	level := p.Level()
	if isAppend {
		if level >= Workspace {
			return nil
		}
		return fmt.Errorf("memory append requires workspace level or above (current: %s)", level)
	}
	if level >= Home {
		return nil
	}
	return fmt.Errorf("memory overwrite requires home level or above (current: %s)", level)
}

// Shell token classes consulted by CheckShell.
var (
	backgroundTokens = map[string]bool{
		"&": true, "nohup": true, "tmux": true, "screen": true,
		"disown": true, "setsid": true,
	}
	privilegeTokens = map[string]bool{
		"sudo": true, "su": true, "doas": true, "pkexec": true, "chown": true,
	}
	networkTokens = map[string]bool{
		"curl": true, "wget": true, "nc": true, "ncat": true, "ssh": true,
		"scp": true, "sftp": true, "telnet": true, "ftp": true,
	}
	shellNames = map[string]bool{
		"bash": true, "sh": true, "zsh": true, "fish": true, "dash": true,
	}

	// readOnlyCommands is the observe-class allowlist. Entries with a
	// subcommand match the first two tokens.
	readOnlyCommands = map[string]bool{
		"ls": true, "cat": true, "head": true, "tail": true, "less": true,
		"grep": true, "rg": true, "find": true, "stat": true, "file": true,
		"wc": true, "du": true, "df": true, "ps": true, "free": true,
		"uptime": true, "uname": true, "id": true, "whoami": true,
		"pwd": true, "date": true, "which": true, "env": true, "echo": true,
		"hostname": true,
		"git status": true, "git log": true, "git diff": true,
		"git show": true, "git branch": true,
	}

	// writeAllowlist is the small set of mutating commands permitted at
	// Workspace and Home without a prompt.
	writeAllowlist = map[string]bool{
		"mkdir": true, "cp": true, "touch": true, "mv": true,
	}
)

// CheckShell decides whether a shell command may run at the active level.
// The execution-policy classifier is a separate gate; this one only
// expresses what the trust tier tolerates.
func (p *Policy) CheckShell(command string) Verdict {
	level := p.Level()
	tokens := strings.Fields(command)

	if len(tokens) == 0 {
		return Verdict{ShellDeny, "empty command"}
	}

	switch level {
	case None:
		return Verdict{ShellDeny, "autonomy level none denies all shell commands"}

	case Observe:
		if isReadOnlyCommand(tokens) {
			return Verdict{ShellAllow, "read-only command"}
		}
		return Verdict{ShellDeny, "only read-only commands are allowed at observe level"}

	case Workspace, Home:
		if tok, ok := firstBackgroundToken(tokens); ok {
			return Verdict{ShellDeny, fmt.Sprintf("backgrounding token %q is not allowed", tok)}
		}
		if tok, ok := firstMatch(tokens, privilegeTokens); ok {
			return Verdict{ShellDeny, fmt.Sprintf("privilege escalation via %q is not allowed", tok)}
		}
		if worldWritableChmod(tokens) {
			return Verdict{ShellDeny, "world-writable chmod is not allowed"}
		}
		if level == Workspace {
			if tok, ok := firstMatch(tokens, networkTokens); ok {
				return Verdict{ShellDeny, fmt.Sprintf("network tool %q is not allowed at workspace level", tok)}
			}
			if isInteractiveShell(tokens) {
				return Verdict{ShellDeny, "interactive shells are not allowed at workspace level"}
			}
		}
		if isReadOnlyCommand(tokens) {
			return Verdict{ShellAllow, "read-only command"}
		}
		if writeAllowlist[tokens[0]] {
			return Verdict{ShellAllow, "allowlisted write command"}
		}
		if level == Workspace {
			return Verdict{ShellDeny, "unknown command is not allowed at workspace level"}
		}
		return Verdict{ShellPrompt, "unknown command requires interactive approval"}

	case Full:
		return Verdict{ShellAllow, "full autonomy"}

	default:
		return Verdict{ShellDeny, fmt.Sprintf("unrecognized autonomy level %d", int(level))}
	}
}

func firstBackgroundToken(tokens []string) (string, bool) {
	for _, tok := range tokens {
		if backgroundTokens[tok] {
			return tok, true
		}
		// "sleep 5&" backgrounds; "a && b" chains.
		if strings.HasSuffix(tok, "&") && !strings.HasSuffix(tok, "&&") {
			return tok, true
		}
	}
	return "", false
}

// worldWritableChmod reports a chmod granting mode 777. The mode may carry
// leading setuid/sticky digits ("0777", "4777"); symbolic spellings that
// reach the same state ("a+rwx", "o+w") count too.
func worldWritableChmod(tokens []string) bool {
	if tokens[0] != "chmod" {
		return false
	}
	for _, tok := range tokens[1:] {
		if strings.HasPrefix(tok, "-") {
			continue
		}
		if strings.HasSuffix(tok, "777") || tok == "a+rwx" || strings.Contains(tok, "o+w") {
			return true
		}
	}
	return false
}

func firstMatch(tokens []string, set map[string]bool) (string, bool) {
	for _, tok := range tokens {
		if set[tok] {
			return tok, true
		}
	}
	return "", false
}

func isReadOnlyCommand(tokens []string) bool {
	if readOnlyCommands[tokens[0]] {
		return true
	}
	if len(tokens) >= 2 && readOnlyCommands[tokens[0]+" "+tokens[1]] {
		return true
	}
	return false
}

func isInteractiveShell(tokens []string) bool {
	if !shellNames[tokens[0]] {
		return false
	}
	for _, tok := range tokens[1:] {
		if tok == "-c" {
			return false
		}
	}
	return true
}

// RecordCall counts one tool call against both rate ceilings.
func (p *Policy) RecordCall() error {
	return p.counter.RecordCall(p.cfg.MaxCallsPerPrompt, p.cfg.MaxCallsPerSession)
}

// RecordWrite counts written bytes against the session ceiling.
func (p *Policy) RecordWrite(n int64) error {
	return p.counter.RecordWrite(n, p.cfg.MaxWriteBytes)
}

// RecordFileCreated counts one created file against the session ceiling.
func (p *Policy) RecordFileCreated() error {
	return p.counter.RecordFileCreated(p.cfg.MaxFilesCreated)
}

// TouchWrite enforces the write cooldown.
func (p *Policy) TouchWrite() error {
	return p.counter.TouchWrite(p.cfg.WriteCooldown)
}

// ResetPrompt starts a new user turn.
func (p *Policy) ResetPrompt() {
	p.counter.ResetPrompt()
}

// Counters returns a snapshot of the runtime counters.
func (p *Policy) Counters() Snapshot {
	return p.counter.Snapshot()
}
