package autonomy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// sensitivePatterns is the fixed denylist of credential material, raw block
// devices, and boot paths. It is checked independently of the level and is
// not overridable: it wins even at Full.
var sensitivePatterns = []string{
	"etc/shadow",
	"etc/shadow-",
	"etc/gshadow*",
	"etc/sudoers",
	"etc/sudoers.d/**",
	"**/.ssh",
	"**/.ssh/**",
	"**/id_rsa*",
	"**/id_ecdsa*",
	"**/id_ed25519*",
	"**/.aws/**",
	"**/.gnupg",
	"**/.gnupg/**",
	"**/.kube/config",
	"**/*.pem",
	"dev/sd*",
	"dev/nvme*",
	"dev/vd*",
	"dev/xvd*",
	"dev/mem",
	"dev/kmem",
	"boot",
	"boot/**",
	"sys/firmware/**",
}

// IsSensitivePath reports whether path matches the fixed denylist.
// Both absolute and relative spellings are matched.
func IsSensitivePath(path string) bool {
	p := strings.TrimSpace(path)
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	p = filepath.ToSlash(filepath.Clean(p))
	p = strings.TrimPrefix(p, "/")

	for _, pattern := range sensitivePatterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// SensitiveToken scans a line for a token that names a sensitive path and
// returns the first offender. Used by the dispatcher on the first line of
// every tool input, so both path arguments and shell commands are covered.
func SensitiveToken(line string) (string, bool) {
	for _, tok := range strings.Fields(line) {
		tok = strings.Trim(tok, `"'`)
		if IsSensitivePath(tok) {
			return tok, true
		}
	}
	return "", false
}
