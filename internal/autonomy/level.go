// Package autonomy holds the graduated trust model: the ordered level, the
// per-session counters, and the tool/shell/memory gates every dispatch
// passes through.
package autonomy

import (
	"fmt"
	"strings"
)

// Level is the ordered trust tier. A higher level implies a superset of the
// permissions of every lower one.
type Level int

const (
	None Level = iota
	Observe
	Workspace
	Home
	Full
)

var levelNames = [...]string{"none", "observe", "workspace", "home", "full"}

// String returns the lowercase level name.
func (l Level) String() string {
	if l < None || l > Full {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	return l >= None && l <= Full
}

// ParseLevel converts a level name to a Level. The error lists the valid
// names so it can be surfaced directly as CLI usage text.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return None, fmt.Errorf("invalid autonomy level %q (valid: %s)", s, strings.Join(levelNames[:], ", "))
}

// LevelNames returns the valid level names in ascending trust order.
func LevelNames() []string {
	out := make([]string, len(levelNames))
	copy(out, levelNames[:])
	return out
}
