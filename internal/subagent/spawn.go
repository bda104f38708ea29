package subagent

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// EnvMarker is inherited by every spawned child. Its presence refuses
// further spawns, holding recursion depth at one.
const EnvMarker = "AEGIS_SUBAGENT"

// spawnFunc starts the child for a task with stdout and stderr attached to
// its output file. Tests substitute fakes.
type spawnFunc func(t *Task, out *os.File) (handle, error)

// newOSSpawn builds the real spawner: the task command runs under the
// confinement helper (`sandbox-exec`) in the configured directory, with
// the wall-clock ceiling armed inside the child itself, so the payload
// dies on schedule even if this process never polls it again.
func newOSSpawn(cfg Config) spawnFunc {
	return func(t *Task, out *os.File) (handle, error) {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve own binary: %w", err)
		}

		args := []string{"sandbox-exec"}
		for _, w := range cfg.Writable {
			args = append(args, "--writable", w)
		}
		args = append(args,
			"--timeout", strconv.Itoa(int(cfg.Ceiling.Seconds())),
			"--", "sh", "-c", t.Command,
		)

		cmd := exec.Command(self, args...)
		cmd.Dir = cfg.Dir
		cmd.Stdout = out
		cmd.Stderr = out
		cmd.Env = append(os.Environ(), EnvMarker+"=1")
		// Own process group, so kill escalation reaches the helper and
		// its payload together.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return newOSHandle(cmd), nil
	}
}
