package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/joss/aegis/internal/logging"
)

// Exit codes mirrored by the confined helper process.
const (
	ExitTimeout    = 124
	ExitSetupError = 125
	ExitExecError  = 126
	ExitNotFound   = 127
)

// ExecSpec describes one confined payload run.
type ExecSpec struct {
	// Writable paths passed to the filesystem restriction. Empty means
	// fully read-only.
	Writable []string

	// Timeout is the wall-clock ceiling; zero disables it.
	Timeout time.Duration

	// Argv is the payload command line.
	Argv []string

	// Dir is the payload working directory; empty inherits ours.
	Dir string
}

// Confine installs both restrictions on the calling process through the
// given guard, runs the payload, and returns the exit code the helper
// should exit with. It is only called from the re-executed helper process:
// the restrictions are irrevocable and inherited by the payload and all
// its descendants.
func Confine(spec ExecSpec, guard Guard) int {
	log := logging.New("sandbox")

	if len(spec.Argv) == 0 {
		log.Error("confine", nil, fmt.Errorf("empty argv"))
		return ExitSetupError
	}

	if err := guard.ApplyFilesystem(spec.Writable); err != nil {
		if !errors.Is(err, ErrNotSupported) {
			log.Error("apply_filesystem_restriction", map[string]interface{}{"guard": guard.Name()}, err)
			return ExitSetupError
		}
		log.Warn("restriction not engaged", map[string]interface{}{
			"restriction": "filesystem", "guard": guard.Name(),
		}, nil)
	}
	if err := guard.ApplySyscalls(); err != nil {
		if !errors.Is(err, ErrNotSupported) {
			log.Error("apply_syscall_restriction", map[string]interface{}{"guard": guard.Name()}, err)
			return ExitSetupError
		}
		log.Warn("restriction not engaged", map[string]interface{}{
			"restriction": "syscall", "guard": guard.Name(),
		}, nil)
	}

	ctx := context.Background()
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// If the payload ignores the context kill, give it a moment and then
	// let Wait return anyway instead of hanging the helper.
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return ExitTimeout
	}
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		// Signal termination has no exit code; report exec-shaped failure.
		return ExitExecError
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ExitNotFound
	}
	log.Error("run_payload", nil, err)
	return ExitExecError
}
