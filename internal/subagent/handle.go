package subagent

import (
	"errors"
	"os/exec"

	"golang.org/x/sys/unix"
)

// handle is the narrow process surface the supervisor drives. Keeping the
// FSM behind it lets tests exercise every transition with fakes instead of
// real processes.
type handle interface {
	PID() int
	Signal(sig unix.Signal) error
	// Poll reports the exit code without blocking; exited is false while
	// the process is still running.
	Poll() (code int, exited bool)
	// Wait blocks until the process is reaped and returns its exit code.
	Wait() int
	// Err returns the wait error after exit, nil for a clean exit 0.
	Err() error
}

// osHandle adapts exec.Cmd. A waiter goroutine reaps the process as soon
// as it exits so polling never leaves a zombie behind.
type osHandle struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}
	code int
	err  error
}

func newOSHandle(cmd *exec.Cmd) *osHandle {
	h := &osHandle{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		h.code = h.cmd.ProcessState.ExitCode()
		h.err = err
		close(h.done)
	}()
	return h
}

func (h *osHandle) PID() int { return h.pid }

// Signal targets the process group: the child is started with its own
// pgid, so the confinement helper and its payload both receive it.
func (h *osHandle) Signal(sig unix.Signal) error {
	err := unix.Kill(-h.pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (h *osHandle) Poll() (int, bool) {
	select {
	case <-h.done:
		return h.code, true
	default:
		return 0, false
	}
}

func (h *osHandle) Wait() int {
	<-h.done
	return h.code
}

func (h *osHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
