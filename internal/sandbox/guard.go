// Package sandbox installs kernel-level filesystem and syscall restrictions
// on the calling process. Both restrictions are irrevocable once active and
// are inherited by every descendant, so they are applied inside a freshly
// spawned child strictly before it execs its payload.
package sandbox

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrAlreadyInstalled is returned when an installer is invoked a
	// second time in the same process.
	ErrAlreadyInstalled = errors.New("restriction already installed")

	// ErrNotSupported marks platform-capability absence. The restriction
	// is not engaged; the caller decides whether to proceed anyway.
	ErrNotSupported = errors.New("restriction not supported on this platform")
)

// Guard installs process restrictions. Each installer is callable exactly
// once; a second call fails with ErrAlreadyInstalled regardless of whether
// the first attempt engaged.
type Guard interface {
	// Name identifies the backend for log and status output.
	Name() string

	// ApplyFilesystem leaves the whole tree readable and executable but
	// confines write, create, and delete access to the writable paths.
	// An empty list means fully read-only.
	ApplyFilesystem(writable []string) error

	// ApplySyscalls denies the fixed dangerous-syscall list with EPERM.
	ApplySyscalls() error
}

// New returns the platform guard: Landlock plus seccomp on Linux, a
// recording no-op elsewhere.
func New() Guard { return newPlatformGuard() }

type onceFlag struct{ done atomic.Bool }

func (f *onceFlag) take() error {
	if !f.done.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}
	return nil
}

// NoopGuard records install attempts without touching the kernel. It keeps
// the exactly-once contract observable on platforms without enforcement
// and in tests.
type NoopGuard struct {
	fs, sc onceFlag
}

// NewNoop returns a fresh recording guard.
func NewNoop() *NoopGuard { return &NoopGuard{} }

func (g *NoopGuard) Name() string { return "noop" }

func (g *NoopGuard) ApplyFilesystem(writable []string) error {
	if err := g.fs.take(); err != nil {
		return err
	}
	return ErrNotSupported
}

func (g *NoopGuard) ApplySyscalls() error {
	if err := g.sc.take(); err != nil {
		return err
	}
	return ErrNotSupported
}

// FilesystemInstalled reports whether ApplyFilesystem was attempted.
func (g *NoopGuard) FilesystemInstalled() bool { return g.fs.done.Load() }

// SyscallsInstalled reports whether ApplySyscalls was attempted.
func (g *NoopGuard) SyscallsInstalled() bool { return g.sc.done.Load() }
