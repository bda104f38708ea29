package sandbox

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// linuxGuard enforces the filesystem confinement with Landlock and the
// syscall denylist with a seccomp-BPF filter.
type linuxGuard struct {
	fs, sc onceFlag
}

func newPlatformGuard() Guard { return &linuxGuard{} }

func (g *linuxGuard) Name() string { return "landlock+seccomp" }

func (g *linuxGuard) ApplyFilesystem(writable []string) error {
	if err := g.fs.take(); err != nil {
		return err
	}
	return applyLandlock(writable)
}

func (g *linuxGuard) ApplySyscalls() error {
	if err := g.sc.take(); err != nil {
		return err
	}
	return applySeccomp()
}

// notSupportedErrno covers the probe results of kernels without the
// feature compiled in or with it disabled.
func notSupportedErrno(errNo syscall.Errno) bool {
	return errNo == unix.ENOSYS || errNo == unix.EOPNOTSUPP ||
		errNo == unix.ENOPKG || errNo == unix.EINVAL
}
