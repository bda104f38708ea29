//go:build linux && !amd64 && !arm64

package sandbox

// Architectures without a vetted syscall-number table run without the
// filter; the caller sees ErrNotSupported and logs the restriction as not
// engaged.
func auditArch() (uint32, bool) { return 0, false }

func deniedSyscalls() []uint32 { return nil }
