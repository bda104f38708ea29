package sandbox

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// struct seccomp_data field offsets.
const (
	seccompDataNr   = 0
	seccompDataArch = 4
)

// applySeccomp loads a BPF filter that fails the denied syscalls with
// EPERM and allows everything else. Syscalls arriving under a foreign
// audit architecture pass through, so 32-bit compat binaries keep working
// instead of dying on renumbered tables.
func applySeccomp() error {
	arch, ok := auditArch()
	if !ok {
		return ErrNotSupported
	}

	filter := buildFilter(arch, deniedSyscalls())
	prog := unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl no_new_privs: %w", err)
	}
	if _, _, errNo := unix.Syscall(
		unix.SYS_SECCOMP,
		unix.SECCOMP_SET_MODE_FILTER,
		0,
		uintptr(unsafe.Pointer(&prog)),
	); errNo != 0 {
		if notSupportedErrno(errNo) {
			return ErrNotSupported
		}
		return fmt.Errorf("seccomp(SET_MODE_FILTER): %w", errNo)
	}
	return nil
}

// buildFilter assembles the denylist program:
//
//	ld  arch
//	jeq #arch, +1            ; foreign arch falls through
//	ret ALLOW
//	ld  nr
//	jeq #denied[i], deny     ; one test per denied syscall
//	...
//	ret ALLOW
//	deny: ret ERRNO|EPERM
func buildFilter(arch uint32, denied []uint32) []unix.SockFilter {
	prog := []unix.SockFilter{
		bpfStmt(unix.BPF_LD|unix.BPF_W|unix.BPF_ABS, seccompDataArch),
		bpfJump(unix.BPF_JMP|unix.BPF_JEQ|unix.BPF_K, arch, 1, 0),
		bpfStmt(unix.BPF_RET|unix.BPF_K, unix.SECCOMP_RET_ALLOW),
		bpfStmt(unix.BPF_LD|unix.BPF_W|unix.BPF_ABS, seccompDataNr),
	}
	for i, nr := range denied {
		// The deny return sits one past the final allow.
		prog = append(prog, bpfJump(
			unix.BPF_JMP|unix.BPF_JEQ|unix.BPF_K, nr,
			uint8(len(denied)-i), 0,
		))
	}
	prog = append(prog,
		bpfStmt(unix.BPF_RET|unix.BPF_K, unix.SECCOMP_RET_ALLOW),
		bpfStmt(unix.BPF_RET|unix.BPF_K,
			unix.SECCOMP_RET_ERRNO|uint32(unix.EPERM)&unix.SECCOMP_RET_DATA),
	)
	return prog
}

func bpfStmt(code uint16, k uint32) unix.SockFilter {
	return unix.SockFilter{Code: code, K: k}
}

func bpfJump(code uint16, k uint32, jt, jf uint8) unix.SockFilter {
	return unix.SockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}
