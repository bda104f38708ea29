package sandbox

import "golang.org/x/sys/unix"

func auditArch() (uint32, bool) {
	return unix.AUDIT_ARCH_X86_64, true
}

func deniedSyscalls() []uint32 {
	return []uint32{
		unix.SYS_PTRACE,
		unix.SYS_MOUNT,
		unix.SYS_UMOUNT2,
		unix.SYS_REBOOT,
		unix.SYS_SETHOSTNAME,
		unix.SYS_SETDOMAINNAME,
		unix.SYS_INIT_MODULE,
		unix.SYS_FINIT_MODULE,
		unix.SYS_DELETE_MODULE,
		unix.SYS_KEXEC_LOAD,
		unix.SYS_KEXEC_FILE_LOAD,
		unix.SYS_SWAPON,
		unix.SYS_SWAPOFF,
		unix.SYS_PIVOT_ROOT,
	}
}
