package sandbox

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// applyLandlock confines the process to read-only filesystem access plus
// write access beneath each writable path. The kernel enforces the ruleset
// for this process and every descendant; there is no way back.
func applyLandlock(writable []string) error {
	abi, _, errNo := unix.Syscall(
		unix.SYS_LANDLOCK_CREATE_RULESET,
		0, 0, unix.LANDLOCK_CREATE_RULESET_VERSION,
	)
	if errNo != 0 {
		if notSupportedErrno(errNo) {
			return ErrNotSupported
		}
		return fmt.Errorf("landlock_create_ruleset(version): %w", errNo)
	}
	if abi < 1 {
		return ErrNotSupported
	}

	readRights := uint64(unix.LANDLOCK_ACCESS_FS_READ_FILE |
		unix.LANDLOCK_ACCESS_FS_READ_DIR |
		unix.LANDLOCK_ACCESS_FS_EXECUTE)

	writeRights := uint64(unix.LANDLOCK_ACCESS_FS_WRITE_FILE |
		unix.LANDLOCK_ACCESS_FS_REMOVE_DIR |
		unix.LANDLOCK_ACCESS_FS_REMOVE_FILE |
		unix.LANDLOCK_ACCESS_FS_MAKE_CHAR |
		unix.LANDLOCK_ACCESS_FS_MAKE_DIR |
		unix.LANDLOCK_ACCESS_FS_MAKE_REG |
		unix.LANDLOCK_ACCESS_FS_MAKE_SOCK |
		unix.LANDLOCK_ACCESS_FS_MAKE_FIFO |
		unix.LANDLOCK_ACCESS_FS_MAKE_BLOCK |
		unix.LANDLOCK_ACCESS_FS_MAKE_SYM)

	// Rights that only exist on newer ABIs must not be requested from
	// older kernels or the ruleset call fails.
	if abi >= 2 {
		writeRights |= unix.LANDLOCK_ACCESS_FS_REFER
	}
	if abi >= 3 {
		writeRights |= unix.LANDLOCK_ACCESS_FS_TRUNCATE
	}

	attr := unix.LandlockRulesetAttr{
		Access_fs: readRights | writeRights,
	}
	ruleset, _, errNo := unix.Syscall(
		unix.SYS_LANDLOCK_CREATE_RULESET,
		uintptr(unsafe.Pointer(&attr)),
		unsafe.Sizeof(attr),
		0,
	)
	if errNo != 0 {
		return fmt.Errorf("landlock_create_ruleset: %w", errNo)
	}
	defer unix.Close(int(ruleset))

	if err := addPathRule(ruleset, "/", readRights); err != nil {
		return err
	}
	for _, path := range writable {
		if err := addPathRule(ruleset, path, readRights|writeRights); err != nil {
			return err
		}
	}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl no_new_privs: %w", err)
	}
	if _, _, errNo := unix.Syscall(
		unix.SYS_LANDLOCK_RESTRICT_SELF,
		ruleset, 0, 0,
	); errNo != 0 {
		return fmt.Errorf("landlock_restrict_self: %w", errNo)
	}
	return nil
}

// addPathRule attaches a path-beneath rule granting access under path.
func addPathRule(ruleset uintptr, path string, access uint64) error {
	fd, err := unix.Open(path, unix.O_PATH|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	rule := unix.LandlockPathBeneathAttr{
		Parent_fd:      int32(fd),
		Allowed_access: access,
	}
	if _, _, errNo := unix.Syscall(
		unix.SYS_LANDLOCK_ADD_RULE,
		ruleset,
		unix.LANDLOCK_RULE_PATH_BENEATH,
		uintptr(unsafe.Pointer(&rule)),
	); errNo != 0 {
		return fmt.Errorf("add rule for %s: %w", path, errNo)
	}
	return nil
}
