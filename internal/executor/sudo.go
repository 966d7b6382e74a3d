package executor

import "errors"

// IsRoot returns true if the current process is running as root.
func IsRoot() bool {
	return isRoot()
}

// HasProgram returns true if the named program is on PATH.
func HasProgram(name string) bool {
	return hasProgram(name)
}

// CanElevate returns true if the process can run commands as root using the
// given elevation program.
func CanElevate(program string) bool {
	if isRoot() {
		return true
	}
	if program == "" || program == "none" {
		return false
	}
	return hasProgram(program)
}

// CheckPrivileges returns an error if privileges cannot be elevated when needed.
func CheckPrivileges(program string, needsRoot bool) error {
	if !needsRoot {
		return nil
	}
	if !CanElevate(program) {
		return ErrNoPrivileges
	}
	return nil
}

// ErrNoPrivileges is returned when an operation requires root but cannot elevate.
var ErrNoPrivileges = errors.New("this operation requires root privileges, but neither running as root nor an elevation program is available")
