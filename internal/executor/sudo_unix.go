//go:build !windows

package executor

import (
	"os"
	"os/exec"
)

// isRoot returns true if the current process is running as root.
func isRoot() bool {
	return os.Geteuid() == 0
}

// hasProgram returns true if the program is available on the system.
func hasProgram(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
