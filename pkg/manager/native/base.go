// Package native implements the system package manager (pacman).
package native

import (
	"context"
	"os/exec"

	"archpm/internal/executor"
	"archpm/pkg/manager"
)

// BaseManager provides common functionality for managers backed by a binary.
type BaseManager struct {
	name        string
	displayName string
	binary      string
	managerType manager.ManagerType
	needsSudo   bool
	exec        *executor.Executor
}

// NewBaseManager creates a new BaseManager with the given parameters. A nil
// executor is replaced by one that runs commands without elevation.
func NewBaseManager(name, displayName, binary string, mtype manager.ManagerType, needsSudo bool, exec *executor.Executor) *BaseManager {
	if exec == nil {
		exec = executor.New(executor.Options{})
	}
	return &BaseManager{
		name:        name,
		displayName: displayName,
		binary:      binary,
		managerType: mtype,
		needsSudo:   needsSudo,
		exec:        exec,
	}
}

// Name returns the short identifier for this manager.
func (b *BaseManager) Name() string {
	return b.name
}

// DisplayName returns the human-readable name.
func (b *BaseManager) DisplayName() string {
	return b.displayName
}

// Type returns the manager type.
func (b *BaseManager) Type() manager.ManagerType {
	return b.managerType
}

// IsAvailable returns true if this package manager is installed.
func (b *BaseManager) IsAvailable() bool {
	_, err := exec.LookPath(b.binary)
	return err == nil
}

// NeedsSudo returns true if this manager requires root privileges.
func (b *BaseManager) NeedsSudo() bool {
	return b.needsSudo
}

// Executor returns the executor instance.
func (b *BaseManager) Executor() *executor.Executor {
	return b.exec
}

// Exec runs the manager binary with args, elevated when the manager needs
// root. dryRun forces dry-run mode for this call only. A failure is returned
// as a *PacmanError when stderr is recognised.
func (b *BaseManager) Exec(ctx context.Context, dryRun bool, args ...string) error {
	exec := b.exec
	if dryRun {
		exec = exec.WithDryRun(true)
	}

	var (
		res executor.Result
		err error
	)
	if b.needsSudo {
		res, err = exec.RunElevated(ctx, b.binary, args...)
	} else {
		res, err = exec.RunCapture(ctx, b.binary, args...)
	}
	if err != nil {
		if pacErr := ParsePacmanError(res.Stderr, err); pacErr != nil {
			return pacErr
		}
		return err
	}
	return nil
}
