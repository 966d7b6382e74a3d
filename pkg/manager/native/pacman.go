package native

import (
	"context"

	"archpm/internal/executor"
	"archpm/pkg/manager"
)

// Pacman implements the Manager interface for Arch Linux's pacman package manager.
type Pacman struct {
	*BaseManager
}

// NewPacman creates a new Pacman manager instance.
func NewPacman(exec *executor.Executor) *Pacman {
	return &Pacman{
		BaseManager: NewBaseManager("pacman", "Pacman (Arch Linux)", "pacman", manager.TypeNative, true, exec),
	}
}

// Install installs one or more packages.
func (p *Pacman) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	return p.Exec(ctx, opts.DryRun, InstallArgs(packages, opts)...)
}

// Uninstall removes one or more packages.
func (p *Pacman) Uninstall(ctx context.Context, packages []string, opts manager.UninstallOpts) error {
	return p.Exec(ctx, opts.DryRun, UninstallArgs(packages, opts)...)
}

// Upgrade upgrades installed packages. With no packages it runs a full
// system upgrade.
func (p *Pacman) Upgrade(ctx context.Context, opts manager.UpgradeOpts) error {
	return p.Exec(ctx, opts.DryRun, UpgradeArgs(opts)...)
}

// InstallArgs returns the pacman-style arguments for an install. AUR helpers
// accept the same flags.
func InstallArgs(packages []string, opts manager.InstallOpts) []string {
	args := []string{"-S"}
	if opts.AutoConfirm {
		args = append(args, "--noconfirm")
	}
	return append(args, packages...)
}

// UninstallArgs returns the pacman-style arguments for a removal.
func UninstallArgs(packages []string, opts manager.UninstallOpts) []string {
	op := "-R"
	if opts.Recursive {
		op += "s" // Remove dependencies no longer required
	}
	if opts.NoDeps {
		op += "dd"
	}

	args := []string{op}
	if opts.AutoConfirm {
		args = append(args, "--noconfirm")
	}
	return append(args, packages...)
}

// UpgradeArgs returns the pacman-style arguments for an upgrade.
func UpgradeArgs(opts manager.UpgradeOpts) []string {
	if len(opts.Packages) > 0 {
		// Upgrade specific packages only
		args := []string{"-S"}
		if opts.AutoConfirm {
			args = append(args, "--noconfirm")
		}
		return append(args, opts.Packages...)
	}

	args := []string{"-Syu"}
	if opts.AutoConfirm {
		args = append(args, "--noconfirm")
	}
	return args
}
