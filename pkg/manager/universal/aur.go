// Package universal implements managers that sit on top of pacman, such as
// AUR helpers.
package universal

import (
	"context"
	"os/exec"

	"archpm/internal/executor"
	"archpm/pkg/manager"
	"archpm/pkg/manager/native"
)

// KnownHelpers lists the AUR helpers probed when none is configured, in
// order of preference.
var KnownHelpers = []string{"yay", "paru", "trizen", "aurman"}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// AUR implements the Manager interface for Arch User Repository helpers (yay, paru).
// Helpers run as the invoking user and elevate the pacman steps themselves.
type AUR struct {
	*native.BaseManager
	helper string
}

// NewAUR creates a new AUR helper manager instance. It prefers the given
// helper, then the first installed entry of KnownHelpers. It returns nil when
// no helper is installed.
func NewAUR(preferredHelper string, exec *executor.Executor) *AUR {
	helper := DetectHelper(preferredHelper)
	if helper == "" {
		return nil
	}

	return &AUR{
		BaseManager: native.NewBaseManager(helper, displayName(helper), helper, manager.TypeAUR, false, exec),
		helper:      helper,
	}
}

// DetectHelper finds an available AUR helper.
func DetectHelper(preferred string) string {
	if preferred != "" {
		if _, err := lookPath(preferred); err == nil {
			return preferred
		}
	}

	for _, h := range KnownHelpers {
		if _, err := lookPath(h); err == nil {
			return h
		}
	}

	return ""
}

func displayName(helper string) string {
	switch helper {
	case "yay":
		return "Yay (AUR)"
	case "paru":
		return "Paru (AUR)"
	case "trizen":
		return "Trizen (AUR)"
	}
	return "AUR (" + helper + ")"
}

// Helper returns the helper binary in use.
func (a *AUR) Helper() string {
	return a.helper
}

// IsAvailable returns true if an AUR helper is installed.
func (a *AUR) IsAvailable() bool {
	if a == nil || a.helper == "" {
		return false
	}
	return a.BaseManager.IsAvailable()
}

// Install installs one or more packages from the repositories or the AUR.
func (a *AUR) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	return a.Exec(ctx, opts.DryRun, a.withSudo(native.InstallArgs(packages, opts))...)
}

// Uninstall removes one or more packages.
func (a *AUR) Uninstall(ctx context.Context, packages []string, opts manager.UninstallOpts) error {
	return a.Exec(ctx, opts.DryRun, a.withSudo(native.UninstallArgs(packages, opts))...)
}

// Upgrade upgrades repository and AUR packages.
func (a *AUR) Upgrade(ctx context.Context, opts manager.UpgradeOpts) error {
	return a.Exec(ctx, opts.DryRun, a.withSudo(native.UpgradeArgs(opts))...)
}

// withSudo passes the configured elevation program to helpers that support
// --sudo, so a graphical prompt (pkexec) works without a terminal.
func (a *AUR) withSudo(args []string) []string {
	elevate := a.Executor().Elevator()
	if elevate == "" || elevate == "sudo" || executor.IsRoot() {
		return args
	}

	switch a.helper {
	case "yay", "paru":
		return append([]string{"--sudo", elevate}, args...)
	}
	return args
}
