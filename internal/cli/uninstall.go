package cli

import (
	"fmt"
	"time"

	"archpm/internal/ui"
	"archpm/pkg/bridge"

	"github.com/spf13/cobra"
)

var (
	uninstallRecursive bool
	uninstallWait      time.Duration
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall [packages...]",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove one or more packages",
	Long: `Remove installed packages with pacman, falling back to the AUR
helper when pacman is not available. Without --recursive dependency
checks are skipped (pacman -Rdd), so packages that depend on the removed
one stay installed.

Examples:
  archpm uninstall vim              # Remove package
  archpm uninstall -y firefox       # Remove without confirmation
  archpm uninstall -r package       # Remove with unused dependencies`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallRecursive, "recursive", "r", false, "remove dependencies no other package needs")
	uninstallCmd.Flags().DurationVar(&uninstallWait, "wait", 0, "after removing, wait up to this long for the local database to drop the package")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	for _, pkg := range args {
		if err := bridge.ValidateName(pkg); err != nil {
			return err
		}
	}

	b, err := getBackend()
	if err != nil {
		return err
	}

	ui.InfoMsg("Removing %d package(s)", len(args))
	for _, pkg := range args {
		ui.MutedMsg("  - %s", pkg)
	}
	if uninstallRecursive {
		ui.WarningMsg("Unused dependencies will also be removed")
	}

	if err := confirm("Proceed with removal?", false); err != nil {
		return err
	}

	remove := b.Uninstall
	if uninstallRecursive {
		remove = b.UninstallPackage
	}

	failed := 0
	for _, pkg := range args {
		err := ui.WithSpinner(fmt.Sprintf("Removing %s...", pkg), func() error {
			return remove(pkg)
		})
		if err == nil {
			err = waitForState(b, pkg, false, uninstallWait)
		}
		switch {
		case err != nil:
			ui.ErrorMsg("Failed to uninstall %s: %v", pkg, err)
			failed++
		case cfg.General.DryRun:
			ui.InfoMsg("Dry run: %s was not removed", pkg)
		default:
			ui.SuccessMsg("Removed %s", pkg)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d package(s) failed to uninstall", failed, len(args))
	}
	return nil
}
