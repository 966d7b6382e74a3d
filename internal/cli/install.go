package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"archpm/internal/ui"
	"archpm/pkg/bridge"
	"archpm/pkg/manager/native"

	"github.com/spf13/cobra"
)

var (
	installWait time.Duration

	// waitInterval is how often --wait checks the local database.
	waitInterval = bridge.DefaultWaitInterval
)

var installCmd = &cobra.Command{
	Use:   "install [packages...]",
	Short: "Install one or more packages",
	Long: `Install packages from the sync repositories or the AUR.

Each package is looked up in the sync repositories first; packages
that only exist in the AUR are installed with the AUR helper.

Examples:
  archpm install vim git curl       # Install from the repositories
  archpm install visual-studio-code-bin  # Found in the AUR
  archpm install -y neovim          # Install without confirmation
  archpm install -n vlc             # Show the command without running it
  archpm install --wait 2m zed      # Wait until the local database shows zed`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().DurationVar(&installWait, "wait", 0, "after installing, wait up to this long for the local database to list the package")
}

func runInstall(cmd *cobra.Command, args []string) error {
	for _, pkg := range args {
		if err := bridge.ValidateName(pkg); err != nil {
			return err
		}
	}

	b, err := getBackend()
	if err != nil {
		return err
	}

	ui.InfoMsg("Installing %d package(s)", len(args))
	for _, pkg := range args {
		ui.MutedMsg("  - %s", pkg)
	}

	if err := confirm("Proceed with installation?", true); err != nil {
		return err
	}

	failed := 0
	for _, pkg := range args {
		if err := installPackage(b, pkg); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d package(s) failed to install", failed, len(args))
	}
	return nil
}

// installPackage installs one package with spinner feedback.
func installPackage(b Backend, name string) error {
	err := ui.WithSpinner(fmt.Sprintf("Installing %s...", name), func() error {
		return b.Install(name)
	})

	if err != nil {
		if handled, handledErr := handlePacmanConflict(b, name, err); handled {
			err = handledErr
		}
	}
	if err == nil {
		err = waitForState(b, name, true, installWait)
	}

	switch {
	case err != nil:
		ui.ErrorMsg("Failed to install %s: %v", name, err)
	case cfg.General.DryRun:
		ui.InfoMsg("Dry run: %s was not installed", name)
	default:
		ui.SuccessMsg("Installed %s", name)
	}
	return err
}

// waitForState polls the local database until name reaches the wanted state.
// A zero timeout or a dry run skips the wait.
func waitForState(b Backend, name string, installed bool, timeout time.Duration) error {
	if timeout <= 0 || cfg.General.DryRun {
		return nil
	}

	state := "installed"
	if !installed {
		state = "removed"
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := ui.WithSpinner(fmt.Sprintf("Waiting for %s to be %s...", name, state), func() error {
		return b.WaitForState(ctx, name, installed, waitInterval)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s still not %s after %s", name, state, timeout)
	}
	return err
}

// handlePacmanConflict checks if the error is a pacman dependency conflict and offers
// to upgrade the system and retry. Returns (handled, error) where handled indicates
// whether this function handled the error (whether successfully or not).
func handlePacmanConflict(b Backend, name string, err error) (bool, error) {
	pacErr, ok := native.IsPacmanDependencyConflict(err)
	if !ok {
		return false, nil
	}

	ui.WarningMsg("%s", native.FormatDependencyConflictMessage(pacErr))

	// Partial upgrades are not supported; without a prompt we stop here
	if cfg.General.AutoConfirm {
		return false, nil
	}

	confirmed, confirmErr := ui.Confirm("Update system and retry installation?", true)
	if confirmErr != nil || !confirmed {
		return true, err
	}

	if upgradeErr := ui.WithSpinner("Updating system...", b.UpdateAllPkg); upgradeErr != nil {
		ui.ErrorMsg("System upgrade failed: %v", upgradeErr)
		return true, upgradeErr
	}
	ui.SuccessMsg("System updated successfully")

	retryErr := ui.WithSpinner(fmt.Sprintf("Retrying %s...", name), func() error {
		return b.Install(name)
	})
	return true, retryErr
}
