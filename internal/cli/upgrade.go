package cli

import (
	"fmt"

	"archpm/internal/ui"
	"archpm/pkg/bridge"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [packages...]",
	Short: "Upgrade installed packages",
	Long: `Upgrade installed packages to their latest versions.

If no packages are specified, the whole system is upgraded, including
AUR packages when an AUR helper is installed.

Examples:
  archpm upgrade              # Upgrade all packages
  archpm upgrade vim git      # Upgrade specific packages
  archpm upgrade -y           # Upgrade all without confirmation`,
	RunE: runUpgrade,
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	for _, pkg := range args {
		if err := bridge.ValidateName(pkg); err != nil {
			return err
		}
	}

	b, err := getBackend()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		ui.InfoMsg("Upgrading all packages")
	} else {
		ui.InfoMsg("Upgrading %d package(s)", len(args))
		for _, pkg := range args {
			ui.MutedMsg("  - %s", pkg)
		}
	}

	if err := confirm("Proceed with upgrade?", true); err != nil {
		return err
	}

	if len(args) == 0 {
		if err := ui.WithSpinner("Upgrading system...", b.UpdateAllPkg); err != nil {
			ui.ErrorMsg("Upgrade failed: %v", err)
			return err
		}
		ui.SuccessMsg("Upgrade completed successfully")
		return nil
	}

	failed := 0
	for _, pkg := range args {
		err := ui.WithSpinner(fmt.Sprintf("Upgrading %s...", pkg), func() error {
			return b.UpdateSinglePkg(pkg)
		})
		if err != nil {
			ui.ErrorMsg("Failed to update %s: %v", pkg, err)
			failed++
			continue
		}
		ui.SuccessMsg("Upgraded %s", pkg)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d package(s) failed to upgrade", failed, len(args))
	}
	return nil
}
