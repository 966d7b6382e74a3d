package cli

import (
	"errors"
	"os"

	"archpm/internal/config"
	"archpm/internal/executor"
	"archpm/internal/ui"
	"archpm/pkg/bridge"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose system issues",
	Long: `Check that pacman, the package databases, the AUR and privilege
elevation work.

Examples:
  archpm doctor               # Run diagnostics`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	issues := 0
	report := systemReport(b)

	ui.HeaderMsg("System")
	if report.Distribution == "" {
		ui.ErrorMsg("System detection failed")
		issues++
	} else if !report.ArchFamily {
		ui.WarningMsg("%s is not an Arch Linux based system", report.Distribution)
		issues++
	} else {
		ui.SuccessMsg("System detected: %s (%s)", report.Distribution, report.Architecture)
	}

	ui.HeaderMsg("Package Managers")
	if report.Native == "" {
		ui.ErrorMsg("pacman not found")
		issues++
	} else {
		ui.SuccessMsg("Native package manager: %s", report.Native)
	}
	if report.AURHelper == "" {
		ui.WarningMsg("No AUR helper found (install yay or paru for AUR support)")
	} else {
		ui.SuccessMsg("AUR helper available: %s", report.AURHelper)
	}

	if err := executor.CheckPrivileges(cfg.General.Elevate, !report.Root); err != nil {
		ui.ErrorMsg("%v", err)
		issues++
	} else if !report.Root {
		ui.SuccessMsg("Elevation through %s", cfg.General.Elevate)
	}

	ui.HeaderMsg("Databases")
	pkgs, err := b.GetInstalledPackages()
	switch {
	case errors.Is(err, bridge.ErrNoInstalled):
		ui.WarningMsg("Local database is empty")
		issues++
	case err != nil:
		ui.ErrorMsg("Cannot read the local database: %v", err)
		issues++
	default:
		ui.SuccessMsg("%d packages installed", len(pkgs))
	}

	if b.HasAUR() {
		aurResults := 0
		for _, p := range b.SearchPackage("pacman") {
			if p.IsAUR() {
				aurResults++
			}
		}
		if aurResults == 0 {
			ui.WarningMsg("AUR search returned no results; check aur.base_url and the network")
			issues++
		} else {
			ui.SuccessMsg("AUR search works")
		}
	}

	ui.HeaderMsg("Configuration")
	path := cfgFile
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		ui.MutedMsg("No config file at %s; using defaults", path)
	} else {
		ui.SuccessMsg("Config file: %s", path)
	}

	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found! archpm is ready to use.")
	} else {
		ui.WarningMsg("Found %d issue(s). Some features may not work correctly.", issues)
	}

	return nil
}
