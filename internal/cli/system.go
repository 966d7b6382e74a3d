package cli

import (
	"archpm/internal/executor"
	"archpm/internal/ui"
	"archpm/pkg/manager/detector"

	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show system information",
	Long: `Display the detected distribution, desktop environment, package
manager, AUR helper and elevation program.

Examples:
  archpm system               # Show system info
  archpm system -o json       # Machine-readable output`,
	RunE: runSystem,
}

func runSystem(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	report := systemReport(b)

	if f := format(); f != ui.FormatTable {
		return ui.Encode(cmd.OutOrStdout(), f, report)
	}
	ui.PrintSystemInfo(cmd.OutOrStdout(), report)
	return nil
}

// systemReport collects what the system and doctor commands show.
func systemReport(b Backend) ui.SystemReport {
	report := ui.SystemReport{
		Elevate:    cfg.General.Elevate,
		CanElevate: executor.CanElevate(cfg.General.Elevate),
		Root:       executor.IsRoot(),
	}

	sysInfo, err := detector.Detect()
	if err != nil {
		logger.Printf("system detection: %v", err)
	}
	if sysInfo != nil {
		report.Distribution = sysInfo.PrettyName
		if report.Distribution == "" {
			report.Distribution = sysInfo.Distribution
		}
		report.ArchFamily = sysInfo.IsArchFamily()
		report.Architecture = sysInfo.Arch
		report.Desktop = sysInfo.Desktop
	}

	if mgr := b.Registry().Native(); mgr != nil {
		report.Native = mgr.DisplayName()
	}
	if mgr := b.Registry().AUR(); mgr != nil {
		report.AURHelper = mgr.DisplayName()
	}

	return report
}
