package cli

import (
	"fmt"

	"archpm/internal/ui"
	"archpm/pkg/manager"

	"github.com/spf13/cobra"
)

// packageDetails is the info output of one package.
type packageDetails struct {
	manager.PackageInfo `yaml:",inline"`
	Installed           bool `json:"installed" yaml:"installed"`
}

var infoCmd = &cobra.Command{
	Use:   "info [packages...]",
	Short: "Show package information",
	Long: `Display detailed information about packages. Each package is looked
up in the sync repositories first, then in the AUR.

Examples:
  archpm info vim                 # Show info for one package
  archpm info firefox yay         # Several at once
  archpm info -o yaml vlc         # YAML output`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

var checkCmd = &cobra.Command{
	Use:   "check [package]",
	Short: "Check whether a package is installed",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var featuredCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show the featured packages",
	Long: `Show the packages listed under [featured] in the configuration,
with their current version and install state.`,
	RunE: runFeatured,
}

func runInfo(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	pkgs, err := b.GetMultiplePackageInfo(args)
	if err != nil {
		return err
	}

	details := make([]packageDetails, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Repository == manager.RepoUnknown {
			ui.WarningMsg("%s: %v", p.Name, ErrPackageNotFound)
			continue
		}
		details = append(details, packageDetails{
			PackageInfo: p,
			Installed:   b.CheckPackageInstalled(p.Name),
		})
	}
	if len(details) == 0 {
		return ErrPackageNotFound
	}

	if f := format(); f != ui.FormatTable {
		if len(details) == 1 {
			return ui.Encode(cmd.OutOrStdout(), f, details[0])
		}
		return ui.Encode(cmd.OutOrStdout(), f, details)
	}

	for i, d := range details {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		ui.PrintPackageInfo(cmd.OutOrStdout(), d.PackageInfo, d.Installed)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	name := args[0]
	installed, err := b.SearchLocalPackage(name)
	if err != nil {
		return err
	}

	if f := format(); f != ui.FormatTable {
		return ui.Encode(cmd.OutOrStdout(), f, map[string]interface{}{
			"name":      name,
			"installed": installed,
		})
	}

	if installed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is installed\n", ui.Green(ui.SymbolSuccess), name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is not installed\n", ui.Red(ui.SymbolError), name)
	}
	return nil
}

func runFeatured(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	var pkgs []manager.PackageInfo
	err = ui.WithSpinner("Loading featured packages...", func() error {
		var err error
		pkgs, err = b.GetMultiplePackageInfo(cfg.Featured.Packages)
		return err
	})
	if err != nil {
		return err
	}

	if f := format(); f != ui.FormatTable {
		return ui.Encode(cmd.OutOrStdout(), f, pkgs)
	}
	return ui.PrintPackages(cmd.OutOrStdout(), pkgs, installedSet(b))
}
