package cli

import (
	"errors"
	"strings"

	"archpm/internal/ui"
	"archpm/pkg/bridge"
	"archpm/pkg/manager"

	"github.com/spf13/cobra"
)

var (
	listLimit   int
	listPattern string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List every package in the local database, sorted by name.

Examples:
  archpm list                     # List all installed packages
  archpm list -l 20               # List first 20 packages
  archpm list -p python           # List packages matching 'python'`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "limit number of results")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "filter by name pattern")
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	pkgs, err := b.GetInstalledPackages()
	if errors.Is(err, bridge.ErrNoInstalled) {
		ui.InfoMsg("No installed packages found")
		return nil
	}
	if err != nil {
		return err
	}

	pattern := strings.ToLower(listPattern)
	installed := make([]manager.InstalledPackage, 0, len(pkgs))
	for _, p := range pkgs {
		if pattern != "" && !strings.Contains(strings.ToLower(p.Name), pattern) {
			continue
		}
		installed = append(installed, p.Installed())
		if listLimit > 0 && len(installed) == listLimit {
			break
		}
	}

	if f := format(); f != ui.FormatTable {
		return ui.Encode(cmd.OutOrStdout(), f, installed)
	}

	if err := ui.PrintInstalled(cmd.OutOrStdout(), installed); err != nil {
		return err
	}
	ui.MutedMsg("\nTotal: %d packages", len(installed))

	return nil
}
