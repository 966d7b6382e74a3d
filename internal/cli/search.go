package cli

import (
	"errors"
	"fmt"
	"strings"

	"archpm/internal/ui"
	"archpm/pkg/bridge"
	"archpm/pkg/manager"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchSelect bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for packages",
	Long: `Search the sync repositories and the AUR for packages whose name
contains the query. Results are ordered by repository priority
(see general.source_priority), then by name.

Queries shorter than two characters only search the repositories.

Examples:
  archpm search firefox           # Search repositories and the AUR
  archpm search -l 10 editor      # Limit to 10 results
  archpm search -i vscode         # Pick a result and install it
  archpm search -o json vlc       # Machine-readable output`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "limit results (0 = no limit)")
	searchCmd.Flags().BoolVarP(&searchSelect, "interactive", "i", false, "select a result to install")
}

func runSearch(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")

	var results []manager.PackageInfo
	_ = ui.WithSpinner(fmt.Sprintf("Searching for '%s'...", query), func() error {
		results = b.SearchPackage(query)
		return nil
	})

	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if f := format(); f != ui.FormatTable {
		return ui.Encode(cmd.OutOrStdout(), f, results)
	}

	if len(results) == 0 {
		ui.InfoMsg("No packages found matching '%s'", query)
		return nil
	}

	if err := ui.PrintPackages(cmd.OutOrStdout(), results, installedSet(b)); err != nil {
		return err
	}

	if searchSelect {
		return offerInstall(b, results)
	}
	return nil
}

// offerInstall offers to install a selected package.
func offerInstall(b Backend, results []manager.PackageInfo) error {
	pkg, err := ui.SelectPackage(results, "Select a package to install")
	if err != nil || pkg == nil {
		return nil
	}

	if err := confirm(fmt.Sprintf("Install %s from %s?", pkg.Name, pkg.Repository), true); err != nil {
		if errors.Is(err, ErrAborted) {
			return nil
		}
		return err
	}
	return installPackage(b, pkg.Name)
}

// installedSet reads the local database once for table rendering.
func installedSet(b Backend) func(string) bool {
	pkgs, err := b.GetInstalledPackages()
	if err != nil && !errors.Is(err, bridge.ErrNoInstalled) {
		logger.Printf("installed packages: %v", err)
	}

	set := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		set[p.Name] = true
	}
	return func(name string) bool {
		return set[name]
	}
}
