package cli

import (
	"fmt"
	"strconv"

	"archpm/internal/ui"
	"archpm/pkg/manager"

	"github.com/spf13/cobra"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List available updates",
	Long: `List installed packages with a newer version in the sync
repositories or the AUR, with the total download size.

Examples:
  archpm updates                  # Table of updates
  archpm updates -o json          # Machine-readable output`,
	RunE: runUpdates,
}

var sizeCmd = &cobra.Command{
	Use:   "size [bytes...]",
	Short: "Format byte counts with binary units",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSize,
}

func runUpdates(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	var updates []manager.UpdateInfo
	err = ui.WithSpinner("Checking for updates...", func() error {
		var err error
		updates, err = b.GetAvailableUpdates()
		return err
	})
	if err != nil {
		return err
	}

	if f := format(); f != ui.FormatTable {
		return ui.Encode(cmd.OutOrStdout(), f, updates)
	}
	return ui.PrintUpdates(cmd.OutOrStdout(), updates, b.HumanReadableSize)
}

func runSize(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid byte count %q", arg)
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.HumanReadableSize(n))
	}
	return nil
}
