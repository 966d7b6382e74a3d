package cli

import (
	"fmt"
	"time"

	"archpm/internal/history"
	"archpm/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyPackage string
	historyClear   bool
	historyPrune   time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show operation history",
	Long: `Display the history of transactions run through archpm, newest first.

Examples:
  archpm history              # Show recent history
  archpm history -l 20        # Show last 20 operations
  archpm history -p firefox   # Operations that touched firefox
  archpm history --prune 720h # Drop entries older than 30 days`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().StringVarP(&historyPackage, "package", "p", "", "only entries involving this package")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all entries")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete entries older than this")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	switch {
	case historyClear:
		if err := confirm("Delete all history entries?", false); err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		ui.SuccessMsg("History cleared")
		return nil
	case historyPrune > 0:
		removed, err := store.Prune(historyPrune)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		ui.SuccessMsg("Removed %d entries older than %s", removed, historyPrune)
		return nil
	}

	var entries []history.Entry
	if historyPackage != "" {
		entries, err = store.ForPackage(historyPackage, historyLimit)
	} else {
		entries, err = store.List(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if f := format(); f != ui.FormatTable {
		if entries == nil {
			entries = []history.Entry{}
		}
		return ui.Encode(cmd.OutOrStdout(), f, entries)
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	if err := ui.PrintHistory(cmd.OutOrStdout(), entries); err != nil {
		return err
	}

	total, _ := store.Count()
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)

	return nil
}
