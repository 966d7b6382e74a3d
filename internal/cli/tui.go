package cli

import (
	"context"

	"archpm/internal/tui"
	"archpm/internal/ui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal user interface",
	Long: `Launch the interactive terminal user interface (TUI) for archpm.

The TUI provides a visual way to:
  - Browse featured and installed packages
  - Search the repositories and the AUR
  - View package details and dependencies
  - Install, remove and update packages
  - View operation history

Navigation:
  - Use arrow keys or j/k to navigate
  - Press 1-5 to switch tabs
  - Press / to search
  - Press i to install, r to remove, u to update
  - Press ? for help
  - Press q to quit`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bindContext(ctx, b)

	var hist tui.HistorySource
	if store, err := getHistory(); err != nil {
		ui.WarningMsg("Could not open history: %v", err)
	} else {
		hist = store
	}

	return tui.Run(b, hist, tui.Options{
		Featured:      cfg.Featured.Packages,
		PollInstalled: cfg.Poll.Installed.Duration,
		PollCheck:     cfg.Poll.Check.Duration,
		PollUpdates:   cfg.Poll.Updates.Duration,
	})
}
