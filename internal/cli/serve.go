package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"archpm/internal/server"
	"archpm/internal/ui"

	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over HTTP",
	Long: `Serve the package operations as a JSON API for web and desktop
front ends.

The listen address comes from --listen, then ARCHPM_LISTEN (also read
from a .env file in the working directory), then server.listen.

Examples:
  archpm serve                        # Listen on the configured address
  archpm serve --listen :8642         # Listen on all interfaces`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	bindContext(ctx, b)

	addr := serveListen
	if addr == "" {
		addr = server.ListenAddr(cfg.Server.Listen)
	}

	var hist server.HistorySource
	if store, err := getHistory(); err != nil {
		ui.WarningMsg("Could not open history: %v", err)
	} else {
		hist = store
	}

	srv := server.New(b, hist, logger)
	ui.InfoMsg("Listening on %s", addr)
	return srv.Serve(ctx, addr)
}

// bindContext cancels bridge calls when ctx ends.
func bindContext(ctx context.Context, b Backend) {
	if s, ok := b.(interface{ Startup(context.Context) }); ok {
		s.Startup(ctx)
	}
}
