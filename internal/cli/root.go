// Package cli implements the command-line interface for archpm.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"archpm/internal/config"
	"archpm/internal/executor"
	"archpm/internal/history"
	"archpm/internal/server"
	"archpm/internal/ui"
	"archpm/pkg/alpmdb"
	"archpm/pkg/aur"
	"archpm/pkg/bridge"
	"archpm/pkg/database"
	"archpm/pkg/manager"
	"archpm/pkg/manager/native"
	"archpm/pkg/manager/universal"

	"github.com/spf13/cobra"
)

// Backend is the bridge as seen by the commands.
type Backend interface {
	server.Backend
	HasAUR() bool
	Registry() *manager.Registry
	WaitForState(ctx context.Context, name string, installed bool, interval time.Duration) error
}

var (
	// Global flags
	cfgFile      string
	dryRun       bool
	yes          bool
	verbose      bool
	noColor      bool
	outputFormat string

	// Global state
	cfg     *config.Config
	logger  *log.Logger
	backend Backend
	store   *history.Store

	// openBackend builds the bridge on first use.
	openBackend = openBridge
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "archpm",
	Short: "Package manager front end for Arch Linux",
	Long: `archpm searches, installs and upgrades packages from the Arch Linux
repositories and the AUR through one set of commands, a terminal UI
and a local HTTP API.

Repository packages are installed with pacman; AUR packages go through
an AUR helper (yay, paru, ...) when one is installed.

Examples:
  archpm search firefox            # Search the repositories and the AUR
  archpm install vlc               # Install from the best source
  archpm updates                   # List available updates
  archpm upgrade                   # Upgrade the whole system
  archpm tui                       # Interactive interface`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (table, json, yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(featuredCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
}

// Execute runs the root command.
func Execute() error {
	defer shutdown()

	err := rootCmd.Execute()
	if err != nil {
		ui.ErrorMsg("%v", err)
	}
	return err
}

// initializeApp loads the configuration and applies the global flags.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if _, err := ui.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}

	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)

	logger = log.New(io.Discard, "", 0)
	if cfg.Output.Verbose {
		logger = log.New(os.Stderr, "archpm: ", log.Ltime)
	}

	return nil
}

// getBackend returns the bridge, building it on first use.
func getBackend() (Backend, error) {
	if backend != nil {
		return backend, nil
	}
	b, err := openBackend()
	if err != nil {
		return nil, err
	}
	backend = b
	return backend, nil
}

// openBridge wires the databases, the AUR and the transaction managers.
func openBridge() (Backend, error) {
	exec := executor.New(executor.Options{
		Elevate: cfg.General.Elevate,
		DryRun:  cfg.General.DryRun,
		Verbose: cfg.Output.Verbose,
		Logger:  logger,
	})

	registry := manager.NewRegistry(cfg.General.SourcePriority)
	registry.Register(native.NewPacman(exec))
	if helper := universal.NewAUR(cfg.General.AURHelper, exec); helper != nil {
		registry.Register(helper)
	}

	db := alpmdb.New(alpmdb.Options{
		PacmanConf:    cfg.General.PacmanConf,
		FallbackRepos: cfg.General.FallbackRepos,
	}, logger)

	opts := bridge.Options{
		Database: db,
		Registry: registry,
		Logger:   logger,
		DryRun:   cfg.General.DryRun,
	}

	client := aur.NewClientWithOptions(cfg.AUR.BaseURL, cfg.AUR.Timeout.Duration)
	if cache, err := database.Open(); err != nil {
		logger.Printf("aur cache disabled: %v", err)
		opts.Remote = client
	} else {
		opts.Closers = append(opts.Closers, cache)
		opts.Remote = database.NewCachedRemote(client, cache, cfg.AUR.CacheTTL.Duration, logger)
	}

	if hist, err := getHistory(); err != nil {
		logger.Printf("history disabled: %v", err)
	} else {
		opts.History = hist
	}

	return bridge.New(opts), nil
}

// getHistory opens the history store on first use.
func getHistory() (*history.Store, error) {
	if store != nil {
		return store, nil
	}
	s, err := history.Open()
	if err != nil {
		return nil, err
	}
	store = s
	return store, nil
}

// shutdown releases the bridge and the history store.
func shutdown() {
	if s, ok := backend.(interface{ Shutdown(context.Context) }); ok {
		s.Shutdown(context.Background())
	}
	if store != nil {
		if err := store.Close(); err != nil && logger != nil {
			logger.Printf("history: %v", err)
		}
	}
	backend = nil
	store = nil
}

// format returns the output format selected by --output or the config.
func format() ui.Format {
	f, err := ui.ParseFormat(cfg.Output.Format)
	if err != nil {
		return ui.FormatTable
	}
	return f
}

// confirm asks before a transaction unless --yes or --dry-run is set.
func confirm(prompt string, defaultYes bool) error {
	if cfg.General.AutoConfirm || cfg.General.DryRun {
		return nil
	}
	confirmed, err := ui.Confirm(prompt, defaultYes)
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrAborted
	}
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print archpm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "archpm version %s\n", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}

var _ Backend = (*bridge.App)(nil)
