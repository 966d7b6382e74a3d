// Package bridge exposes the package-management operations used by the
// interactive surfaces. Every call reads fresh system state; results are
// snapshots that callers discard on the next call.
package bridge

import (
	"context"
	"io"
	"log"
	"sync"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

// Recorder persists transaction history.
type Recorder interface {
	Record(entry *history.Entry) error
}

// Options configures an App.
type Options struct {
	Database manager.Database
	Remote   manager.Remote // nil disables the AUR
	Registry *manager.Registry
	History  Recorder // nil disables history

	Logger *log.Logger
	DryRun bool

	// Closers are closed by Shutdown, in order.
	Closers []io.Closer
}

// App is the bridge between the surfaces and the package databases.
type App struct {
	db       manager.Database
	remote   manager.Remote
	registry *manager.Registry
	history  Recorder
	logger   *log.Logger
	dryRun   bool
	closers  []io.Closer

	ctxMu sync.RWMutex
	ctx   context.Context

	txMu      sync.Mutex // pacman holds a database lock; one transaction at a time
	pendingMu sync.Mutex
	pending   map[string]PendingOp
}

// New creates an App. Database and Registry are required.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	registry := opts.Registry
	if registry == nil {
		registry = manager.NewRegistry(nil)
	}

	return &App{
		db:       opts.Database,
		remote:   opts.Remote,
		registry: registry,
		history:  opts.History,
		logger:   logger,
		dryRun:   opts.DryRun,
		closers:  opts.Closers,
		ctx:      context.Background(),
		pending:  make(map[string]PendingOp),
	}
}

// Startup stores the context used to cancel bridge calls.
func (a *App) Startup(ctx context.Context) {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	a.ctx = ctx
}

// Shutdown closes the resources owned by the App.
func (a *App) Shutdown(_ context.Context) {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Printf("shutdown: %v", err)
		}
	}
	a.closers = nil
}

// Registry returns the transaction managers.
func (a *App) Registry() *manager.Registry {
	return a.registry
}

// HasAUR reports whether AUR queries are enabled.
func (a *App) HasAUR() bool {
	return a.remote != nil
}

func (a *App) context() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	return a.ctx
}
