package bridge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

// upgradeAllKey marks a pending full system upgrade.
const upgradeAllKey = "*"

// PendingOp is an in-flight transaction.
type PendingOp struct {
	Name      string            `json:"name"`
	Operation history.Operation `json:"operation"`
	Started   time.Time         `json:"started"`
}

// invalidator is implemented by remotes that cache package info.
type invalidator interface {
	Invalidate(names ...string)
}

// Install installs a package. Sync repository packages go through the native
// manager; anything else is handed to the AUR helper.
func (a *App) Install(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return a.transact(history.OpInstall, name, func(ctx context.Context) (manager.Manager, error) {
		mgr, err := a.managerFor(ctx, name)
		if err != nil {
			return nil, err
		}
		return mgr, mgr.Install(ctx, []string{name}, manager.InstallOpts{
			AutoConfirm: true,
			DryRun:      a.dryRun,
		})
	})
}

// Uninstall removes a package without checking whether other packages
// depend on it (pacman -Rdd).
func (a *App) Uninstall(name string) error {
	return a.uninstall(name, false)
}

// UninstallPackage removes a package together with the dependencies that
// are no longer required.
func (a *App) UninstallPackage(name string) error {
	return a.uninstall(name, true)
}

func (a *App) uninstall(name string, recursive bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return a.transact(history.OpUninstall, name, func(ctx context.Context) (manager.Manager, error) {
		mgr := a.registry.Native()
		if mgr == nil {
			mgr = a.registry.AUR()
		}
		if mgr == nil {
			return nil, ErrNoManager
		}
		return mgr, mgr.Uninstall(ctx, []string{name}, manager.UninstallOpts{
			AutoConfirm: true,
			DryRun:      a.dryRun,
			Recursive:   recursive,
			NoDeps:      !recursive,
		})
	})
}

// UpdateSinglePkg upgrades one package through the manager that owns it.
func (a *App) UpdateSinglePkg(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return a.transact(history.OpUpdate, name, func(ctx context.Context) (manager.Manager, error) {
		mgr, err := a.managerFor(ctx, name)
		if err != nil {
			return nil, err
		}
		return mgr, mgr.Upgrade(ctx, manager.UpgradeOpts{
			AutoConfirm: true,
			DryRun:      a.dryRun,
			Packages:    []string{name},
		})
	})
}

// UpdateAllPkg performs a full system upgrade. The AUR helper is preferred
// since it upgrades repository and AUR packages in one run.
func (a *App) UpdateAllPkg() error {
	return a.transact(history.OpUpgrade, upgradeAllKey, func(ctx context.Context) (manager.Manager, error) {
		mgr := a.registry.AUR()
		if mgr == nil {
			mgr = a.registry.Native()
		}
		if mgr == nil {
			return nil, ErrNoManager
		}
		return mgr, mgr.Upgrade(ctx, manager.UpgradeOpts{
			AutoConfirm: true,
			DryRun:      a.dryRun,
		})
	})
}

// Pending returns the in-flight transactions, oldest first.
func (a *App) Pending() []PendingOp {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()

	ops := make([]PendingOp, 0, len(a.pending))
	for _, op := range a.pending {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].Started.Equal(ops[j].Started) {
			return ops[i].Started.Before(ops[j].Started)
		}
		return ops[i].Name < ops[j].Name
	})
	return ops
}

// IsPending reports whether a transaction for name is in flight. A pending
// full upgrade counts for every package.
func (a *App) IsPending(name string) bool {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	_, ok := a.pending[name]
	if !ok {
		_, ok = a.pending[upgradeAllKey]
	}
	return ok
}

// managerFor picks pacman for sync repository packages and the AUR helper
// otherwise.
func (a *App) managerFor(ctx context.Context, name string) (manager.Manager, error) {
	pkg, err := a.db.SyncLookup(ctx, name)
	if err != nil {
		a.logger.Printf("sync lookup %s: %v", name, err)
	}
	repository := manager.RepoAUR
	if pkg != nil {
		repository = pkg.Repository
	}

	mgr, err := a.registry.ForSource(repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoManager, name, err)
	}
	return mgr, nil
}

// transact runs fn as the only transaction in flight, recording it in the
// history and marking key pending for its duration.
func (a *App) transact(op history.Operation, key string, fn func(ctx context.Context) (manager.Manager, error)) error {
	if !a.markPending(key, op) {
		return ErrBusy
	}
	defer a.clearPending(key)

	a.txMu.Lock()
	defer a.txMu.Unlock()

	var packages []string
	if key != upgradeAllKey {
		packages = []string{key}
	}

	mgr, err := fn(a.context())
	if mgr == nil {
		// nothing ran
		return err
	}

	a.record(op, mgr.Name(), packages, err)
	if c, ok := a.remote.(invalidator); ok && err == nil && len(packages) > 0 {
		c.Invalidate(packages...)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, describe(key), err)
	}
	return nil
}

func (a *App) record(op history.Operation, source string, packages []string, err error) {
	if a.history == nil {
		return
	}
	entry := history.NewEntry(op, source, packages)
	entry.DryRun = a.dryRun
	entry.Finish(err)
	if recErr := a.history.Record(entry); recErr != nil {
		a.logger.Printf("failed to record history: %v", recErr)
	}
}

// markPending claims key. A full upgrade excludes every other transaction,
// in both directions.
func (a *App) markPending(key string, op history.Operation) bool {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	if _, busy := a.pending[key]; busy {
		return false
	}
	if _, busy := a.pending[upgradeAllKey]; busy {
		return false
	}
	if key == upgradeAllKey && len(a.pending) > 0 {
		return false
	}
	a.pending[key] = PendingOp{Name: key, Operation: op, Started: time.Now()}
	return true
}

func (a *App) clearPending(key string) {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	delete(a.pending, key)
}

func describe(key string) string {
	if key == upgradeAllKey {
		return "system"
	}
	return key
}
