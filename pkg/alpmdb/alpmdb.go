// Package alpmdb reads the local and sync pacman databases through libalpm.
package alpmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"archpm/pkg/manager"

	alpm "github.com/Jguer/go-alpm/v2"
	pacmanconf "github.com/Morganamilo/go-pacmanconf"
)

const (
	defaultRoot   = "/"
	defaultDBPath = "/var/lib/pacman"
)

// errStop ends a ForEach walk early.
var errStop = errors.New("stop")

// Options configures where the databases are found.
type Options struct {
	// PacmanConf is parsed for the root, the database path and the repositories.
	PacmanConf string

	// FallbackRepos are registered when PacmanConf cannot be parsed.
	FallbackRepos []string
}

// DB implements manager.Database. Every query opens a fresh handle so results
// reflect transactions that ran since the previous query.
type DB struct {
	opts   Options
	logger *log.Logger
}

// New creates a database reader. A nil logger discards messages.
func New(opts Options, logger *log.Logger) *DB {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DB{opts: opts, logger: logger}
}

type repo struct {
	name    string
	servers []string
}

// layout resolves the root, the database path and the sync repositories.
func (d *DB) layout() (root, dbpath string, repos []repo) {
	root, dbpath = defaultRoot, defaultDBPath

	if d.opts.PacmanConf != "" {
		conf, _, err := pacmanconf.ParseFile(d.opts.PacmanConf)
		if err == nil {
			if conf.RootDir != "" {
				root = conf.RootDir
			}
			if conf.DBPath != "" {
				dbpath = conf.DBPath
			}
			for _, r := range conf.Repos {
				repos = append(repos, repo{name: r.Name, servers: r.Servers})
			}
			return root, dbpath, repos
		}
		d.logger.Printf("failed to parse %s, using fallback repositories: %v", d.opts.PacmanConf, err)
	}

	for _, name := range d.opts.FallbackRepos {
		repos = append(repos, repo{name: name})
	}
	return root, dbpath, repos
}

// with opens a handle, registers the sync databases and runs fn.
func (d *DB) with(ctx context.Context, fn func(local alpm.IDB, sync alpm.IDBList) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root, dbpath, repos := d.layout()

	h, err := alpm.Initialize(root, dbpath)
	if err != nil {
		return fmt.Errorf("failed to initialize alpm: %w", err)
	}
	defer h.Release()

	for _, r := range repos {
		db, err := h.RegisterSyncDB(r.name, 0)
		if err != nil {
			d.logger.Printf("failed to register sync db %s: %v", r.name, err)
			continue
		}
		if len(r.servers) > 0 {
			db.SetServers(r.servers)
		}
	}

	local, err := h.LocalDB()
	if err != nil {
		return fmt.Errorf("failed to get local DB: %w", err)
	}

	syncDBs, err := h.SyncDBs()
	if err != nil {
		return fmt.Errorf("failed to get sync DBs: %w", err)
	}

	return fn(local, syncDBs)
}

// Installed implements manager.Database.
func (d *DB) Installed(ctx context.Context) ([]manager.PackageInfo, error) {
	var packages []manager.PackageInfo

	err := d.with(ctx, func(local alpm.IDB, syncDBs alpm.IDBList) error {
		return local.PkgCache().ForEach(func(pkg alpm.IPackage) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			packages = append(packages, toPackageInfo(pkg, syncRepo(syncDBs, pkg.Name())))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return packages, nil
}

// Lookup implements manager.Database.
func (d *DB) Lookup(ctx context.Context, name string) (*manager.PackageInfo, error) {
	var info *manager.PackageInfo

	err := d.with(ctx, func(local alpm.IDB, syncDBs alpm.IDBList) error {
		pkg := local.Pkg(name)
		if pkg == nil {
			return nil
		}
		p := toPackageInfo(pkg, syncRepo(syncDBs, pkg.Name()))
		info = &p
		return nil
	})

	return info, err
}

// SyncLookup implements manager.Database.
func (d *DB) SyncLookup(ctx context.Context, name string) (*manager.PackageInfo, error) {
	var info *manager.PackageInfo

	err := d.with(ctx, func(_ alpm.IDB, syncDBs alpm.IDBList) error {
		err := syncDBs.ForEach(func(db alpm.IDB) error {
			if pkg := db.Pkg(name); pkg != nil {
				p := toPackageInfo(pkg, db.Name())
				info = &p
				return errStop
			}
			return nil
		})
		if errors.Is(err, errStop) {
			return nil
		}
		return err
	})

	return info, err
}

// SearchRepos implements manager.Database.
func (d *DB) SearchRepos(ctx context.Context, query string) ([]manager.PackageInfo, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	var results []manager.PackageInfo

	err := d.with(ctx, func(_ alpm.IDB, syncDBs alpm.IDBList) error {
		return syncDBs.ForEach(func(db alpm.IDB) error {
			return db.PkgCache().ForEach(func(pkg alpm.IPackage) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if strings.Contains(strings.ToLower(pkg.Name()), query) {
					results = append(results, toPackageInfo(pkg, db.Name()))
				}
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// RepoUpdates implements manager.Database.
func (d *DB) RepoUpdates(ctx context.Context) ([]manager.UpdateInfo, error) {
	var updates []manager.UpdateInfo

	err := d.with(ctx, func(local alpm.IDB, syncDBs alpm.IDBList) error {
		return local.PkgCache().ForEach(func(pkg alpm.IPackage) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			newPkg := pkg.SyncNewVersion(syncDBs)
			if newPkg == nil {
				return nil
			}
			updates = append(updates, manager.UpdateInfo{
				Name:         pkg.Name(),
				OldVersion:   pkg.Version(),
				NewVersion:   newPkg.Version(),
				Repository:   newPkg.DB().Name(),
				DownloadSize: newPkg.Size(),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return updates, nil
}

// Foreign implements manager.Database.
func (d *DB) Foreign(ctx context.Context) ([]manager.InstalledPackage, error) {
	var foreign []manager.InstalledPackage

	err := d.with(ctx, func(local alpm.IDB, syncDBs alpm.IDBList) error {
		return local.PkgCache().ForEach(func(pkg alpm.IPackage) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if syncRepo(syncDBs, pkg.Name()) != manager.RepoLocal {
				return nil
			}
			foreign = append(foreign, toPackageInfo(pkg, manager.RepoLocal).Installed())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return foreign, nil
}

// VerCmp implements manager.Database.
func (d *DB) VerCmp(a, b string) int {
	return alpm.VerCmp(a, b)
}

// syncRepo returns the first sync repository that carries name, or
// manager.RepoLocal for foreign packages.
func syncRepo(syncDBs alpm.IDBList, name string) string {
	repoName := manager.RepoLocal
	_ = syncDBs.ForEach(func(db alpm.IDB) error { //nolint:errcheck
		if db.Pkg(name) != nil {
			repoName = db.Name()
			return errStop
		}
		return nil
	})
	return repoName
}

func toPackageInfo(pkg alpm.IPackage, repository string) manager.PackageInfo {
	var deps []string
	_ = pkg.Depends().ForEach(func(dep *alpm.Depend) error { //nolint:errcheck
		deps = append(deps, dep.Name)
		return nil
	})

	return manager.PackageInfo{
		Name:        pkg.Name(),
		Version:     pkg.Version(),
		Description: pkg.Description(),
		Repository:  repository,
		Maintainer:  pkg.Packager(),
		UpstreamURL: pkg.URL(),
		DependList:  manager.DependNames(deps),
		LastUpdated: manager.FormatTime(pkg.BuildDate()),
	}
}
