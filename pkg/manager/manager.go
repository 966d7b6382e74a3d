package manager

import "context"

// Manager defines the interface that transaction managers must implement.
// Queries go through Database and Remote; a Manager only changes the system.
type Manager interface {
	// Name returns the short identifier for this manager (e.g., "pacman", "aur").
	Name() string

	// DisplayName returns a human-readable name (e.g., "Pacman (Arch Linux)").
	DisplayName() string

	// Type returns the category of this manager.
	Type() ManagerType

	// IsAvailable returns true if this package manager is installed and usable.
	IsAvailable() bool

	// NeedsSudo returns true if this manager requires root privileges.
	NeedsSudo() bool

	// Install installs one or more packages.
	Install(ctx context.Context, packages []string, opts InstallOpts) error

	// Uninstall removes one or more packages.
	Uninstall(ctx context.Context, packages []string, opts UninstallOpts) error

	// Upgrade upgrades installed packages to their latest versions.
	Upgrade(ctx context.Context, opts UpgradeOpts) error
}

// Database reads the local and sync package databases.
type Database interface {
	// Installed returns every package in the local database.
	Installed(ctx context.Context) ([]PackageInfo, error)

	// Lookup returns the installed package with exactly this name, or nil.
	Lookup(ctx context.Context, name string) (*PackageInfo, error)

	// SyncLookup returns the sync repository package with exactly this name, or nil.
	SyncLookup(ctx context.Context, name string) (*PackageInfo, error)

	// SearchRepos returns sync repository packages whose name contains query
	// (case-insensitive).
	SearchRepos(ctx context.Context, query string) ([]PackageInfo, error)

	// RepoUpdates returns installed packages with a newer sync version.
	RepoUpdates(ctx context.Context) ([]UpdateInfo, error)

	// Foreign returns installed packages that are not in any sync repository.
	Foreign(ctx context.Context) ([]InstalledPackage, error)

	// VerCmp compares two package versions like vercmp(8).
	VerCmp(a, b string) int
}

// Remote queries a remote package index (the AUR).
type Remote interface {
	// Search returns packages matching query by name or description.
	Search(ctx context.Context, query string) ([]PackageInfo, error)

	// Info returns detailed information for the named packages. Unknown
	// names are omitted from the result.
	Info(ctx context.Context, names ...string) ([]PackageInfo, error)
}
