// Package manager provides the core package types and the transaction manager
// abstraction shared by the bridge and its surfaces.
package manager

import (
	"strings"
	"time"
)

// ManagerType represents the category of package manager.
type ManagerType string

const (
	// TypeNative represents the system package manager (pacman).
	TypeNative ManagerType = "native"
	// TypeAUR represents Arch User Repository helpers (yay, paru)
	TypeAUR ManagerType = "aur"
)

// Well-known repository names.
const (
	RepoAUR     = "AUR"
	RepoUnknown = "unknown"
	RepoLocal   = "local"
)

// LastUpdatedLayout is the layout used for every lastupdated field.
const LastUpdatedLayout = "Jan. 2, 2006, 3:04 PM MST"

// PackageInfo describes a package from a sync repository, the local
// database or the AUR.
type PackageInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description" yaml:"description"`
	Repository  string   `json:"repository" yaml:"repository"`
	Maintainer  string   `json:"maintainer" yaml:"maintainer"`
	UpstreamURL string   `json:"upstreamurl" yaml:"upstreamurl"`
	DependList  []string `json:"dependlist" yaml:"dependlist"`
	LastUpdated string   `json:"lastupdated" yaml:"lastupdated"`

	// AUR only: when the package was flagged out of date, and whether it
	// has lost its maintainer.
	OutOfDate string `json:"outofdate,omitempty" yaml:"outofdate,omitempty"`
	Orphan    bool   `json:"orphan,omitempty" yaml:"orphan,omitempty"`
}

// InstalledPackage is the summary shown in installed package listings.
type InstalledPackage struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Repository  string `json:"repository" yaml:"repository"`
	LastUpdated string `json:"lastupdated" yaml:"lastupdated"`
}

// Installed projects the package onto its installed summary.
func (p PackageInfo) Installed() InstalledPackage {
	return InstalledPackage{
		Name:        p.Name,
		Version:     p.Version,
		Repository:  p.Repository,
		LastUpdated: p.LastUpdated,
	}
}

// IsAUR reports whether the package comes from the AUR.
func (p PackageInfo) IsAUR() bool {
	return strings.EqualFold(p.Repository, RepoAUR)
}

// UpdateInfo describes an available upgrade for an installed package.
type UpdateInfo struct {
	Name         string `json:"name" yaml:"name"`
	OldVersion   string `json:"oldVersion" yaml:"oldVersion"`
	NewVersion   string `json:"newVersion" yaml:"newVersion"`
	Repository   string `json:"repository" yaml:"repository"`
	DownloadSize int64  `json:"downloadSize" yaml:"downloadSize"`
}

// InstallOpts contains options for package installation.
type InstallOpts struct {
	AutoConfirm bool // Pass --noconfirm
	DryRun      bool // Show what would happen without executing
}

// UninstallOpts contains options for package removal.
type UninstallOpts struct {
	AutoConfirm bool // Pass --noconfirm
	DryRun      bool // Show what would happen without executing
	Recursive   bool // Remove dependencies no longer required
	NoDeps      bool // Skip dependency checks (-dd)
}

// UpgradeOpts contains options for package upgrades.
type UpgradeOpts struct {
	AutoConfirm bool     // Pass --noconfirm
	DryRun      bool     // Show what would happen without executing
	Packages    []string // Specific packages to upgrade (empty = full system upgrade)
}

// FormatTime renders t with LastUpdatedLayout in UTC. The zero time renders
// as an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(LastUpdatedLayout)
}

// FormatUnix renders a unix timestamp with LastUpdatedLayout.
func FormatUnix(sec int64) string {
	if sec <= 0 {
		return ""
	}
	return FormatTime(time.Unix(sec, 0))
}

// DependNames strips version constraints and optional-dependency descriptions
// from dependency strings, keeping the first occurrence of each name.
func DependNames(deps []string) []string {
	if len(deps) == 0 {
		return nil
	}

	names := make([]string, 0, len(deps))
	seen := make(map[string]bool, len(deps))

	for _, dep := range deps {
		name := dep
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[:i]
		}
		if i := strings.IndexAny(name, "<>="); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}
