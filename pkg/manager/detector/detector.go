// Package detector handles distribution and desktop detection.
package detector

import (
	"os"
	"runtime"
	"strings"
)

// SystemInfo contains information about the detected system.
type SystemInfo struct {
	OS           string   `json:"os" yaml:"os"`
	Arch         string   `json:"arch" yaml:"arch"`
	Distribution string   `json:"distribution" yaml:"distribution"`   // Distribution ID (e.g., "arch", "manjaro")
	DistroFamily []string `json:"distro_family" yaml:"distro_family"` // Related distributions (from ID_LIKE)
	PrettyName   string   `json:"pretty_name" yaml:"pretty_name"`     // Human-readable name
	VersionID    string   `json:"version_id" yaml:"version_id"`       // Distribution version, empty on rolling releases
	Desktop      string   `json:"desktop" yaml:"desktop"`             // Desktop environment, empty when headless
}

// Detect detects the current distribution and desktop environment.
func Detect() (*SystemInfo, error) {
	info := &SystemInfo{
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Desktop: DesktopEnvironment(),
	}

	linuxInfo, err := DetectLinux()
	if err != nil {
		return info, err
	}
	info.Distribution = linuxInfo.ID
	info.DistroFamily = linuxInfo.IDLike
	info.PrettyName = linuxInfo.PrettyName
	info.VersionID = linuxInfo.VersionID

	return info, nil
}

// MatchesDistro checks if the system matches any of the given distribution identifiers.
// It checks both the direct distribution ID and the ID_LIKE family.
func (s *SystemInfo) MatchesDistro(distros ...string) bool {
	for _, d := range distros {
		if s.Distribution == d {
			return true
		}
		for _, family := range s.DistroFamily {
			if family == d {
				return true
			}
		}
	}
	return false
}

// IsArchFamily returns true if the system uses pacman as its package manager.
func (s *SystemInfo) IsArchFamily() bool {
	if s.MatchesDistro("arch") {
		return true
	}
	return archDerivatives[s.Distribution]
}

// archDerivatives are pacman-based distributions that may not list arch in
// ID_LIKE.
var archDerivatives = map[string]bool{
	"arch":        true,
	"manjaro":     true,
	"endeavouros": true,
	"garuda":      true,
	"arcolinux":   true,
	"artix":       true,
	"cachyos":     true,
}

// DesktopEnvironment returns the running desktop environment from
// XDG_CURRENT_DESKTOP, falling back to DESKTOP_SESSION. Colon-separated
// lists ("ubuntu:GNOME") yield their last entry.
func DesktopEnvironment() string {
	desktop := os.Getenv("XDG_CURRENT_DESKTOP")
	if desktop == "" {
		desktop = os.Getenv("DESKTOP_SESSION")
	}
	if i := strings.LastIndex(desktop, ":"); i >= 0 {
		desktop = desktop[i+1:]
	}
	return strings.TrimSpace(desktop)
}
