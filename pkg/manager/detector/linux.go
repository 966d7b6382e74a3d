package detector

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// LinuxInfo contains information parsed from /etc/os-release.
type LinuxInfo struct {
	ID         string   // Distribution ID (e.g., "arch", "manjaro")
	IDLike     []string // Related distributions
	VersionID  string   // Version number, empty on rolling releases
	PrettyName string   // Human-readable name
	Name       string   // Distribution name
}

// osReleasePaths are read in order; the first one that exists wins.
var osReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

// DetectLinux detects the Linux distribution by reading os-release.
func DetectLinux() (*LinuxInfo, error) {
	for _, path := range osReleasePaths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		info, err := ParseOSRelease(f)
		f.Close()
		if err == nil && info.ID != "" {
			return info, nil
		}
	}

	// Fall back to the arch release marker
	if _, err := os.Stat("/etc/arch-release"); err == nil {
		return &LinuxInfo{ID: "arch", Name: "Arch Linux", PrettyName: "Arch Linux"}, nil
	}

	return &LinuxInfo{ID: "unknown", PrettyName: "Unknown Linux"}, nil
}

// ParseOSRelease parses os-release formatted data.
func ParseOSRelease(r io.Reader) (*LinuxInfo, error) {
	info := &LinuxInfo{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch key {
		case "ID":
			info.ID = value
		case "ID_LIKE":
			info.IDLike = strings.Fields(value)
		case "VERSION_ID":
			info.VersionID = value
		case "PRETTY_NAME":
			info.PrettyName = value
		case "NAME":
			info.Name = value
		}
	}

	if info.PrettyName == "" {
		info.PrettyName = info.Name
	}

	return info, scanner.Err()
}
