package detector

import (
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	info, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}

	if info == nil {
		t.Fatal("Detect() returned nil")
	}

	if info.Arch != runtime.GOARCH {
		t.Errorf("expected Arch '%s', got '%s'", runtime.GOARCH, info.Arch)
	}
	if info.Distribution == "" {
		t.Error("Distribution should never be empty")
	}
}

func TestParseOSRelease(t *testing.T) {
	data := `NAME="EndeavourOS"
PRETTY_NAME="EndeavourOS"
ID="endeavouros"
ID_LIKE="arch"
# comment
BUILD_ID=2024.01.25
ANSI_COLOR="38;2;23;147;209"
`

	info, err := ParseOSRelease(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseOSRelease() error: %v", err)
	}

	if info.ID != "endeavouros" {
		t.Errorf("ID = %q, want endeavouros", info.ID)
	}
	if !reflect.DeepEqual(info.IDLike, []string{"arch"}) {
		t.Errorf("IDLike = %v, want [arch]", info.IDLike)
	}
	if info.PrettyName != "EndeavourOS" {
		t.Errorf("PrettyName = %q", info.PrettyName)
	}
	if info.VersionID != "" {
		t.Errorf("VersionID = %q, want empty for rolling release", info.VersionID)
	}
}

func TestParseOSReleaseNameFallback(t *testing.T) {
	info, err := ParseOSRelease(strings.NewReader("NAME='Arch Linux'\nID=arch\n"))
	if err != nil {
		t.Fatalf("ParseOSRelease() error: %v", err)
	}
	if info.PrettyName != "Arch Linux" {
		t.Errorf("PrettyName = %q, want Arch Linux", info.PrettyName)
	}
}

func TestSystemInfo_MatchesDistro(t *testing.T) {
	info := &SystemInfo{
		Distribution: "manjaro",
		DistroFamily: []string{"arch"},
	}

	tests := []struct {
		distros  []string
		expected bool
	}{
		{[]string{"manjaro"}, true},
		{[]string{"arch"}, true},
		{[]string{"debian", "arch"}, true},
		{[]string{"fedora"}, false},
		{nil, false},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.distros, ","), func(t *testing.T) {
			if got := info.MatchesDistro(tt.distros...); got != tt.expected {
				t.Errorf("MatchesDistro(%v) = %v, want %v", tt.distros, got, tt.expected)
			}
		})
	}
}

func TestSystemInfo_IsArchFamily(t *testing.T) {
	tests := []struct {
		name string
		info SystemInfo
		want bool
	}{
		{"arch", SystemInfo{Distribution: "arch"}, true},
		{"id like", SystemInfo{Distribution: "somederivative", DistroFamily: []string{"arch"}}, true},
		{"known derivative", SystemInfo{Distribution: "cachyos"}, true},
		{"debian", SystemInfo{Distribution: "debian"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsArchFamily(); got != tt.want {
				t.Errorf("IsArchFamily() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDesktopEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		current string
		session string
		want    string
	}{
		{"plain", "KDE", "", "KDE"},
		{"list", "ubuntu:GNOME", "", "GNOME"},
		{"session fallback", "", "xfce", "xfce"},
		{"headless", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CURRENT_DESKTOP", tt.current)
			t.Setenv("DESKTOP_SESSION", tt.session)
			if got := DesktopEnvironment(); got != tt.want {
				t.Errorf("DesktopEnvironment() = %q, want %q", got, tt.want)
			}
		})
	}
}
