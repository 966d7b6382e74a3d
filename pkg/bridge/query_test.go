package bridge

import (
	"errors"
	"testing"

	"archpm/pkg/manager"
)

func names(pkgs []manager.PackageInfo) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCheckPackageInstalled(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		want bool
	}{
		{"bash", true},
		{"zed", true},
		{"firefox", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.app.CheckPackageInstalled(tt.name); got != tt.want {
				t.Errorf("CheckPackageInstalled(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	f.db.err = errBoom
	if f.app.CheckPackageInstalled("bash") {
		t.Error("CheckPackageInstalled should report false when the lookup fails")
	}
}

func TestSearchLocalPackage(t *testing.T) {
	f := newFixture()

	if _, err := f.app.SearchLocalPackage(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("SearchLocalPackage(\"\") error = %v, want ErrEmptyName", err)
	}

	found, err := f.app.SearchLocalPackage("bash")
	if err != nil || !found {
		t.Errorf("SearchLocalPackage(bash) = %v, %v; want true, nil", found, err)
	}

	found, err = f.app.SearchLocalPackage("firefox")
	if err != nil || found {
		t.Errorf("SearchLocalPackage(firefox) = %v, %v; want false, nil", found, err)
	}

	f.db.err = errBoom
	if _, err := f.app.SearchLocalPackage("bash"); !errors.Is(err, errBoom) {
		t.Errorf("SearchLocalPackage error = %v, want wrapped errBoom", err)
	}
}

func TestSearchPackage(t *testing.T) {
	f := newFixture()

	got := names(f.app.SearchPackage("firefox"))
	want := []string{"firefox", "firefox-i18n-de", "firefox-nightly"}
	if !equal(got, want) {
		t.Errorf("SearchPackage(firefox) = %v, want %v", got, want)
	}
}

func TestSearchPackageBlankQuery(t *testing.T) {
	f := newFixture()

	got := f.app.SearchPackage("   ")
	if got == nil || len(got) != 0 {
		t.Errorf("SearchPackage(blank) = %#v, want empty non-nil slice", got)
	}
}

func TestSearchPackageShortQuerySkipsAUR(t *testing.T) {
	f := newFixture()

	got := names(f.app.SearchPackage("f"))
	if !equal(got, []string{"firefox", "firefox-i18n-de"}) {
		t.Errorf("SearchPackage(f) = %v", got)
	}
	if f.remote.searches != 0 {
		t.Errorf("AUR searched %d times for a one-rune query", f.remote.searches)
	}
}

func TestSearchPackageSurvivesAURFailure(t *testing.T) {
	f := newFixture()
	f.remote.err = errBoom

	got := names(f.app.SearchPackage("firefox"))
	if !equal(got, []string{"firefox", "firefox-i18n-de"}) {
		t.Errorf("SearchPackage with failing AUR = %v", got)
	}
}

func TestSearchPackageWithoutAUR(t *testing.T) {
	f := newFixture()
	f.app.remote = nil

	got := names(f.app.SearchPackage("firefox"))
	if !equal(got, []string{"firefox", "firefox-i18n-de"}) {
		t.Errorf("SearchPackage without AUR = %v", got)
	}
}

func TestSearchPackageDeduplicates(t *testing.T) {
	f := newFixture()
	f.remote.pkgs = append(f.remote.pkgs, f.remote.pkgs[0])

	got := names(f.app.SearchPackage("nightly"))
	if !equal(got, []string{"firefox-nightly"}) {
		t.Errorf("SearchPackage(nightly) = %v", got)
	}
}

func TestGetInstalledPackages(t *testing.T) {
	f := newFixture()

	pkgs, err := f.app.GetInstalledPackages()
	if err != nil {
		t.Fatalf("GetInstalledPackages() error = %v", err)
	}
	if got := names(pkgs); !equal(got, []string{"bash", "yay", "zed"}) {
		t.Errorf("GetInstalledPackages() = %v", got)
	}

	f.db.local = nil
	if _, err := f.app.GetInstalledPackages(); !errors.Is(err, ErrNoInstalled) {
		t.Errorf("empty database error = %v, want ErrNoInstalled", err)
	}

	f.db.err = errBoom
	if _, err := f.app.GetInstalledPackages(); !errors.Is(err, errBoom) {
		t.Errorf("failing database error = %v, want wrapped errBoom", err)
	}
}

func TestGetMultiplePackageInfo(t *testing.T) {
	f := newFixture()

	pkgs, err := f.app.GetMultiplePackageInfo([]string{"firefox", "visual-studio-code-bin", "VLC", "nope"})
	if err != nil {
		t.Fatalf("GetMultiplePackageInfo() error = %v", err)
	}
	if len(pkgs) != 4 {
		t.Fatalf("got %d packages, want 4", len(pkgs))
	}

	if pkgs[0].Name != "firefox" || pkgs[0].Repository != "extra" {
		t.Errorf("pkgs[0] = %+v, want firefox from extra", pkgs[0])
	}
	if pkgs[1].Name != "visual-studio-code-bin" || pkgs[1].Repository != manager.RepoAUR {
		t.Errorf("pkgs[1] = %+v, want visual-studio-code-bin from AUR", pkgs[1])
	}
	if pkgs[2].Name != "vlc" || pkgs[2].Repository != "extra" {
		t.Errorf("pkgs[2] = %+v, want case-insensitive match vlc", pkgs[2])
	}

	placeholder := manager.PackageInfo{
		Name:        "nope",
		Description: NotFoundDescription,
		Repository:  manager.RepoUnknown,
	}
	if pkgs[3].Name != placeholder.Name || pkgs[3].Description != placeholder.Description || pkgs[3].Repository != placeholder.Repository {
		t.Errorf("pkgs[3] = %+v, want placeholder", pkgs[3])
	}
}

func TestGetMultiplePackageInfoEmpty(t *testing.T) {
	f := newFixture()

	pkgs, err := f.app.GetMultiplePackageInfo(nil)
	if err != nil {
		t.Fatalf("GetMultiplePackageInfo(nil) error = %v", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("got %d packages, want 0", len(pkgs))
	}
}

func TestGetAvailableUpdates(t *testing.T) {
	f := newFixture()
	f.db.updates = []manager.UpdateInfo{
		{Name: "zed", OldVersion: "0.150.0", NewVersion: "0.151.0", Repository: "extra", DownloadSize: 4096},
	}
	f.db.foreign = []manager.InstalledPackage{
		{Name: "yay", Version: "12.3.0"},
		{Name: "visual-studio-code-bin", Version: "1.94.0"}, // newer than the AUR
		{Name: "local-only", Version: "1.0"},
	}

	updates, err := f.app.GetAvailableUpdates()
	if err != nil {
		t.Fatalf("GetAvailableUpdates() error = %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates (%+v), want 2", len(updates), updates)
	}

	yay := updates[0]
	if yay.Name != "yay" || yay.OldVersion != "12.3.0" || yay.NewVersion != "12.4.0" {
		t.Errorf("updates[0] = %+v", yay)
	}
	if yay.Repository != manager.RepoAUR || yay.DownloadSize != 0 {
		t.Errorf("AUR update = %+v, want repository AUR and size 0", yay)
	}
	if updates[1].Name != "zed" || updates[1].DownloadSize != 4096 {
		t.Errorf("updates[1] = %+v", updates[1])
	}
}

func TestGetAvailableUpdatesAURFailure(t *testing.T) {
	f := newFixture()
	f.db.updates = []manager.UpdateInfo{{Name: "zed", OldVersion: "1", NewVersion: "2", Repository: "extra"}}
	f.db.foreign = []manager.InstalledPackage{{Name: "yay", Version: "12.3.0"}}
	f.remote.err = errBoom

	updates, err := f.app.GetAvailableUpdates()
	if err != nil {
		t.Fatalf("GetAvailableUpdates() error = %v", err)
	}
	if len(updates) != 1 || updates[0].Name != "zed" {
		t.Errorf("updates = %+v, want only the repository update", updates)
	}
}

func TestGetAvailableUpdatesRepoFailure(t *testing.T) {
	f := newFixture()
	f.db.err = errBoom

	if _, err := f.app.GetAvailableUpdates(); !errors.Is(err, errBoom) {
		t.Errorf("GetAvailableUpdates() error = %v, want wrapped errBoom", err)
	}
}
