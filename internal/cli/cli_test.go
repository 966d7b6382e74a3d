package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"archpm/internal/history"
	"archpm/pkg/bridge"
	"archpm/pkg/manager"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type fakeBackend struct {
	mu sync.Mutex

	installed map[string]manager.PackageInfo
	sync      map[string]manager.PackageInfo
	updates   []manager.UpdateInfo
	failOn    map[string]error
	calls     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		installed: map[string]manager.PackageInfo{
			"bash": {Name: "bash", Version: "5.2.032-1", Repository: "core"},
			"yay":  {Name: "yay", Version: "12.3.5-1", Repository: manager.RepoLocal},
		},
		sync: map[string]manager.PackageInfo{
			"firefox": {Name: "firefox", Version: "131.0-1", Repository: "extra", Description: "Web browser"},
			"vlc":     {Name: "vlc", Version: "3.0.21-1", Repository: "extra"},
			"bash":    {Name: "bash", Version: "5.2.032-1", Repository: "core"},

			"bash-completion": {Name: "bash-completion", Version: "2.14.0-2", Repository: "extra"},
		},
		failOn: map[string]error{},
	}
}

func (f *fakeBackend) call(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, c)
	return f.failOn[c]
}

func (f *fakeBackend) CheckPackageInstalled(name string) bool {
	_, ok := f.installed[name]
	return ok
}

func (f *fakeBackend) SearchLocalPackage(name string) (bool, error) {
	if name == "" {
		return false, bridge.ErrEmptyName
	}
	return f.CheckPackageInstalled(name), nil
}

func (f *fakeBackend) SearchPackage(query string) []manager.PackageInfo {
	results := []manager.PackageInfo{}
	for _, name := range []string{"bash", "bash-completion", "firefox", "vlc"} {
		if strings.Contains(name, query) {
			results = append(results, f.sync[name])
		}
	}
	return results
}

func (f *fakeBackend) GetInstalledPackages() ([]manager.PackageInfo, error) {
	if len(f.installed) == 0 {
		return nil, bridge.ErrNoInstalled
	}
	return []manager.PackageInfo{f.installed["bash"], f.installed["yay"]}, nil
}

func (f *fakeBackend) GetMultiplePackageInfo(names []string) ([]manager.PackageInfo, error) {
	pkgs := make([]manager.PackageInfo, len(names))
	for i, name := range names {
		p, ok := f.sync[name]
		if !ok {
			p = manager.PackageInfo{Name: name, Repository: manager.RepoUnknown}
		}
		pkgs[i] = p
	}
	return pkgs, nil
}

func (f *fakeBackend) GetAvailableUpdates() ([]manager.UpdateInfo, error) {
	return f.updates, nil
}

func (f *fakeBackend) Install(name string) error { return f.call("install %s", name) }
func (f *fakeBackend) Uninstall(name string) error { return f.call("uninstall %s", name) }
func (f *fakeBackend) UninstallPackage(name string) error { return f.call("uninstall -s %s", name) }
func (f *fakeBackend) UpdateSinglePkg(name string) error { return f.call("update %s", name) }
func (f *fakeBackend) UpdateAllPkg() error { return f.call("upgrade") }

func (f *fakeBackend) WaitForState(_ context.Context, name string, installed bool, _ time.Duration) error {
	return f.call("wait %s %t", name, installed)
}

func (f *fakeBackend) HumanReadableSize(size int64) string { return bridge.HumanReadableSize(size) }
func (f *fakeBackend) Pending() []bridge.PendingOp { return nil }
func (f *fakeBackend) HasAUR() bool { return false }
func (f *fakeBackend) Registry() *manager.Registry { return manager.NewRegistry(nil) }

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command against b with isolated config and data dirs.
func execute(t *testing.T, b *fakeBackend, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	return run(t, b, args...)
}

// run runs the root command against b using the current XDG_DATA_HOME.
func run(t *testing.T, b *fakeBackend, args ...string) (string, error) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	openBackend = func() (Backend, error) { return b, nil }
	t.Cleanup(func() {
		openBackend = openBridge
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))

	err := rootCmd.Execute()
	shutdown()
	resetFlags(rootCmd)
	return out.String(), err
}

func (f *fakeBackend) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, newFakeBackend(), "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "archpm version "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	if _, err := execute(t, newFakeBackend(), "-o", "xml", "list"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestSearch(t *testing.T) {
	out, err := execute(t, newFakeBackend(), "-o", "json", "search", "fire")
	if err != nil {
		t.Fatal(err)
	}

	var pkgs []manager.PackageInfo
	if err := json.Unmarshal([]byte(out), &pkgs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "firefox" {
		t.Errorf("pkgs = %+v", pkgs)
	}
}

func TestSearchTable(t *testing.T) {
	out, err := execute(t, newFakeBackend(), "search", "-l", "1", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bash") || !strings.Contains(out, "[installed]") {
		t.Errorf("output missing installed bash: %q", out)
	}
	if strings.Contains(out, "bash-completion") {
		t.Errorf("limit ignored: %q", out)
	}
}

func TestList(t *testing.T) {
	out, err := execute(t, newFakeBackend(), "-o", "json", "list", "-p", "BA")
	if err != nil {
		t.Fatal(err)
	}

	var pkgs []manager.InstalledPackage
	if err := json.Unmarshal([]byte(out), &pkgs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "bash" || pkgs[0].Repository != "core" {
		t.Errorf("pkgs = %+v", pkgs)
	}
}

func TestListEmpty(t *testing.T) {
	b := newFakeBackend()
	b.installed = nil

	if _, err := execute(t, b, "list"); err != nil {
		t.Errorf("empty database should not fail: %v", err)
	}
}

func TestInfo(t *testing.T) {
	out, err := execute(t, newFakeBackend(), "-o", "json", "info", "bash")
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["name"] != "bash" || got["repository"] != "core" || got["installed"] != true {
		t.Errorf("got %v", got)
	}
}

func TestInfoNotFound(t *testing.T) {
	_, err := execute(t, newFakeBackend(), "info", "no-such-package")
	if !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("err = %v, want ErrPackageNotFound", err)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		pkg  string
		want string
	}{
		{"bash", "bash is installed"},
		{"vlc", "vlc is not installed"},
	}

	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			out, err := execute(t, newFakeBackend(), "check", tt.pkg)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestTransactions(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		calls []string
	}{
		{"install", []string{"install", "-y", "vlc", "firefox"}, []string{"install vlc", "install firefox"}},
		{"uninstall", []string{"uninstall", "-y", "vlc"}, []string{"uninstall vlc"}},
		{"uninstall recursive", []string{"rm", "-y", "-r", "vlc"}, []string{"uninstall -s vlc"}},
		{"upgrade all", []string{"upgrade", "-y"}, []string{"upgrade"}},
		{"upgrade one", []string{"upgrade", "-y", "bash"}, []string{"update bash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			if _, err := execute(t, b, tt.args...); err != nil {
				t.Fatal(err)
			}

			calls := b.callList()
			if strings.Join(calls, ",") != strings.Join(tt.calls, ",") {
				t.Errorf("calls = %v, want %v", calls, tt.calls)
			}
		})
	}
}

func TestInstallInvalidName(t *testing.T) {
	b := newFakeBackend()

	_, err := execute(t, b, "install", "-y", "bad/name")
	if !errors.Is(err, bridge.ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
	if len(b.callList()) != 0 {
		t.Errorf("backend called: %v", b.callList())
	}
}

func TestInstallPartialFailure(t *testing.T) {
	b := newFakeBackend()
	b.failOn["install vlc"] = errors.New("exit status 1")

	_, err := execute(t, b, "install", "-y", "vlc", "firefox")
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v", err)
	}
	if calls := b.callList(); len(calls) != 2 {
		t.Errorf("calls = %v, want both packages attempted", calls)
	}
}

func TestWaitForState(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"install", []string{"install", "-y", "--wait", "1m", "firefox"}, []string{"install firefox", "wait firefox true"}},
		{"uninstall", []string{"uninstall", "-y", "--wait", "1m", "bash"}, []string{"uninstall bash", "wait bash false"}},
		{"no wait", []string{"install", "-y", "firefox"}, []string{"install firefox"}},
		{"dry run", []string{"install", "-y", "-n", "--wait", "1m", "firefox"}, []string{"install firefox"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			if _, err := execute(t, b, tt.args...); err != nil {
				t.Fatal(err)
			}
			if calls := b.callList(); strings.Join(calls, ",") != strings.Join(tt.want, ",") {
				t.Errorf("calls = %v, want %v", calls, tt.want)
			}
		})
	}
}

func TestWaitForStateTimeout(t *testing.T) {
	b := newFakeBackend()
	b.failOn["wait firefox true"] = context.DeadlineExceeded

	_, err := execute(t, b, "install", "-y", "--wait", "1m", "firefox")
	if err == nil || !strings.Contains(err.Error(), "1 of 1") {
		t.Errorf("err = %v, want the install counted as failed", err)
	}
}

func TestUpdates(t *testing.T) {
	b := newFakeBackend()
	b.updates = []manager.UpdateInfo{
		{Name: "bash", OldVersion: "5.2.026-2", NewVersion: "5.2.032-1", Repository: "core", DownloadSize: 2048},
	}

	out, err := execute(t, b, "updates")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bash") || !strings.Contains(out, "2.0 KiB") {
		t.Errorf("output = %q", out)
	}
}

func TestSize(t *testing.T) {
	out, err := execute(t, newFakeBackend(), "size", "0", "1536", "1048576")
	if err != nil {
		t.Fatal(err)
	}
	if want := "0.0 B\n1.5 KiB\n1.0 MiB\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	if _, err := execute(t, newFakeBackend(), "size", "lots"); err == nil {
		t.Error("expected error for non-numeric size")
	}
}

func TestHistory(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := history.Open()
	if err != nil {
		t.Fatal(err)
	}
	for _, pkg := range []string{"vlc", "firefox"} {
		entry := history.NewEntry(history.OpInstall, "pacman", []string{pkg})
		entry.Finish(nil)
		if err := store.Record(entry); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, newFakeBackend(), "-o", "json", "history", "-p", "vlc")
	if err != nil {
		t.Fatal(err)
	}

	var entries []history.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(entries) != 1 || entries[0].Packages[0] != "vlc" {
		t.Errorf("entries = %+v", entries)
	}
}
