package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

type fakeDB struct {
	local   []manager.PackageInfo
	sync    []manager.PackageInfo
	updates []manager.UpdateInfo
	foreign []manager.InstalledPackage
	err     error
}

func (d *fakeDB) Installed(context.Context) ([]manager.PackageInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	return append([]manager.PackageInfo(nil), d.local...), nil
}

func (d *fakeDB) Lookup(_ context.Context, name string) (*manager.PackageInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, pkg := range d.local {
		if pkg.Name == name {
			p := pkg
			return &p, nil
		}
	}
	return nil, nil
}

func (d *fakeDB) SyncLookup(_ context.Context, name string) (*manager.PackageInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, pkg := range d.sync {
		if pkg.Name == name {
			p := pkg
			return &p, nil
		}
	}
	return nil, nil
}

func (d *fakeDB) SearchRepos(_ context.Context, query string) ([]manager.PackageInfo, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []manager.PackageInfo
	for _, pkg := range d.sync {
		if strings.Contains(strings.ToLower(pkg.Name), strings.ToLower(query)) {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (d *fakeDB) RepoUpdates(context.Context) ([]manager.UpdateInfo, error) {
	return d.updates, d.err
}

func (d *fakeDB) Foreign(context.Context) ([]manager.InstalledPackage, error) {
	return d.foreign, d.err
}

// VerCmp compares plain dotted versions well enough for the tests.
func (d *fakeDB) VerCmp(a, b string) int {
	return strings.Compare(a, b)
}

type fakeRemote struct {
	pkgs        []manager.PackageInfo
	err         error
	mu          sync.Mutex
	searches    int
	invalidated []string
}

func (r *fakeRemote) Search(_ context.Context, query string) ([]manager.PackageInfo, error) {
	r.mu.Lock()
	r.searches++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []manager.PackageInfo
	for _, pkg := range r.pkgs {
		if strings.Contains(strings.ToLower(pkg.Name), strings.ToLower(query)) {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (r *fakeRemote) Info(_ context.Context, names ...string) ([]manager.PackageInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []manager.PackageInfo
	for _, name := range names {
		for _, pkg := range r.pkgs {
			if pkg.Name == name {
				out = append(out, pkg)
			}
		}
	}
	return out, nil
}

func (r *fakeRemote) Invalidate(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, names...)
}

type call struct {
	op       string
	packages []string
	opts     any
}

type fakeManager struct {
	name  string
	mtype manager.ManagerType
	err   error
	block chan struct{}

	mu    sync.Mutex
	calls []call
}

func (m *fakeManager) Name() string { return m.name }
func (m *fakeManager) DisplayName() string { return m.name }
func (m *fakeManager) Type() manager.ManagerType { return m.mtype }
func (m *fakeManager) IsAvailable() bool { return true }
func (m *fakeManager) NeedsSudo() bool { return m.mtype == manager.TypeNative }

func (m *fakeManager) Install(_ context.Context, packages []string, opts manager.InstallOpts) error {
	return m.do(call{"install", packages, opts})
}

func (m *fakeManager) Uninstall(_ context.Context, packages []string, opts manager.UninstallOpts) error {
	return m.do(call{"uninstall", packages, opts})
}

func (m *fakeManager) Upgrade(_ context.Context, opts manager.UpgradeOpts) error {
	return m.do(call{"upgrade", opts.Packages, opts})
}

func (m *fakeManager) do(c call) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.err
}

func (m *fakeManager) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *fakeRecorder) Record(entry *history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeRecorder) Entries() []history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Entry(nil), r.entries...)
}

var errBoom = errors.New("boom")

type fixture struct {
	app     *App
	db      *fakeDB
	remote  *fakeRemote
	pacman  *fakeManager
	helper  *fakeManager
	history *fakeRecorder
}

func newFixture() *fixture {
	f := &fixture{
		db: &fakeDB{
			local: []manager.PackageInfo{
				{Name: "zed", Version: "0.150.0", Repository: "extra"},
				{Name: "bash", Version: "5.2.032", Repository: "core"},
				{Name: "yay", Version: "12.3.0", Repository: "local"},
			},
			sync: []manager.PackageInfo{
				{Name: "firefox", Version: "130.0", Repository: "extra", Description: "Web browser"},
				{Name: "firefox-i18n-de", Version: "130.0", Repository: "extra"},
				{Name: "bash", Version: "5.2.032", Repository: "core"},
				{Name: "vlc", Version: "3.0.21", Repository: "extra"},
			},
		},
		remote: &fakeRemote{
			pkgs: []manager.PackageInfo{
				{Name: "firefox-nightly", Version: "131.0a1", Repository: manager.RepoAUR},
				{Name: "visual-studio-code-bin", Version: "1.93.0", Repository: manager.RepoAUR},
				{Name: "yay", Version: "12.4.0", Repository: manager.RepoAUR},
			},
		},
		pacman:  &fakeManager{name: "pacman", mtype: manager.TypeNative},
		helper:  &fakeManager{name: "yay", mtype: manager.TypeAUR},
		history: &fakeRecorder{},
	}

	registry := manager.NewRegistry([]string{"core", "extra", "native", "aur"})
	registry.Register(f.pacman)
	registry.Register(f.helper)

	f.app = New(Options{
		Database: f.db,
		Remote:   f.remote,
		Registry: registry,
		History:  f.history,
	})
	return f
}
