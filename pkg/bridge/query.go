package bridge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"archpm/pkg/manager"
)

// NotFoundDescription is the description of placeholder packages returned
// by GetMultiplePackageInfo for names that could not be resolved.
const NotFoundDescription = "Package not found in core, extra, or AUR"

// minAURQuery is the shortest query the AUR RPC accepts.
const minAURQuery = 2

// CheckPackageInstalled reports whether a package with exactly this name is
// installed. Lookup failures are logged and reported as not installed.
func (a *App) CheckPackageInstalled(name string) bool {
	if name == "" {
		return false
	}
	pkg, err := a.db.Lookup(a.context(), name)
	if err != nil {
		a.logger.Printf("check %s: %v", name, err)
		return false
	}
	return pkg != nil
}

// SearchLocalPackage reports whether the installed package with this name
// exists and its name contains the query, ignoring case.
func (a *App) SearchLocalPackage(name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyName
	}
	pkg, err := a.db.Lookup(a.context(), name)
	if err != nil {
		return false, fmt.Errorf("local lookup %s: %w", name, err)
	}
	if pkg == nil {
		return false, nil
	}
	return strings.Contains(strings.ToLower(pkg.Name), strings.ToLower(name)), nil
}

// SearchPackage searches the sync repositories and the AUR concurrently.
// A failing source is logged; the other source's results are still returned.
// The result is never nil.
func (a *App) SearchPackage(query string) []manager.PackageInfo {
	query = strings.TrimSpace(query)
	if query == "" {
		return []manager.PackageInfo{}
	}

	ctx := a.context()
	var (
		wg          sync.WaitGroup
		repoResults []manager.PackageInfo
		aurResults  []manager.PackageInfo
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pkgs, err := a.db.SearchRepos(ctx, query)
		if err != nil {
			a.logger.Printf("repo search %q: %v", query, err)
			return
		}
		repoResults = pkgs
	}()

	if a.remote != nil && utf8.RuneCountInString(query) >= minAURQuery {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pkgs, err := a.remote.Search(ctx, query)
			if err != nil {
				a.logger.Printf("aur search %q: %v", query, err)
				return
			}
			aurResults = pkgs
		}()
	}

	wg.Wait()

	results := make([]manager.PackageInfo, 0, len(repoResults)+len(aurResults))
	seen := make(map[string]bool, cap(results))
	for _, batch := range [][]manager.PackageInfo{repoResults, aurResults} {
		for _, pkg := range batch {
			key := strings.ToLower(pkg.Repository) + "/" + pkg.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, pkg)
		}
	}

	a.registry.SortPackages(results)
	return results
}

// GetInstalledPackages returns every installed package sorted by name.
func (a *App) GetInstalledPackages() ([]manager.PackageInfo, error) {
	pkgs, err := a.db.Installed(a.context())
	if err != nil {
		return nil, fmt.Errorf("failed to read local database: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, ErrNoInstalled
	}
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].Name < pkgs[j].Name
	})
	return pkgs, nil
}

// GetMultiplePackageInfo resolves each name concurrently. Results keep the
// input order; names that cannot be resolved yield a placeholder with
// repository "unknown".
func (a *App) GetMultiplePackageInfo(names []string) ([]manager.PackageInfo, error) {
	ctx := a.context()
	results := make([]manager.PackageInfo, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = a.packageInfo(ctx, name)
		}(i, name)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// packageInfo prefers an exact sync repository match, then the AUR, then
// the best search hit.
func (a *App) packageInfo(ctx context.Context, name string) manager.PackageInfo {
	if ctx.Err() == nil && name != "" {
		if pkg, err := a.db.SyncLookup(ctx, name); err != nil {
			a.logger.Printf("sync lookup %s: %v", name, err)
		} else if pkg != nil {
			return *pkg
		}

		if a.remote != nil {
			pkgs, err := a.remote.Info(ctx, name)
			if err != nil {
				a.logger.Printf("aur info %s: %v", name, err)
			}
			if len(pkgs) > 0 {
				return pkgs[0]
			}
		}

		// featured names may differ in case from the package name
		for _, pkg := range a.SearchPackage(name) {
			if strings.EqualFold(pkg.Name, name) {
				return pkg
			}
		}
	}

	return manager.PackageInfo{
		Name:        name,
		Description: NotFoundDescription,
		Repository:  manager.RepoUnknown,
	}
}

// GetAvailableUpdates returns repository and AUR updates sorted by name.
// AUR failures are logged and the repository updates still returned.
func (a *App) GetAvailableUpdates() ([]manager.UpdateInfo, error) {
	ctx := a.context()

	var (
		wg         sync.WaitGroup
		repo       []manager.UpdateInfo
		repoErr    error
		aurUpdates []manager.UpdateInfo
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		repo, repoErr = a.db.RepoUpdates(ctx)
	}()

	if a.remote != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updates, err := a.aurUpdates(ctx)
			if err != nil {
				a.logger.Printf("aur updates: %v", err)
				return
			}
			aurUpdates = updates
		}()
	}

	wg.Wait()

	if repoErr != nil {
		return nil, fmt.Errorf("failed to check repository updates: %w", repoErr)
	}

	updates := make([]manager.UpdateInfo, 0, len(repo)+len(aurUpdates))
	updates = append(updates, repo...)
	updates = append(updates, aurUpdates...)
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Name < updates[j].Name
	})
	return updates, nil
}

func (a *App) aurUpdates(ctx context.Context) ([]manager.UpdateInfo, error) {
	foreign, err := a.db.Foreign(ctx)
	if err != nil {
		return nil, err
	}
	if len(foreign) == 0 {
		return nil, nil
	}

	installed := make(map[string]string, len(foreign))
	names := make([]string, 0, len(foreign))
	for _, pkg := range foreign {
		installed[pkg.Name] = pkg.Version
		names = append(names, pkg.Name)
	}

	remote, err := a.remote.Info(ctx, names...)
	if err != nil {
		return nil, err
	}

	var updates []manager.UpdateInfo
	for _, pkg := range remote {
		current, ok := installed[pkg.Name]
		if !ok || a.db.VerCmp(pkg.Version, current) <= 0 {
			continue
		}
		updates = append(updates, manager.UpdateInfo{
			Name:       pkg.Name,
			OldVersion: current,
			NewVersion: pkg.Version,
			Repository: manager.RepoAUR,
		})
	}
	return updates, nil
}
