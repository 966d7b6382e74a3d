package manager

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages the transaction managers and the source priority used to
// order packages coming from several repositories.
type Registry struct {
	managers map[string]Manager
	priority []string
	mu       sync.RWMutex
}

// NewRegistry creates a new registry. priority lists repository names
// ("core", "extra", "aur", ...) from most to least preferred; "native"
// stands for every sync repository not listed explicitly.
func NewRegistry(priority []string) *Registry {
	return &Registry{
		managers: make(map[string]Manager),
		priority: priority,
	}
}

// Register adds a manager to the registry. Nil managers are ignored.
func (r *Registry) Register(mgr Manager) {
	if mgr == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[mgr.Name()] = mgr
}

// Get returns a specific manager by name.
func (r *Registry) Get(name string) (Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mgr, ok := r.managers[name]
	return mgr, ok
}

// Native returns the available native manager, or nil.
func (r *Registry) Native() Manager {
	return r.first(TypeNative)
}

// AUR returns the available AUR helper, or nil.
func (r *Registry) AUR() Manager {
	return r.first(TypeAUR)
}

func (r *Registry) first(t ManagerType) Manager {
	managers := r.AvailableByType(t)
	if len(managers) == 0 {
		return nil
	}
	return managers[0]
}

// Available returns all available (installed) managers sorted by priority.
func (r *Registry) Available() []Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []Manager
	for _, mgr := range r.managers {
		if mgr.IsAvailable() {
			available = append(available, mgr)
		}
	}

	r.sortByPriority(available)
	return available
}

// AvailableByType returns available managers of a specific type.
func (r *Registry) AvailableByType(t ManagerType) []Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []Manager
	for _, mgr := range r.managers {
		if mgr.IsAvailable() && mgr.Type() == t {
			available = append(available, mgr)
		}
	}

	r.sortByPriority(available)
	return available
}

// All returns all registered managers (including unavailable ones).
func (r *Registry) All() []Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	managers := make([]Manager, 0, len(r.managers))
	for _, mgr := range r.managers {
		managers = append(managers, mgr)
	}
	sort.Slice(managers, func(i, j int) bool {
		return managers[i].Name() < managers[j].Name()
	})
	return managers
}

// ForSource returns the manager responsible for packages of a repository.
func (r *Registry) ForSource(repository string) (Manager, error) {
	if strings.EqualFold(repository, RepoAUR) {
		if mgr := r.AUR(); mgr != nil {
			return mgr, nil
		}
		return nil, fmt.Errorf("no AUR helper available")
	}

	if mgr := r.Native(); mgr != nil {
		return mgr, nil
	}
	return nil, fmt.Errorf("no native package manager available")
}

// SortPackages sorts packages by repository priority, then by name.
func (r *Registry) SortPackages(packages []PackageInfo) {
	priority := r.priorityMap()

	sort.SliceStable(packages, func(i, j int) bool {
		pi := repoPriority(packages[i].Repository, priority)
		pj := repoPriority(packages[j].Repository, priority)
		if pi != pj {
			return pi < pj
		}
		if packages[i].Name != packages[j].Name {
			return packages[i].Name < packages[j].Name
		}
		return packages[i].Repository < packages[j].Repository
	})
}

// RepoPriority returns the priority index of a repository (lower is better).
func (r *Registry) RepoPriority(repository string) int {
	return repoPriority(repository, r.priorityMap())
}

// sortByPriority sorts managers based on the configured priority order.
func (r *Registry) sortByPriority(managers []Manager) {
	priority := r.priorityMap()

	sort.SliceStable(managers, func(i, j int) bool {
		pi := r.getPriority(managers[i], priority)
		pj := r.getPriority(managers[j], priority)
		if pi != pj {
			return pi < pj
		}
		return managers[i].Name() < managers[j].Name()
	})
}

func (r *Registry) priorityMap() map[string]int {
	priority := make(map[string]int, len(r.priority))
	for i, name := range r.priority {
		priority[strings.ToLower(name)] = i
	}
	return priority
}

// getPriority returns the priority index for a manager.
func (r *Registry) getPriority(mgr Manager, priorityMap map[string]int) int {
	if p, ok := priorityMap[mgr.Name()]; ok {
		return p
	}

	switch mgr.Type() {
	case TypeNative:
		if p, ok := priorityMap["native"]; ok {
			return p
		}
	case TypeAUR:
		if p, ok := priorityMap["aur"]; ok {
			return p
		}
	}

	// Default to lowest priority
	return 999
}

func repoPriority(repository string, priorityMap map[string]int) int {
	repo := strings.ToLower(repository)
	if p, ok := priorityMap[repo]; ok {
		return p
	}
	if repo != "aur" {
		if p, ok := priorityMap["native"]; ok {
			return p
		}
	}
	return 999
}
