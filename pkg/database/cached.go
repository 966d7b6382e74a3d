package database

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"archpm/pkg/manager"
)

// SourceAUR is the cache bucket holding AUR info responses.
const SourceAUR = "aur"

// CachedRemote serves Info requests from the store while entries are fresh
// and fetches only the misses. Search results are never cached.
type CachedRemote struct {
	remote manager.Remote
	store  *Store
	source string
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

// NewCachedRemote wraps remote with store. A nil logger discards messages.
func NewCachedRemote(remote manager.Remote, store *Store, ttl time.Duration, logger *log.Logger) *CachedRemote {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CachedRemote{
		remote: remote,
		store:  store,
		source: SourceAUR,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Search implements manager.Remote.
func (c *CachedRemote) Search(ctx context.Context, query string) ([]manager.PackageInfo, error) {
	return c.remote.Search(ctx, query)
}

// Info implements manager.Remote. Results follow the order of names; names
// unknown to the remote are omitted. Names match case-insensitively, as the
// AUR does, and entries are cached under the lowercase name.
func (c *CachedRemote) Info(ctx context.Context, names ...string) ([]manager.PackageInfo, error) {
	if len(names) == 0 {
		return nil, nil
	}

	now := c.now()

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = cacheKey(name)
	}

	cached, err := c.store.GetMany(c.source, keys)
	if err != nil {
		c.logger.Printf("aur cache read failed: %v", err)
		cached = map[string]PackageEntry{}
	}

	found := make(map[string]manager.PackageInfo, len(names))
	missed := make(map[string]bool)
	var misses []string
	for i, key := range keys {
		entry, ok := cached[key]
		if !ok || !entry.Fresh(now, c.ttl) {
			if !missed[key] {
				missed[key] = true
				misses = append(misses, names[i])
			}
			continue
		}
		if !entry.Missing {
			found[key] = entry.PackageInfo
		}
	}

	if len(misses) > 0 {
		fetched, err := c.remote.Info(ctx, misses...)
		if err != nil {
			return nil, err
		}

		entries := make([]PackageEntry, 0, len(misses))
		for _, pkg := range fetched {
			key := cacheKey(pkg.Name)
			found[key] = pkg
			entries = append(entries, PackageEntry{PackageInfo: pkg, Fetched: now, Key: key})
		}
		for _, name := range misses {
			key := cacheKey(name)
			if _, ok := found[key]; !ok {
				entries = append(entries, PackageEntry{
					PackageInfo: manager.PackageInfo{Name: key},
					Fetched:     now,
					Missing:     true,
				})
			}
		}

		if err := c.store.Put(c.source, entries...); err != nil {
			c.logger.Printf("aur cache write failed: %v", err)
		}
		if err := c.store.SetLastUpdate(c.source, now); err != nil {
			c.logger.Printf("aur cache write failed: %v", err)
		}
	}

	results := make([]manager.PackageInfo, 0, len(found))
	for _, key := range keys {
		if pkg, ok := found[key]; ok {
			results = append(results, pkg)
			delete(found, key) // duplicate names yield one result
		}
	}
	return results, nil
}

// Invalidate drops the cached entries for names, e.g. after a transaction.
func (c *CachedRemote) Invalidate(names ...string) {
	for _, name := range names {
		if err := c.store.Delete(c.source, cacheKey(name)); err != nil {
			c.logger.Printf("aur cache delete failed: %v", err)
		}
	}
}

func cacheKey(name string) string {
	return strings.ToLower(name)
}
