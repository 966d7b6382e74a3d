// Package database provides a BoltDB cache for remote package metadata.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"archpm/internal/config"
	"archpm/pkg/manager"

	"go.etcd.io/bbolt"
)

const (
	bucketPackages = "packages"
	bucketMeta     = "meta"

	keyLastUpdate = "last_update"
)

// PackageEntry represents a cached package with metadata. Missing entries
// record that the remote did not know the name when it was fetched.
type PackageEntry struct {
	manager.PackageInfo
	Fetched time.Time `json:"fetched"`
	Missing bool      `json:"missing,omitempty"`

	// Key overrides Name as the bucket key when set.
	Key string `json:"-"`
}

func (e *PackageEntry) key() string {
	if e.Key != "" {
		return e.Key
	}
	return e.Name
}

// Fresh reports whether the entry was fetched within maxAge of now.
func (e *PackageEntry) Fresh(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.Fetched) < maxAge
}

// Store manages the package metadata cache using BoltDB.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the AUR cache at the default path.
func Open() (*Store, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return OpenAt(config.AURCachePath())
}

// OpenAt opens or creates a package cache at path.
func OpenAt(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open package database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketPackages)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketMeta)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Put adds or replaces entries under source.
func (s *Store) Put(source string, entries ...PackageEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPackages))
		if bucket == nil {
			return fmt.Errorf("packages bucket not found")
		}

		sourceBucket, err := bucket.CreateBucketIfNotExists([]byte(source))
		if err != nil {
			return err
		}

		for _, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal package: %w", err)
			}
			if err := sourceBucket.Put([]byte(entry.key()), data); err != nil {
				return err
			}
		}

		return nil
	})
}

// Get retrieves a package from the cache, or nil when absent.
func (s *Store) Get(source, name string) (*PackageEntry, error) {
	var entry *PackageEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		sourceBucket := s.sourceBucket(tx, source)
		if sourceBucket == nil {
			return nil
		}

		data := sourceBucket.Get([]byte(name))
		if data == nil {
			return nil
		}

		entry = &PackageEntry{}
		return json.Unmarshal(data, entry)
	})

	return entry, err
}

// GetMany retrieves the cached entries for names, keyed by name.
func (s *Store) GetMany(source string, names []string) (map[string]PackageEntry, error) {
	entries := make(map[string]PackageEntry, len(names))

	err := s.db.View(func(tx *bbolt.Tx) error {
		sourceBucket := s.sourceBucket(tx, source)
		if sourceBucket == nil {
			return nil
		}

		for _, name := range names {
			data := sourceBucket.Get([]byte(name))
			if data == nil {
				continue
			}
			var entry PackageEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				continue // Treat malformed entries as misses
			}
			entries[name] = entry
		}
		return nil
	})

	return entries, err
}

// List retrieves every package cached for source.
func (s *Store) List(source string) ([]PackageEntry, error) {
	var packages []PackageEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		sourceBucket := s.sourceBucket(tx, source)
		if sourceBucket == nil {
			return nil
		}

		return sourceBucket.ForEach(func(_, data []byte) error {
			var entry PackageEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				return nil
			}
			packages = append(packages, entry)
			return nil
		})
	})

	return packages, err
}

// Delete removes a package from the cache.
func (s *Store) Delete(source, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sourceBucket := s.sourceBucket(tx, source)
		if sourceBucket == nil {
			return nil
		}
		return sourceBucket.Delete([]byte(name))
	})
}

// Prune removes entries of source fetched more than maxAge before now.
func (s *Store) Prune(source string, now time.Time, maxAge time.Duration) (int, error) {
	var deleted int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		sourceBucket := s.sourceBucket(tx, source)
		if sourceBucket == nil {
			return nil
		}

		var stale [][]byte
		err := sourceBucket.ForEach(func(k, data []byte) error {
			var entry PackageEntry
			if err := json.Unmarshal(data, &entry); err != nil || !entry.Fresh(now, maxAge) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := sourceBucket.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})

	return deleted, err
}

// ClearSource removes all packages from a specific source.
func (s *Store) ClearSource(source string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPackages))
		if bucket == nil {
			return nil
		}
		if err := bucket.DeleteBucket([]byte(source)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
}

// Clear removes all cached packages.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketPackages)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketPackages))
		return err
	})
}

// SetLastUpdate sets the last successful fetch time for a source.
func (s *Store) SetLastUpdate(source string, t time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketMeta))
		if bucket == nil {
			return nil
		}

		key := keyLastUpdate + ":" + source
		return bucket.Put([]byte(key), []byte(t.Format(time.RFC3339)))
	})
}

// GetLastUpdate returns the last successful fetch time for a source.
func (s *Store) GetLastUpdate(source string) (time.Time, error) {
	var t time.Time

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketMeta))
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(keyLastUpdate + ":" + source))
		if data == nil {
			return nil
		}

		var err error
		t, err = time.Parse(time.RFC3339, string(data))
		return err
	})

	return t, err
}

// CountBySource returns the number of cached packages per source.
func (s *Store) CountBySource() (map[string]int, error) {
	counts := make(map[string]int)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPackages))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(sourceName, _ []byte) error {
			if sourceBucket := bucket.Bucket(sourceName); sourceBucket != nil {
				counts[string(sourceName)] = sourceBucket.Stats().KeyN
			}
			return nil
		})
	})

	return counts, err
}

func (s *Store) sourceBucket(tx *bbolt.Tx, source string) *bbolt.Bucket {
	bucket := tx.Bucket([]byte(bucketPackages))
	if bucket == nil {
		return nil
	}
	return bucket.Bucket([]byte(source))
}
