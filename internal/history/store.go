package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"archpm/internal/config"

	"go.etcd.io/bbolt"
)

const (
	bucketHistory = "history"
	bucketMeta    = "meta"
	keyLastOp     = "last_operation"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Store manages operation history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the history database at the default path.
func Open() (*Store, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return OpenAt(config.HistoryPath())
}

// OpenAt opens or creates the history database at path.
func OpenAt(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketHistory)); err != nil {
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

// Record saves a new history entry. Entries are keyed by a monotonically
// increasing sequence so insertion order is preserved.
func (s *Store) Record(entry *Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return fmt.Errorf("history bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate key: %w", err)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		key := itob(seq)
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}

		if metaBucket := tx.Bucket([]byte(bucketMeta)); metaBucket != nil {
			_ = metaBucket.Put([]byte(keyLastOp), key) //nolint:errcheck
		}

		return nil
	})
}

// List returns the most recent history entries, newest first. A limit of
// zero or less returns every entry.
func (s *Store) List(limit int) ([]Entry, error) {
	return s.collect(limit, func(*Entry) bool { return true })
}

// ForPackage returns the most recent entries that touched the named package.
func (s *Store) ForPackage(name string, limit int) ([]Entry, error) {
	return s.collect(limit, func(e *Entry) bool { return e.Involves(name) })
}

func (s *Store) collect(limit int, keep func(*Entry) bool) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && (limit <= 0 || len(entries) < limit); k, v = cursor.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // Skip malformed entries
			}
			if keep(&entry) {
				entries = append(entries, entry)
			}
		}

		return nil
	})

	return entries, err
}

// Get retrieves a specific entry by ID.
func (s *Store) Get(id string) (*Entry, error) {
	var entry *Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return ErrNotFound
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			if e.ID == id {
				entry = &e
				return nil
			}
		}

		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})

	return entry, err
}

// Last returns the most recent entry, or nil when the history is empty.
func (s *Store) Last() (*Entry, error) {
	var entry *Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return nil
		}

		k, v := bucket.Cursor().Last()
		if k == nil {
			return nil
		}

		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		entry = &e
		return nil
	})

	return entry, err
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	var count int

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return nil
		}

		count = bucket.Stats().KeyN
		return nil
	})

	return count, err
}

// Clear removes all history entries.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketHistory)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketHistory))
		return err
	})
}

// Prune removes entries older than the given duration.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var deleted int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return nil
		}

		var toDelete [][]byte
		cursor := bucket.Cursor()

		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			if e.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, append([]byte(nil), k...))
			}
		}

		for _, k := range toDelete {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			deleted++
		}

		return nil
	})

	return deleted, err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
