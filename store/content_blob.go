// Package store gives the Content Store's PRECIOUS entries somewhere to
// survive a daemon restart without growing the in-memory skiplist
// unboundedly: a badger-backed key/value tier keyed by
// name-including-digest. table.ContentStore never imports this package;
// the daemon writes precious frames through on arrival and falls back
// here on a cache miss for an exact digest-named Interest.
package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BlobStore persists the encoded bytes of PRECIOUS ContentObjects keyed
// by their name-including-digest, so bootstrap keys the Content Store
// would otherwise have to keep pinned in memory forever can instead be
// evicted from the skiplist and re-fetched from disk on demand.
type BlobStore struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at path.
func Open(path string) (*BlobStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %s: %w", path, err)
	}
	return &BlobStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BlobStore) Close() error {
	return s.db.Close()
}

// Put persists the encoded frame for a name-including-digest key.
func (s *BlobStore) Put(nameKey []byte, frame []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyBytes(nameKey), frame)
	})
}

// Get retrieves a previously stored frame by exact name-including-digest
// key, reporting found=false rather than an error on a miss.
func (s *BlobStore) Get(nameKey []byte) (frame []byte, found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(nameKey)
		if errors.Is(gerr, badger.ErrKeyNotFound) {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		found = true
		frame, gerr = item.ValueCopy(nil)
		return gerr
	})
	return frame, found, err
}

// Delete removes a previously stored frame, if any.
func (s *BlobStore) Delete(nameKey []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nameKey)
	})
}

// HasPrefix reports whether any stored key shares the given name prefix,
// used by a restart-time warm check before the daemon republishes its
// own bootstrap key object.
func (s *BlobStore) HasPrefix(prefix []byte) bool {
	found := false
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek(prefix)
		found = it.ValidForPrefix(prefix)
		return nil
	})
	return found
}

// keyBytes builds the lookup key from a name-including-digest's encoded
// form, matching the ordering bytes.Compare already imposes on it so a
// future range query (e.g. "all precious keys under this prefix") stays
// consistent with the Content Store's own skiplist ordering.
func keyBytes(nameKey []byte) []byte {
	return bytes.Clone(nameKey)
}
