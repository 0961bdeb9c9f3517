// Package kvstore is the KV Store Adapter: it opens, reads, writes, and
// closes a persistent ordered key-value store, and exposes a Destroy for
// re-indexing. It is a thin wrapper around goleveldb, the same embedded
// LSM-tree store the node's ffldb/ldb layer wraps, trimmed down to the
// handful of calls the DAG index actually needs.
package kvstore

import (
	"os"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// Store is a minimal ordered key-value store: get, put, close, destroy.
// A missing key is reported as (nil, false, nil), never an error.
type Store struct {
	path string
	ldb  *leveldb.DB
}

// Open opens (creating if necessary) a LevelDB database at path.
func Open(path string) (*Store, error) {
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open KV store at %s", path)
	}
	return &Store{path: path, ldb: ldb}, nil
}

// Get returns the value for key, or (nil, false, nil) if it is absent.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	value, err := s.ldb.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed to get key %x", key)
	}
	return value, true, nil
}

// Put writes value for key, overwriting any previous value.
func (s *Store) Put(key, value []byte) error {
	if err := s.ldb.Put(key, value, nil); err != nil {
		return errors.Wrapf(err, "failed to put key %x", key)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.ldb.Close()
}

// Destroy removes the on-disk files at path, wiping the store clean for a
// full re-index. It does not close a Store that is open on path.
func Destroy(path string) error {
	return os.RemoveAll(path)
}
