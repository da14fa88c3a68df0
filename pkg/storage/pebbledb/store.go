// Package pebbledb implements the device-local store on top of Pebble.
//
// Key layout:
//
//	thread:<threadID>                      thread metadata
//	msg:<threadID>:<padded ns>-<id>        message record, thread-ordered
//	msgid:<id>                             message id -> thread-ordered key
//	pay:<paymentID>                        payment record
//	risk:<userID>:<padded ns>-<id>         append-only risk log entry
//	cursor:<threadID>                      per-thread pull cursor (sync_meta)
//
// The padded-nanosecond prefix keeps messages in (createdAt, id) order under
// Pebble's lexicographic iteration, so list operations never re-sort.
package pebbledb

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/sendlink/sendlink/pkg/storage"
)

// Store implements storage.LocalStore. Readers go straight to Pebble;
// read-modify-write cycles are serialized by mu so revision checks and the
// thread recomputation they trigger stay atomic. Conflicts across devices are
// still detected, not prevented: the revision CAS is the contract.
type Store struct {
	db    *pebble.DB
	owner string

	mu sync.Mutex
}

// Make sure we conform to the interface.
var _ storage.LocalStore = (*Store)(nil)

// Open opens (or creates) the local database at path. owner is the device
// user's id; it determines which messages count toward unread totals.
func Open(path, owner string) (*Store, error) {
	if owner == "" {
		return nil, fmt.Errorf("pebbledb: owner must not be empty")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return &Store{db: db, owner: owner}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// getJSON loads and unmarshals the value at key. It reports false when the
// key does not exist.
func (s *Store) getJSON(key []byte, v any) (bool, error) {
	data, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble get %q: %w", key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// setJSON marshals v and writes it durably at key.
func (s *Store) setJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %q: %w", key, err)
	}
	return nil
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// prefixIter opens an iterator bounded to keys with the given prefix.
func (s *Store) prefixIter(prefix []byte) (*pebble.Iterator, error) {
	return s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
}
