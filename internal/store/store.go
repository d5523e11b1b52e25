package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/pkg/codec"
	"github.com/eigerco/curator/pkg/db"
	"github.com/eigerco/curator/pkg/db/pebble"
	"github.com/eigerco/curator/pkg/log"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
	ErrTxDone   = errors.New("transaction already committed or discarded")
)

// Reader decodes the record stored at (ns, key) into v.
type Reader interface {
	Get(ns address.Namespace, key address.Key, v any) error
}

// Load is a typed wrapper around Reader.Get.
func Load[T any](r Reader, ns address.Namespace, key address.Key) (T, error) {
	var v T
	err := r.Get(ns, key, &v)
	return v, err
}

// Exists reports whether a record is present at (ns, key).
func Exists(r Reader, ns address.Namespace, key address.Key) (bool, error) {
	var raw rawRecord
	err := r.Get(ns, key, &raw)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// rawRecord accepts any encoding; used for presence checks.
type rawRecord struct{}

func (*rawRecord) UnmarshalBinaryRecord(data []byte) (int, error) {
	return len(data), nil
}

// Store is the ledger's keyed record store. Writers go through Update, which
// runs one transaction at a time.
type Store struct {
	db     db.KVStore
	writer sync.Mutex
}

func New(kv db.KVStore) *Store {
	return &Store{db: kv}
}

// Get reads committed state.
func (s *Store) Get(ns address.Namespace, key address.Key, v any) error {
	b, err := s.db.Get(address.StorageKey(ns, key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s %s: %w", ns, key, err)
	}
	if err := codec.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", ns, key, err)
	}
	return nil
}

// ForEach calls fn for every committed record in ns, in key order.
func (s *Store) ForEach(ns address.Namespace, fn func(key address.Key, raw []byte) error) error {
	start, end := address.Range(ns)
	iter, err := s.db.NewIterator(start, end)
	if err != nil {
		return fmt.Errorf("iterate %s: %w", ns, err)
	}
	defer iter.Close() //nolint:errcheck

	for iter.Next() {
		raw, err := iter.Value()
		if err != nil {
			return fmt.Errorf("iterate %s: %w", ns, err)
		}
		var key address.Key
		copy(key[:], iter.Key()[1:])
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	return nil
}

// Update runs fn inside a transaction. The transaction commits atomically if
// fn returns nil and is discarded otherwise. Calls are serialized.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	tx := newTx(s.db)
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Store.Error().Err(err).Int("writes", len(tx.order)).Msg("commit failed")
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
