package store

import (
	"errors"
	"fmt"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/pkg/codec"
	"github.com/eigerco/curator/pkg/db"
	"github.com/eigerco/curator/pkg/db/pebble"
)

const (
	ErrFailedBatchCommit = "failed to commit batch: %w"
)

// Tx stages writes in memory. Reads observe the transaction's own writes
// before falling back to committed state. Nothing reaches the database until
// Commit, which applies every write in one batch.
type Tx struct {
	db     db.KVStore
	writes map[string][]byte
	order  []string
	done   bool
}

func newTx(kv db.KVStore) *Tx {
	return &Tx{db: kv, writes: make(map[string][]byte)}
}

func (tx *Tx) Get(ns address.Namespace, key address.Key, v any) error {
	if tx.done {
		return ErrTxDone
	}
	sk := string(address.StorageKey(ns, key))

	b, staged := tx.writes[sk]
	if !staged {
		var err error
		b, err = tx.db.Get([]byte(sk))
		if err != nil {
			if errors.Is(err, pebble.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get %s %s: %w", ns, key, err)
		}
	}
	if err := codec.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", ns, key, err)
	}
	return nil
}

func (tx *Tx) Put(ns address.Namespace, key address.Key, v any) error {
	if tx.done {
		return ErrTxDone
	}
	b, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", ns, key, err)
	}

	sk := string(address.StorageKey(ns, key))
	if _, ok := tx.writes[sk]; !ok {
		tx.order = append(tx.order, sk)
	}
	tx.writes[sk] = b
	return nil
}

// Create writes v only if no record exists at (ns, key).
func (tx *Tx) Create(ns address.Namespace, key address.Key, v any) error {
	exists, err := Exists(tx, ns, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s %s: %w", ns, key, ErrExists)
	}
	return tx.Put(ns, key, v)
}

func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	if len(tx.order) == 0 {
		return nil
	}

	batch := tx.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	for _, sk := range tx.order {
		if err := batch.Put([]byte(sk), tx.writes[sk]); err != nil {
			return fmt.Errorf(ErrFailedBatchCommit, err)
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf(ErrFailedBatchCommit, err)
	}
	return nil
}

// Discard drops all staged writes. Safe to call after Commit.
func (tx *Tx) Discard() {
	tx.done = true
	tx.writes = nil
	tx.order = nil
}
