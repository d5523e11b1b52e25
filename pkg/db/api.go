package db

// Reader is the read half of a key-value store.
type Reader interface {
	// Get returns a copy of the value stored under key, or an error wrapping
	// the implementation's not-found sentinel.
	Get(key []byte) ([]byte, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// KVStore is the keyed record substrate the ledger runs on. Every write goes
// through a Batch and is durable once Commit returns.
type KVStore interface {
	Reader
	NewBatch() Batch
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

// Batch represents an atomic batch of operations.
// Either every staged write becomes visible on Commit or none does.
type Batch interface {
	Writer
	Commit() error
	Close() error
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
