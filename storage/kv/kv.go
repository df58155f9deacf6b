// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Package kv defines the raw byte-oriented key-value contract that
// backs every persisted record family: a small capability set that
// both an in-memory store and a persistent LevelDB store satisfy
// identically, so the typed accessor layer above (storage/rawdb) never
// needs to know which backend it's talking to.
package kv

// KeyValueReader wraps the basic Has and Get methods of a backing store.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the basic Put and Delete methods of a backing store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch is a write-only accumulator of key-value updates applied atomically.
type Batch interface {
	KeyValueWriter
	Write() error
	Reset()
}

// KeyValueStore is the full read/write/batch/iterate/close contract a
// backing store must satisfy.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	NewBatch() Batch
	NewIterator(prefix []byte) Iterator
	Close() error
}

// Iterator walks a key range in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}
