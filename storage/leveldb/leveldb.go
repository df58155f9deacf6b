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

// Package leveldb implements a persistent kv.KeyValueStore backed by
// goleveldb, with a small fastcache read-through layer in front of
// point lookups since block headers and intra-index blobs are read far
// more often than written.
package leveldb

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbutil "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/r5-labs/flexledger/storage/kv"
)

// defaultCacheBytes sizes the read-through cache for a typical
// single-process ledger node. Callers embedding the store in a
// resource-constrained light node should use NewWithCache instead.
const defaultCacheBytes = 32 * 1024 * 1024

// Database is a goleveldb-backed kv.KeyValueStore.
type Database struct {
	db    *leveldb.DB
	cache *fastcache.Cache
}

// New opens (creating if absent) a LevelDB store at path.
func New(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Database{db: db, cache: fastcache.New(defaultCacheBytes)}, nil
}

// Wrap adapts an already-open goleveldb handle, used by tests to run
// against an in-memory leveldb.storage.MemStorage.
func Wrap(db *leveldb.DB) *Database {
	return &Database{db: db, cache: fastcache.New(defaultCacheBytes)}
}

// NewWithCache is New with an explicit cache budget in bytes.
func NewWithCache(path string, cacheBytes int) (*Database, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Database{db: db, cache: fastcache.New(cacheBytes)}, nil
}

func (d *Database) Has(key []byte) (bool, error) {
	if d.cache.Has(key) {
		return true, nil
	}
	_, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	if v, ok := d.cache.HasGet(nil, key); ok {
		return v, nil
	}
	v, err := d.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	d.cache.Set(key, v)
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (d *Database) Put(key, value []byte) error {
	if err := d.db.Put(key, value, nil); err != nil {
		return err
	}
	d.cache.Set(key, value)
	return nil
}

func (d *Database) Delete(key []byte) error {
	if err := d.db.Delete(key, nil); err != nil {
		return err
	}
	d.cache.Del(key)
	return nil
}

func (d *Database) NewBatch() kv.Batch {
	return &batch{db: d, b: new(leveldb.Batch)}
}

func (d *Database) NewIterator(prefix []byte) kv.Iterator {
	return &iterator{iter: d.db.NewIterator(leveldbutil.BytesPrefix(prefix), nil)}
}

func (d *Database) Close() error {
	return d.db.Close()
}

// IsNotFound reports whether err is the backend's not-found sentinel,
// for callers that need to distinguish "absent" from "read failed".
func IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

type batch struct {
	db   *Database
	b    *leveldb.Batch
	keys [][]byte
	vals [][]byte
	dels [][]byte
}

func (b *batch) Put(key, value []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	b.b.Put(k, v)
	b.keys = append(b.keys, k)
	b.vals = append(b.vals, v)
	return nil
}

func (b *batch) Delete(key []byte) error {
	k := append([]byte(nil), key...)
	b.b.Delete(k)
	b.dels = append(b.dels, k)
	return nil
}

func (b *batch) Write() error {
	if err := b.db.db.Write(b.b, nil); err != nil {
		return err
	}
	for i, k := range b.keys {
		b.db.cache.Set(k, b.vals[i])
	}
	for _, k := range b.dels {
		b.db.cache.Del(k)
	}
	return nil
}

func (b *batch) Reset() {
	b.b.Reset()
	b.keys, b.vals, b.dels = nil, nil, nil
}

type iterator struct {
	iter interface {
		Next() bool
		Key() []byte
		Value() []byte
		Release()
	}
}

func (it *iterator) Next() bool    { return it.iter.Next() }
func (it *iterator) Key() []byte   { return it.iter.Key() }
func (it *iterator) Value() []byte { return it.iter.Value() }
func (it *iterator) Release()      { it.iter.Release() }
