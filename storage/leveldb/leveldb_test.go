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

package leveldb_test

import (
	"testing"

	goleveldb "github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/r5-labs/flexledger/storage/kv"
	"github.com/r5-labs/flexledger/storage/leveldb"
	"github.com/r5-labs/flexledger/storagetest"
)

func TestLevelDB(t *testing.T) {
	storagetest.TestKeyValueStoreSuite(t, func() kv.KeyValueStore {
		db, err := goleveldb.Open(storage.NewMemStorage(), nil)
		if err != nil {
			t.Fatal(err)
		}
		return leveldb.Wrap(db)
	})
}
