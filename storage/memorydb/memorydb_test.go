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

package memorydb_test

import (
	"testing"

	"github.com/r5-labs/flexledger/storage/kv"
	"github.com/r5-labs/flexledger/storage/memorydb"
	"github.com/r5-labs/flexledger/storagetest"
)

func TestMemoryDB(t *testing.T) {
	storagetest.TestKeyValueStoreSuite(t, func() kv.KeyValueStore {
		return memorydb.New()
	})
}
