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

// Package block defines the ledger's append-only unit of storage: a
// header chained to its predecessor, and the ordered transaction data
// it commits to.
package block

import (
	"encoding/binary"
	"hash"

	"github.com/r5-labs/flexledger/bloomfilter"
	"github.com/r5-labs/flexledger/digest"
)

// HeaderBloomConfig is the fixed Bloom configuration for the
// block-level header filter (distinct from the BMT's own, smaller,
// per-node filters).
var HeaderBloomConfig = bloomfilter.Config{Capacity: 50000, FP: 1e-2}

// TransactionValue carries a transaction's queryable payload.
type TransactionValue struct {
	Address    string
	TransValue uint64
	TimeStamp  uint64
}

// Transaction is a single ledger entry. ID is globally unique and
// monotonic; BlockID matches the containing block; TimeStamp equals
// the containing block's TimeStamp.
type Transaction struct {
	ID      uint64
	BlockID uint64
	Value   TransactionValue
}

// WriteHash feeds the transaction's canonical byte representation into
// h, implementing digest.Hashable.
func (tx Transaction) WriteHash(h hash.Hash) {
	h.Write(encodeUint64(tx.ID))
	h.Write(encodeUint64(tx.BlockID))
	h.Write([]byte(tx.Value.Address))
	h.Write(encodeUint64(tx.Value.TransValue))
	h.Write(encodeUint64(tx.Value.TimeStamp))
}

// Bytes returns the transaction's canonical byte encoding, used as the
// leaf value fed into the block's Bloom-Merkle tree.
func (tx Transaction) Bytes() []byte {
	buf := make([]byte, 0, 8+8+len(tx.Value.Address)+8+8)
	buf = append(buf, encodeUint64(tx.ID)...)
	buf = append(buf, encodeUint64(tx.BlockID)...)
	buf = append(buf, []byte(tx.Value.Address)...)
	buf = append(buf, encodeUint64(tx.Value.TransValue)...)
	buf = append(buf, encodeUint64(tx.Value.TimeStamp)...)
	return buf
}

// BlockData is a block's ordered transactions, id list and transaction
// list held parallel by position.
type BlockData struct {
	BlockID uint64
	TxIDs   []uint64
	Txs     []Transaction
}

// BlockHeader is a block's chained, immutable summary.
type BlockHeader struct {
	BlockID     uint64
	PrevHash    digest.Digest
	TimeStamp   uint64
	BMTRoot     digest.Digest
	HeaderBloom bloomfilter.Filter
}

// WriteHash feeds the canonical (block_id, prev_hash, time_stamp)
// encoding into h, implementing digest.Hashable. This is the digest a
// successor header records as its own PrevHash.
func (bh BlockHeader) WriteHash(h hash.Hash) {
	h.Write(encodeUint64(bh.BlockID))
	h.Write(bh.PrevHash.Bytes())
	h.Write(encodeUint64(bh.TimeStamp))
}

// Hash returns the header's own digest under algo, for chaining into
// the next header's PrevHash.
func (bh BlockHeader) Hash(algo digest.Algorithm) digest.Digest {
	return algo.Hash(bh)
}

func encodeUint64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// Attribute tags distinguish numeric fields sharing the same encoded
// width when they're inserted into the shared header Bloom filter, so
// e.g. an id and a trans_value that encode to the same 8 bytes don't
// collide.
const (
	tagID      = 0x01
	tagAddress = 0x02
	tagValue   = 0x03
)

// BloomKeyID returns the header-Bloom key for an "id" probe.
func BloomKeyID(id uint64) []byte {
	return append([]byte{tagID}, encodeUint64(id)...)
}

// BloomKeyAddress returns the header-Bloom key for an "address" probe.
func BloomKeyAddress(addr string) []byte {
	return append([]byte{tagAddress}, []byte(addr)...)
}

// BloomKeyValue returns the header-Bloom key for a "value" probe.
func BloomKeyValue(v uint64) []byte {
	return append([]byte{tagValue}, encodeUint64(v)...)
}

// BuildHeaderBloom inserts every transaction's id, address and value
// into a fresh header-level Bloom filter.
func BuildHeaderBloom(txs []Transaction) (bloomfilter.Filter, error) {
	f, err := bloomfilter.NewSeeded(HeaderBloomConfig)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		f.Insert(BloomKeyID(tx.ID))
		f.Insert(BloomKeyAddress(tx.Value.Address))
		f.Insert(BloomKeyValue(tx.Value.TransValue))
	}
	return f, nil
}
