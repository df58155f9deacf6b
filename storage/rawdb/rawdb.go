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

// Package rawdb implements the typed record accessors over a raw
// storage/kv.KeyValueStore: one read and one write function per record
// family, each owning that family's key schema and serialization.
// Records are serialized with encoding/json, the same format the
// parameter document itself mandates.
package rawdb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/bloomfilter"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/ledgererr"
	"github.com/r5-labs/flexledger/log"
	"github.com/r5-labs/flexledger/storage/kv"
)

var (
	paramKey = []byte("param.json")

	headerPrefix      = []byte("h") // headerPrefix + num (LE 8 bytes) -> header
	dataPrefix        = []byte("d") // dataPrefix + num -> block data
	txPrefix          = []byte("t") // txPrefix + num -> transaction
	intraIndexPrefix  = []byte("i") // intraIndexPrefix + num + attribute -> ordered map txs
	interIndexPrefix  = []byte("s") // interIndexPrefix + start_ts (LE 8 bytes) -> segment
	indexConfigPrefix = []byte("c") // indexConfigPrefix + attribute -> []IndexConfig
)

func encodeUint64(n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return b[:]
}

func numKey(prefix []byte, n uint64) []byte {
	return append(append([]byte{}, prefix...), encodeUint64(n)...)
}

func attrKey(prefix []byte, attr intraindex.Attribute) []byte {
	return append(append([]byte{}, prefix...), []byte(attr)...)
}

func intraIndexKey(id uint64, attr intraindex.Attribute) []byte {
	k := numKey(intraIndexPrefix, id)
	return append(k, []byte(attr)...)
}

// ReadParameter loads the process-wide parameter document.
func ReadParameter(db kv.KeyValueReader) (Parameter, error) {
	data, err := db.Get(paramKey)
	if err != nil {
		return Parameter{}, ledgererr.ErrStorageUnavailable
	}
	var p Parameter
	if err := json.Unmarshal(data, &p); err != nil {
		return Parameter{}, fmt.Errorf("%w: param.json: %v", ledgererr.ErrCorruption, err)
	}
	return p, nil
}

// WriteParameter stores the process-wide parameter document.
func WriteParameter(db kv.KeyValueWriter, p Parameter) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: param.json: %v", ledgererr.ErrCorruption, err)
	}
	if err := db.Put(paramKey, data); err != nil {
		log.Error("Failed to write parameter document", "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// headerDTO is BlockHeader's on-disk shape: the embedded Bloom filter
// interface is flattened to its (k, m) shape plus raw bitset bytes so
// it round-trips through JSON without a custom Marshaler on the
// bloomfilter.Filter interface itself.
type headerDTO struct {
	BlockID    uint64 `json:"block_id"`
	PrevHash   []byte `json:"prev_hash"`
	TimeStamp  uint64 `json:"time_stamp"`
	BMTRoot    []byte `json:"bmt_root"`
	BloomK     uint64 `json:"bloom_k"`
	BloomM     uint64 `json:"bloom_m"`
	BloomBytes []byte `json:"bloom_bytes"`
}

// ReadBlockHeader loads a block header by id.
func ReadBlockHeader(db kv.KeyValueReader, id uint64) (block.BlockHeader, error) {
	data, err := db.Get(numKey(headerPrefix, id))
	if err != nil {
		return block.BlockHeader{}, ledgererr.ErrStorageUnavailable
	}
	var dto headerDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return block.BlockHeader{}, fmt.Errorf("%w: block header %d: %v", ledgererr.ErrCorruption, id, err)
	}
	return block.BlockHeader{
		BlockID:     dto.BlockID,
		PrevHash:    dto.PrevHash,
		TimeStamp:   dto.TimeStamp,
		BMTRoot:     dto.BMTRoot,
		HeaderBloom: bloomfilter.SeededFromBytes(bloomfilter.Params{K: dto.BloomK, M: dto.BloomM}, dto.BloomBytes),
	}, nil
}

// WriteBlockHeader stores a block header. Per the ledger's ordering
// contract, callers must write block data and its BMT before the
// header: a reader that observes a header may assume data is present.
func WriteBlockHeader(db kv.KeyValueWriter, h block.BlockHeader) error {
	params := h.HeaderBloom.Params()
	dto := headerDTO{
		BlockID:    h.BlockID,
		PrevHash:   h.PrevHash.Bytes(),
		TimeStamp:  h.TimeStamp,
		BMTRoot:    h.BMTRoot.Bytes(),
		BloomK:     params.K,
		BloomM:     params.M,
		BloomBytes: h.HeaderBloom.Bytes(),
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("%w: block header %d: %v", ledgererr.ErrCorruption, h.BlockID, err)
	}
	if err := db.Put(numKey(headerPrefix, h.BlockID), data); err != nil {
		log.Error("Failed to write block header", "id", h.BlockID, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// ReadBlockData loads a block's ordered transactions by block id.
func ReadBlockData(db kv.KeyValueReader, id uint64) (block.BlockData, error) {
	data, err := db.Get(numKey(dataPrefix, id))
	if err != nil {
		return block.BlockData{}, ledgererr.ErrStorageUnavailable
	}
	var bd block.BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return block.BlockData{}, fmt.Errorf("%w: block data %d: %v", ledgererr.ErrCorruption, id, err)
	}
	return bd, nil
}

// WriteBlockData stores a block's ordered transactions.
func WriteBlockData(db kv.KeyValueWriter, d block.BlockData) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%w: block data %d: %v", ledgererr.ErrCorruption, d.BlockID, err)
	}
	if err := db.Put(numKey(dataPrefix, d.BlockID), data); err != nil {
		log.Error("Failed to write block data", "id", d.BlockID, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// ReadTransaction loads a single transaction by its global id.
func ReadTransaction(db kv.KeyValueReader, id uint64) (block.Transaction, error) {
	data, err := db.Get(numKey(txPrefix, id))
	if err != nil {
		return block.Transaction{}, ledgererr.ErrStorageUnavailable
	}
	var tx block.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return block.Transaction{}, fmt.Errorf("%w: transaction %d: %v", ledgererr.ErrCorruption, id, err)
	}
	return tx, nil
}

// WriteTransaction stores a single transaction.
func WriteTransaction(db kv.KeyValueWriter, tx block.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("%w: transaction %d: %v", ledgererr.ErrCorruption, tx.ID, err)
	}
	if err := db.Put(numKey(txPrefix, tx.ID), data); err != nil {
		log.Error("Failed to write transaction", "id", tx.ID, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// ReadIntraIndex loads the materialized intra-index family for block
// id, rebuilding each attribute's ordered map from its persisted
// transaction list. Attributes with no persisted entry are absent from
// the returned map rather than erroring, matching the "empty map for
// absent block" read contract.
func ReadIntraIndex(db kv.KeyValueReader, id uint64) (map[intraindex.Attribute]*intraindex.OrderedMap, error) {
	out := make(map[intraindex.Attribute]*intraindex.OrderedMap)
	for _, attr := range []intraindex.Attribute{intraindex.AttrID, intraindex.AttrAddress, intraindex.AttrValue} {
		has, err := db.Has(intraIndexKey(id, attr))
		if err != nil {
			return nil, ledgererr.ErrStorageUnavailable
		}
		if !has {
			continue
		}
		om, err := readOneIntraIndex(db, id, attr)
		if err != nil {
			return nil, err
		}
		out[attr] = om
	}
	return out, nil
}

func readOneIntraIndex(db kv.KeyValueReader, id uint64, attr intraindex.Attribute) (*intraindex.OrderedMap, error) {
	data, err := db.Get(intraIndexKey(id, attr))
	if err != nil {
		return nil, ledgererr.ErrStorageUnavailable
	}
	var txs []block.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("%w: intra-index %d/%s: %v", ledgererr.ErrCorruption, id, attr, err)
	}
	return intraindex.Build(attr, txs)
}

// WriteIntraIndex persists a single attribute's materialized ordered
// map for block id.
func WriteIntraIndex(db kv.KeyValueWriter, id uint64, attr intraindex.Attribute, om *intraindex.OrderedMap) error {
	data, err := json.Marshal(om.Transactions())
	if err != nil {
		return fmt.Errorf("%w: intra-index %d/%s: %v", ledgererr.ErrCorruption, id, attr, err)
	}
	if err := db.Put(intraIndexKey(id, attr), data); err != nil {
		log.Error("Failed to write intra-index", "id", id, "attribute", attr, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// DeleteIntraIndex removes one attribute's materialized map for block id.
func DeleteIntraIndex(db kv.KeyValueWriter, id uint64, attr intraindex.Attribute) error {
	if err := db.Delete(intraIndexKey(id, attr)); err != nil {
		log.Error("Failed to delete intra-index", "id", id, "attribute", attr, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// UpdateIntraIndex atomically replaces the entire intra-index family
// materialized for block id using a single batch write.
func UpdateIntraIndex(db kv.KeyValueStore, id uint64, family map[intraindex.Attribute]*intraindex.OrderedMap) error {
	b := db.NewBatch()
	for _, attr := range []intraindex.Attribute{intraindex.AttrID, intraindex.AttrAddress, intraindex.AttrValue} {
		om, wanted := family[attr]
		if !wanted {
			if err := b.Delete(intraIndexKey(id, attr)); err != nil {
				return ledgererr.ErrStorageUnavailable
			}
			continue
		}
		data, err := json.Marshal(om.Transactions())
		if err != nil {
			return fmt.Errorf("%w: intra-index %d/%s: %v", ledgererr.ErrCorruption, id, attr, err)
		}
		if err := b.Put(intraIndexKey(id, attr), data); err != nil {
			return ledgererr.ErrStorageUnavailable
		}
	}
	if err := b.Write(); err != nil {
		log.Error("Failed to apply intra-index batch", "id", id, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// InterIndexSegment mirrors interindex.Segment for persistence.
type InterIndexSegment struct {
	StartTimestamp uint64  `json:"start_timestamp"`
	A              float64 `json:"a"`
	B              float64 `json:"b"`
}

// ReadInterIndex loads the single segment starting at startTimestamp.
func ReadInterIndex(db kv.KeyValueReader, startTimestamp uint64) (InterIndexSegment, error) {
	data, err := db.Get(numKey(interIndexPrefix, startTimestamp))
	if err != nil {
		return InterIndexSegment{}, ledgererr.ErrStorageUnavailable
	}
	var dto InterIndexSegment
	if err := json.Unmarshal(data, &dto); err != nil {
		return InterIndexSegment{}, fmt.Errorf("%w: inter-index segment %d: %v", ledgererr.ErrCorruption, startTimestamp, err)
	}
	return dto, nil
}

// WriteInterIndex persists one inter-index segment.
func WriteInterIndex(db kv.KeyValueWriter, dto InterIndexSegment) error {
	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("%w: inter-index segment %d: %v", ledgererr.ErrCorruption, dto.StartTimestamp, err)
	}
	if err := db.Put(numKey(interIndexPrefix, dto.StartTimestamp), data); err != nil {
		log.Error("Failed to write inter-index segment", "start", dto.StartTimestamp, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// ReadInterIndexes loads every persisted segment and returns them in
// start-timestamp order. The iterator yields keys in byte order, which
// for little-endian-encoded timestamps is not numeric order, so the
// result is sorted explicitly.
func ReadInterIndexes(db kv.KeyValueStore) ([]InterIndexSegment, error) {
	it := db.NewIterator(interIndexPrefix)
	defer it.Release()

	var out []InterIndexSegment
	for it.Next() {
		var dto InterIndexSegment
		if err := json.Unmarshal(it.Value(), &dto); err != nil {
			return nil, fmt.Errorf("%w: inter-index segment: %v", ledgererr.ErrCorruption, err)
		}
		out = append(out, dto)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTimestamp < out[j].StartTimestamp })
	return out, nil
}

// ReadIndexConfig loads the persisted arm list for attr.
func ReadIndexConfig(db kv.KeyValueReader, attr intraindex.Attribute) ([]bandit.IndexConfig, error) {
	data, err := db.Get(attrKey(indexConfigPrefix, attr))
	if err != nil {
		return nil, nil
	}
	var cfgs []bandit.IndexConfig
	if err := json.Unmarshal(data, &cfgs); err != nil {
		return nil, fmt.Errorf("%w: index config %s: %v", ledgererr.ErrCorruption, attr, err)
	}
	return cfgs, nil
}

// WriteIndexConfig persists the arm list for attr.
func WriteIndexConfig(db kv.KeyValueWriter, attr intraindex.Attribute, cfgs []bandit.IndexConfig) error {
	data, err := json.Marshal(cfgs)
	if err != nil {
		return fmt.Errorf("%w: index config %s: %v", ledgererr.ErrCorruption, attr, err)
	}
	if err := db.Put(attrKey(indexConfigPrefix, attr), data); err != nil {
		log.Error("Failed to write index config", "attribute", attr, "err", err)
		return ledgererr.ErrStorageUnavailable
	}
	return nil
}

// Parameter is the process-wide runtime configuration, persisted as
// the human-readable param.json document. It lives here rather than in
// the storage package so the accessor functions above can reference it
// without an import cycle; storage.Parameter is a type alias to this.
type Parameter struct {
	ErrorBounds          float64  `json:"error_bounds"`
	EnableInterIndex     bool     `json:"inter_index"`
	EnableIntraIndex     bool     `json:"intra_index"`
	StartBlockID         uint64   `json:"start_block_id"`
	BlockCount           uint64   `json:"block_count"`
	InterIndexTimestamps []uint64 `json:"inter_index_timestamps"`
}
