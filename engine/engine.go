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

// Package engine ties the storage, query, bandit, forecast and
// index-manager components into the single entry point the rest of
// the module drives: append a block, run a query. Proof verification
// runs in the lightnode package, which takes a SignatureVerifier.
// Every piece of process-wide state (counters, the bandit's arm set)
// is owned here and injected at construction, never a package-level
// global.
package engine

import (
	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/bmt"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/indexmanager"
	"github.com/r5-labs/flexledger/interindex"
	"github.com/r5-labs/flexledger/ledgererr"
	"github.com/r5-labs/flexledger/log"
	"github.com/r5-labs/flexledger/query"
	"github.com/r5-labs/flexledger/storage"
)

// SignatureVerifier is the injected transaction-signing collaborator.
// Signature generation and aggregate-signature cryptography are
// explicitly out of scope; Verify performs only the structural checks
// this engine can make on its own (proof shape/length), delegating the
// actual cryptographic verification to the caller's implementation.
type SignatureVerifier interface {
	Verify(txs []block.Transaction, proof []byte) (bool, error)
}

// structuralVerifier is the default SignatureVerifier: it accepts a
// proof whose length is exactly len(txs) times a positive
// per-transaction signature width, without attempting real
// cryptographic verification.
type structuralVerifier struct{ sigWidth int }

// NewStructuralVerifier returns a SignatureVerifier that checks only
// that proof's shape is consistent with txs, used when no real
// signature scheme is wired in.
func NewStructuralVerifier(sigWidth int) SignatureVerifier {
	return &structuralVerifier{sigWidth: sigWidth}
}

func (v *structuralVerifier) Verify(txs []block.Transaction, proof []byte) (bool, error) {
	if v.sigWidth <= 0 || len(proof) != len(txs)*v.sigWidth {
		return false, nil
	}
	return true, nil
}

// Engine is the ledger's single entry point for ingestion and queries;
// it also carries the SignatureVerifier it was constructed with.
type Engine struct {
	DB       storage.Database
	Algo     digest.Algorithm
	Verifier SignatureVerifier

	Query    *query.Engine
	Counters *query.Counters
	Bandit   *bandit.Bandit
	Manager  *indexmanager.Manager
}

// New constructs an Engine over db, wiring one Counters instance
// shared between the query executor and the index manager, and the
// index manager's Run as the query executor's threshold callback.
func New(db storage.Database, algo digest.Algorithm, verifier SignatureVerifier, b *bandit.Bandit, threshold uint64) *Engine {
	counters := query.NewCounters()
	manager := indexmanager.New(db, counters, b)
	e := &Engine{
		DB:       db,
		Algo:     algo,
		Verifier: verifier,
		Counters: counters,
		Bandit:   b,
		Manager:  manager,
	}
	e.Query = query.NewEngine(db, counters, threshold, manager.Run)
	return e
}

// AppendBlock builds a block's BMT and header from txs, writes header,
// data and the inter-index segment, and chains the header to prev.
// Intra-indexes are not materialized here; they are added lazily by
// the index manager.
func (e *Engine) AppendBlock(blockID uint64, prev *block.BlockHeader, txs []block.Transaction) (block.BlockHeader, error) {
	if len(txs) == 0 {
		return block.BlockHeader{}, ledgererr.ErrInvalidParameter
	}
	timestamp := txs[0].Value.TimeStamp

	leaves := make([][]byte, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.Bytes()
	}
	tree := bmt.Build(e.Algo, leaves)

	bloom, err := block.BuildHeaderBloom(txs)
	if err != nil {
		log.Error("engine: failed to build header bloom", "block_id", blockID, "err", err)
		return block.BlockHeader{}, err
	}

	var prevHash digest.Digest
	if prev != nil {
		prevHash = prev.Hash(e.Algo)
	}

	header := block.BlockHeader{
		BlockID:     blockID,
		PrevHash:    prevHash,
		TimeStamp:   timestamp,
		BMTRoot:     tree.RootHash(),
		HeaderBloom: bloom,
	}

	ids := make([]uint64, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}

	if err := e.DB.WriteBlockData(block.BlockData{BlockID: blockID, TxIDs: ids, Txs: txs}); err != nil {
		log.Error("engine: failed to write block data", "block_id", blockID, "err", err)
		return block.BlockHeader{}, err
	}
	for _, tx := range txs {
		if err := e.DB.WriteTransaction(tx); err != nil {
			log.Error("engine: failed to write transaction", "tx_id", tx.ID, "err", err)
			return block.BlockHeader{}, err
		}
	}
	if err := e.DB.WriteBlockHeader(header); err != nil {
		log.Error("engine: failed to write block header", "block_id", blockID, "err", err)
		return block.BlockHeader{}, err
	}

	if err := e.appendInterIndexPoint(timestamp, blockID); err != nil {
		log.Error("engine: failed to extend inter-index", "block_id", blockID, "err", err)
		return block.BlockHeader{}, err
	}

	return header, nil
}

// appendInterIndexPoint folds one more (timestamp, block id) training
// point into the inter-block learned index and persists every segment
// of the rebuilt index; persisted segments the rebuild no longer
// produces are not deleted.
func (e *Engine) appendInterIndexPoint(timestamp, blockID uint64) error {
	param, err := e.DB.GetParameter()
	if err != nil {
		return err
	}

	points, err := e.loadTrainingPoints(param)
	if err != nil {
		return err
	}
	points = append(points, interindex.Point{Timestamp: timestamp, BlockID: blockID})

	idx, err := interindex.Build(points, param.ErrorBounds)
	if err != nil {
		return err
	}

	for _, seg := range idx.Segments {
		if err := e.DB.WriteInterIndex(seg); err != nil {
			return err
		}
	}

	param.InterIndexTimestamps = segmentStarts(idx.Segments)
	param.BlockCount = blockID - param.StartBlockID + 1
	return e.DB.SetParameter(param)
}

func segmentStarts(segs []interindex.Segment) []uint64 {
	out := make([]uint64, len(segs))
	for i, s := range segs {
		out[i] = s.StartTimestamp
	}
	return out
}

// loadTrainingPoints reconstructs the ingest-order training set the
// learned index was built from, from the persisted block headers
// covering the configured range.
func (e *Engine) loadTrainingPoints(param storage.Parameter) ([]interindex.Point, error) {
	if param.BlockCount == 0 {
		return nil, nil
	}
	points := make([]interindex.Point, 0, param.BlockCount)
	for id := param.StartBlockID; id < param.StartBlockID+param.BlockCount; id++ {
		h, err := e.DB.ReadBlockHeader(id)
		if err != nil {
			return nil, err
		}
		points = append(points, interindex.Point{Timestamp: h.TimeStamp, BlockID: id})
	}
	return points, nil
}
