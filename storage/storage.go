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

// Package storage defines the ledger's Reader/Writer contract and a
// Database implementation backed by any storage/kv.KeyValueStore. The
// persisted byte layout is this package's own business except for the
// one explicitly human-readable document, Parameter, stored as JSON.
package storage

import (
	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/interindex"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/storage/rawdb"
)

// Parameter is the process-wide runtime configuration, persisted as
// the human-readable param.json document.
type Parameter = rawdb.Parameter

// Reader is the storage engine's read capability set.
type Reader interface {
	GetParameter() (Parameter, error)
	ReadBlockHeader(id uint64) (block.BlockHeader, error)
	ReadBlockData(id uint64) (block.BlockData, error)
	ReadIntraIndex(id uint64) (map[intraindex.Attribute]*intraindex.OrderedMap, error)
	ReadTransaction(id uint64) (block.Transaction, error)
	ReadInterIndex(startTimestamp uint64) (interindex.Segment, error)
	ReadInterIndexes() (*interindex.Index, error)
	ReadIndexConfig(attr intraindex.Attribute) ([]bandit.IndexConfig, error)
}

// Writer is the storage engine's write capability set.
type Writer interface {
	SetParameter(p Parameter) error
	WriteBlockHeader(h block.BlockHeader) error
	WriteBlockData(d block.BlockData) error
	WriteIntraIndex(id uint64, attr intraindex.Attribute, om *intraindex.OrderedMap) error
	WriteTransaction(tx block.Transaction) error
	WriteInterIndex(seg interindex.Segment) error
	WriteIndexConfig(attr intraindex.Attribute, cfgs []bandit.IndexConfig) error
	// UpdateIntraIndex atomically replaces the entire intra-index family
	// materialized for block id with the given per-attribute maps.
	UpdateIntraIndex(id uint64, family map[intraindex.Attribute]*intraindex.OrderedMap) error
}

// Database is the full Reader/Writer contract the engine depends on.
type Database interface {
	Reader
	Writer
	Close() error
}
