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

package storage

import (
	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/interindex"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/storage/kv"
	"github.com/r5-labs/flexledger/storage/rawdb"
)

// Store implements Database over any storage/kv.KeyValueStore, calling
// through to the typed rawdb accessors for every operation.
type Store struct {
	db kv.KeyValueStore
}

// New wraps kvs as a Database.
func New(kvs kv.KeyValueStore) *Store {
	return &Store{db: kvs}
}

func (s *Store) GetParameter() (Parameter, error) {
	return rawdb.ReadParameter(s.db)
}

func (s *Store) SetParameter(p Parameter) error {
	return rawdb.WriteParameter(s.db, p)
}

func (s *Store) ReadBlockHeader(id uint64) (block.BlockHeader, error) {
	return rawdb.ReadBlockHeader(s.db, id)
}

func (s *Store) WriteBlockHeader(h block.BlockHeader) error {
	return rawdb.WriteBlockHeader(s.db, h)
}

func (s *Store) ReadBlockData(id uint64) (block.BlockData, error) {
	return rawdb.ReadBlockData(s.db, id)
}

func (s *Store) WriteBlockData(d block.BlockData) error {
	return rawdb.WriteBlockData(s.db, d)
}

func (s *Store) ReadTransaction(id uint64) (block.Transaction, error) {
	return rawdb.ReadTransaction(s.db, id)
}

func (s *Store) WriteTransaction(tx block.Transaction) error {
	return rawdb.WriteTransaction(s.db, tx)
}

func (s *Store) ReadIntraIndex(id uint64) (map[intraindex.Attribute]*intraindex.OrderedMap, error) {
	return rawdb.ReadIntraIndex(s.db, id)
}

func (s *Store) WriteIntraIndex(id uint64, attr intraindex.Attribute, om *intraindex.OrderedMap) error {
	return rawdb.WriteIntraIndex(s.db, id, attr, om)
}

func (s *Store) UpdateIntraIndex(id uint64, family map[intraindex.Attribute]*intraindex.OrderedMap) error {
	return rawdb.UpdateIntraIndex(s.db, id, family)
}

func (s *Store) ReadInterIndex(startTimestamp uint64) (interindex.Segment, error) {
	dto, err := rawdb.ReadInterIndex(s.db, startTimestamp)
	if err != nil {
		return interindex.Segment{}, err
	}
	return interindex.Segment{StartTimestamp: dto.StartTimestamp, A: dto.A, B: dto.B}, nil
}

func (s *Store) WriteInterIndex(seg interindex.Segment) error {
	return rawdb.WriteInterIndex(s.db, rawdb.InterIndexSegment{
		StartTimestamp: seg.StartTimestamp,
		A:              seg.A,
		B:              seg.B,
	})
}

func (s *Store) ReadInterIndexes() (*interindex.Index, error) {
	dtos, err := rawdb.ReadInterIndexes(s.db)
	if err != nil {
		return nil, err
	}
	param, err := s.GetParameter()
	if err != nil {
		return nil, err
	}
	idx := &interindex.Index{ErrorBound: param.ErrorBounds}
	for _, dto := range dtos {
		idx.Segments = append(idx.Segments, interindex.Segment{StartTimestamp: dto.StartTimestamp, A: dto.A, B: dto.B})
	}
	return idx, nil
}

func (s *Store) ReadIndexConfig(attr intraindex.Attribute) ([]bandit.IndexConfig, error) {
	return rawdb.ReadIndexConfig(s.db, attr)
}

func (s *Store) WriteIndexConfig(attr intraindex.Attribute, cfgs []bandit.IndexConfig) error {
	return rawdb.WriteIndexConfig(s.db, attr, cfgs)
}

func (s *Store) Close() error {
	return s.db.Close()
}
