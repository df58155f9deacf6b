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

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/interindex"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/storage"
	"github.com/r5-labs/flexledger/storage/memorydb"
)

func newStore(t *testing.T) *storage.Store {
	return storage.New(memorydb.New())
}

func TestParameterRoundTrip(t *testing.T) {
	s := newStore(t)
	p := storage.Parameter{
		ErrorBounds:          0.5,
		EnableInterIndex:     true,
		EnableIntraIndex:     true,
		StartBlockID:         0,
		BlockCount:           10,
		InterIndexTimestamps: []uint64{10, 20},
	}
	require.NoError(t, s.SetParameter(p))

	got, err := s.GetParameter()
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func sampleTx(id uint64) block.Transaction {
	return block.Transaction{
		ID:      id,
		BlockID: 0,
		Value: block.TransactionValue{
			Address:    "addr",
			TransValue: 100 + id,
			TimeStamp:  42,
		},
	}
}

func TestBlockHeaderAndDataRoundTrip(t *testing.T) {
	s := newStore(t)
	txs := []block.Transaction{sampleTx(0), sampleTx(1)}

	bloom, err := block.BuildHeaderBloom(txs)
	require.NoError(t, err)

	h := block.BlockHeader{
		BlockID:     0,
		PrevHash:    nil,
		TimeStamp:   42,
		BMTRoot:     []byte{1, 2, 3},
		HeaderBloom: bloom,
	}
	require.NoError(t, s.WriteBlockHeader(h))

	got, err := s.ReadBlockHeader(0)
	require.NoError(t, err)
	require.Equal(t, h.BlockID, got.BlockID)
	require.True(t, got.HeaderBloom.Contains(block.BloomKeyID(0)))

	data := block.BlockData{BlockID: 0, TxIDs: []uint64{0, 1}, Txs: txs}
	require.NoError(t, s.WriteBlockData(data))

	gotData, err := s.ReadBlockData(0)
	require.NoError(t, err)
	require.Equal(t, data, gotData)
}

func TestIntraIndexRoundTripAndUpdate(t *testing.T) {
	s := newStore(t)
	txs := []block.Transaction{sampleTx(0), sampleTx(1), sampleTx(2)}

	om, err := intraindex.Build(intraindex.AttrID, txs)
	require.NoError(t, err)
	require.NoError(t, s.WriteIntraIndex(0, intraindex.AttrID, om))

	family, err := s.ReadIntraIndex(0)
	require.NoError(t, err)
	require.Contains(t, family, intraindex.AttrID)
	require.Equal(t, 3, family[intraindex.AttrID].Len())

	omAddr, err := intraindex.Build(intraindex.AttrAddress, txs)
	require.NoError(t, err)
	require.NoError(t, s.UpdateIntraIndex(0, map[intraindex.Attribute]*intraindex.OrderedMap{
		intraindex.AttrAddress: omAddr,
	}))

	family, err = s.ReadIntraIndex(0)
	require.NoError(t, err)
	require.NotContains(t, family, intraindex.AttrID)
	require.Contains(t, family, intraindex.AttrAddress)
}

func TestInterIndexesSortedByStartTimestamp(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetParameter(storage.Parameter{ErrorBounds: 0.5}))

	// Little-endian key encoding makes byte order diverge from numeric
	// order for these starts; the read path must still sort them.
	for _, start := range []uint64{256, 1, 1000, 513} {
		require.NoError(t, s.WriteInterIndex(interindex.Segment{StartTimestamp: start, A: 1, B: 0}))
	}

	idx, err := s.ReadInterIndexes()
	require.NoError(t, err)
	require.Len(t, idx.Segments, 4)
	starts := make([]uint64, len(idx.Segments))
	for i, seg := range idx.Segments {
		starts[i] = seg.StartTimestamp
	}
	require.Equal(t, []uint64{1, 256, 513, 1000}, starts)
	require.Equal(t, 0.5, idx.ErrorBound)
}

func TestIndexConfigRoundTrip(t *testing.T) {
	s := newStore(t)
	cfgs := []bandit.IndexConfig{
		{ID: "a", Attribute: intraindex.AttrID, BlockHeight: 0, Performance: 1, StorageCost: 10},
	}
	require.NoError(t, s.WriteIndexConfig(intraindex.AttrID, cfgs))

	got, err := s.ReadIndexConfig(intraindex.AttrID)
	require.NoError(t, err)
	require.Equal(t, cfgs, got)
}
