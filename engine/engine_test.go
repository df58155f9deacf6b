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

package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/engine"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/query"
	"github.com/r5-labs/flexledger/storage"
	"github.com/r5-labs/flexledger/storage/memorydb"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	s := storage.New(memorydb.New())
	require.NoError(t, s.SetParameter(storage.Parameter{
		ErrorBounds:      1,
		EnableIntraIndex: true,
		StartBlockID:     0,
		BlockCount:       0,
	}))
	b := bandit.New(nil, bandit.DefaultTemperature, bandit.DefaultBudgetBytes)
	return engine.New(s, digest.SHA512, engine.NewStructuralVerifier(64), b, query.DefaultQueryThreshold)
}

func txsFor(blockID, timestamp uint64) []block.Transaction {
	return []block.Transaction{
		{ID: blockID*10 + 0, BlockID: blockID, Value: block.TransactionValue{Address: "addr0", TransValue: 10, TimeStamp: timestamp}},
		{ID: blockID*10 + 1, BlockID: blockID, Value: block.TransactionValue{Address: "addr1", TransValue: 20, TimeStamp: timestamp}},
	}
}

func TestAppendBlockChainsHeaders(t *testing.T) {
	e := newTestEngine(t)

	h0, err := e.AppendBlock(0, nil, txsFor(0, 100))
	require.NoError(t, err)
	require.Nil(t, h0.PrevHash)

	h1, err := e.AppendBlock(1, &h0, txsFor(1, 200))
	require.NoError(t, err)
	require.True(t, h1.PrevHash.Equal(h0.Hash(digest.SHA512)))

	got, err := e.DB.ReadBlockHeader(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.BlockID)
}

func TestAppendBlockRejectsEmpty(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AppendBlock(0, nil, nil)
	require.Error(t, err)
}

func TestQueryAfterAppend(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AppendBlock(0, nil, txsFor(0, 100))
	require.NoError(t, err)

	lo := "5"
	result, err := e.Query.Query(query.QueryParam{
		Predicates: []query.Predicate{{Attribute: intraindex.AttrValue, Lo: &lo}},
	})
	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)
	require.Len(t, result.Blocks[0].Transactions, 2)
}

func TestStructuralVerifierChecksShape(t *testing.T) {
	v := engine.NewStructuralVerifier(8)
	txs := txsFor(0, 1)
	ok, err := v.Verify(txs, make([]byte, 16))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(txs, make([]byte, 3))
	require.NoError(t, err)
	require.False(t, ok)
}
