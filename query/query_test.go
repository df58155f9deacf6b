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

package query_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/ledgererr"
	"github.com/r5-labs/flexledger/query"
	"github.com/r5-labs/flexledger/storage"
	"github.com/r5-labs/flexledger/storage/memorydb"
)

func ptr(s string) *string { return &s }

func seedBlock(t *testing.T, s *storage.Store, id uint64, n int) []block.Transaction {
	t.Helper()
	txs := make([]block.Transaction, n)
	for i := 0; i < n; i++ {
		txs[i] = block.Transaction{
			ID:      id*100 + uint64(i),
			BlockID: id,
			Value: block.TransactionValue{
				Address:    "addr" + strconv.Itoa(i%3),
				TransValue: uint64(i * 10),
				TimeStamp:  id,
			},
		}
	}

	bloom, err := block.BuildHeaderBloom(txs)
	require.NoError(t, err)
	require.NoError(t, s.WriteBlockHeader(block.BlockHeader{
		BlockID:     id,
		TimeStamp:   id,
		HeaderBloom: bloom,
	}))

	ids := make([]uint64, n)
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	require.NoError(t, s.WriteBlockData(block.BlockData{BlockID: id, TxIDs: ids, Txs: txs}))

	for _, attr := range []intraindex.Attribute{intraindex.AttrID, intraindex.AttrAddress, intraindex.AttrValue} {
		om, err := intraindex.Build(attr, txs)
		require.NoError(t, err)
		require.NoError(t, s.WriteIntraIndex(id, attr, om))
	}

	return txs
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s := storage.New(memorydb.New())
	require.NoError(t, s.SetParameter(storage.Parameter{
		ErrorBounds:      1,
		EnableIntraIndex: true,
		StartBlockID:     0,
		BlockCount:       1,
	}))
	return s
}

// TestQueryMaterializedVsLinearAgree exercises a conjunction of
// address and value predicates over a 10-transaction block, once with
// the intra-index enabled and once without, asserting both paths
// return the identical matching set.
func TestQueryMaterializedVsLinearAgree(t *testing.T) {
	s := newTestStore(t)
	seedBlock(t, s, 0, 10)

	counters := query.NewCounters()
	e := query.NewEngine(s, counters, query.DefaultQueryThreshold, nil)

	qp := query.QueryParam{
		Predicates: []query.Predicate{
			{Attribute: intraindex.AttrAddress, Lo: ptr("addr0"), Hi: ptr("addr1")},
			{Attribute: intraindex.AttrValue, Lo: ptr("0"), Hi: ptr("50")},
		},
		BloomFilter: false,
		IntraIndex:  true,
	}
	withIdx, err := e.Query(qp)
	require.NoError(t, err)

	qp.IntraIndex = false
	withoutIdx, err := e.Query(qp)
	require.NoError(t, err)

	require.Equal(t, len(withIdx.Blocks), len(withoutIdx.Blocks))
	if len(withIdx.Blocks) > 0 {
		require.Equal(t, withIdx.Blocks[0].Transactions, withoutIdx.Blocks[0].Transactions)
	}
}

func TestQueryBloomPruneSkipsNonMatchingBlock(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetParameter(storage.Parameter{EnableIntraIndex: true, StartBlockID: 0, BlockCount: 1}))
	seedBlock(t, s, 0, 5)

	counters := query.NewCounters()
	e := query.NewEngine(s, counters, query.DefaultQueryThreshold, nil)

	qp := query.QueryParam{
		Predicates: []query.Predicate{
			{Attribute: intraindex.AttrAddress, Lo: ptr("nonexistent"), Hi: ptr("nonexistent\x00")},
		},
		BloomFilter: true,
		IntraIndex:  true,
	}
	result, err := e.Query(qp)
	require.NoError(t, err)
	require.Empty(t, result.Blocks)
}

func TestQueryThresholdTriggersCallback(t *testing.T) {
	s := newTestStore(t)
	seedBlock(t, s, 0, 3)

	counters := query.NewCounters()
	triggered := false
	e := query.NewEngine(s, counters, 2, func() { triggered = true })

	qp := query.QueryParam{
		Predicates: []query.Predicate{{Attribute: intraindex.AttrID, Lo: ptr("0"), Hi: nil}},
	}
	_, err := e.Query(qp)
	require.NoError(t, err)
	require.False(t, triggered)

	_, err = e.Query(qp)
	require.NoError(t, err)
	require.True(t, triggered)
}

func TestNewQueryParamMismatchedLengths(t *testing.T) {
	_, err := query.NewQueryParam(
		[]intraindex.Attribute{intraindex.AttrID, intraindex.AttrAddress},
		[]*string{ptr("0")},
		[]*string{nil, nil},
		false, false,
	)
	require.ErrorIs(t, err, ledgererr.ErrMalformedQuery)
}

func TestNewQueryParamBuildsPredicates(t *testing.T) {
	qp, err := query.NewQueryParam(
		[]intraindex.Attribute{intraindex.AttrID},
		[]*string{ptr("5")},
		[]*string{ptr("9")},
		true, true,
	)
	require.NoError(t, err)
	require.Equal(t, []query.Predicate{{Attribute: intraindex.AttrID, Lo: ptr("5"), Hi: ptr("9")}}, qp.Predicates)
	require.True(t, qp.BloomFilter)
	require.True(t, qp.IntraIndex)
}

func TestQueryUnknownAttributeFailsEagerly(t *testing.T) {
	s := newTestStore(t)
	seedBlock(t, s, 0, 2)

	counters := query.NewCounters()
	e := query.NewEngine(s, counters, query.DefaultQueryThreshold, nil)

	qp := query.QueryParam{
		Predicates: []query.Predicate{{Attribute: "bogus", Lo: ptr("0"), Hi: nil}},
	}
	_, err := e.Query(qp)
	require.ErrorIs(t, err, ledgererr.ErrUnknownAttribute)
}

func TestQueryMalformedRangeBound(t *testing.T) {
	s := newTestStore(t)
	seedBlock(t, s, 0, 2)

	counters := query.NewCounters()
	e := query.NewEngine(s, counters, query.DefaultQueryThreshold, nil)

	qp := query.QueryParam{
		Predicates: []query.Predicate{{Attribute: intraindex.AttrID, Lo: ptr("not-a-number"), Hi: nil}},
	}
	_, err := e.Query(qp)
	require.Error(t, err)
}
