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

package interindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/interindex"
	"github.com/r5-labs/flexledger/ledgererr"
)

func points(ts []uint64, ids []uint64) []interindex.Point {
	pts := make([]interindex.Point, len(ts))
	for i := range ts {
		pts[i] = interindex.Point{Timestamp: ts[i], BlockID: ids[i]}
	}
	return pts
}

func TestFiveBlocksSingleSegment(t *testing.T) {
	idx, err := interindex.Build(points(
		[]uint64{10, 20, 30, 40, 50},
		[]uint64{0, 1, 2, 3, 4},
	), 0)
	require.NoError(t, err)
	require.Len(t, idx.Segments, 1)
	require.Equal(t, uint64(10), idx.Segments[0].StartTimestamp)
	require.InDelta(t, 0.1, idx.Segments[0].A, 1e-9)
	require.InDelta(t, -1.0, idx.Segments[0].B, 1e-9)

	lo, hi, err := idx.Lookup(35, 0, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(3), lo)
	require.Equal(t, uint64(3), hi)
}

func TestElevenBlocksTwoSegments(t *testing.T) {
	idx, err := interindex.Build(points(
		[]uint64{10, 20, 30, 40, 50, 60, 70, 80, 1000, 1010, 1020},
		[]uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	), 0.5)
	require.NoError(t, err)
	require.Len(t, idx.Segments, 2)
	require.Equal(t, uint64(10), idx.Segments[0].StartTimestamp)
	require.Equal(t, uint64(1000), idx.Segments[1].StartTimestamp)
}

func TestEmptyIndexLookupFails(t *testing.T) {
	idx, err := interindex.Build(nil, 1)
	require.NoError(t, err)
	_, _, err = idx.Lookup(10, 0, 1)
	require.ErrorIs(t, err, ledgererr.ErrNotBuilt)
}

func TestOutOfOrderFails(t *testing.T) {
	_, err := interindex.Build(points([]uint64{10, 5}, []uint64{0, 1}), 1)
	require.ErrorIs(t, err, ledgererr.ErrOutOfOrder)
}
