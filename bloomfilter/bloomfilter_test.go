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

package bloomfilter_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/bloomfilter"
	"github.com/r5-labs/flexledger/ledgererr"
)

func cfg() bloomfilter.Config {
	return bloomfilter.Config{Capacity: 1000, FP: 0.01}
}

func TestZeroCapacityFails(t *testing.T) {
	_, err := bloomfilter.NewKM(bloomfilter.Config{Capacity: 0, FP: 0.01})
	require.ErrorIs(t, err, ledgererr.ErrInvalidParameter)

	_, err = bloomfilter.NewSeeded(bloomfilter.Config{Capacity: 0, FP: 0.01})
	require.ErrorIs(t, err, ledgererr.ErrInvalidParameter)
}

func TestKMInsertContains(t *testing.T) {
	f, err := bloomfilter.NewKM(cfg())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		f.Insert([]byte(fmt.Sprintf("key-%d", i)))
	}
	for i := 0; i < 100; i++ {
		require.True(t, f.Contains([]byte(fmt.Sprintf("key-%d", i))))
	}
}

func TestSeededInsertContains(t *testing.T) {
	f, err := bloomfilter.NewSeeded(cfg())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		f.Insert([]byte(fmt.Sprintf("key-%d", i)))
	}
	for i := 0; i < 100; i++ {
		require.True(t, f.Contains([]byte(fmt.Sprintf("key-%d", i))))
	}
}

func TestUnionIntersectSemantics(t *testing.T) {
	a, err := bloomfilter.NewKM(cfg())
	require.NoError(t, err)
	b, err := bloomfilter.NewKM(cfg())
	require.NoError(t, err)

	a.Insert([]byte("only-a"))
	b.Insert([]byte("only-b"))
	a.Insert([]byte("both"))
	b.Insert([]byte("both"))

	u, err := bloomfilter.Union(a, b)
	require.NoError(t, err)
	require.True(t, u.Contains([]byte("only-a")))
	require.True(t, u.Contains([]byte("only-b")))
	require.True(t, u.Contains([]byte("both")))

	inter, err := bloomfilter.Intersect(a, b)
	require.NoError(t, err)
	require.True(t, inter.Contains([]byte("both")))
}

func TestConfigurationMismatch(t *testing.T) {
	a, err := bloomfilter.NewKM(bloomfilter.Config{Capacity: 100, FP: 0.01})
	require.NoError(t, err)
	b, err := bloomfilter.NewKM(bloomfilter.Config{Capacity: 100000, FP: 0.0001})
	require.NoError(t, err)

	_, err = bloomfilter.Union(a, b)
	require.ErrorIs(t, err, ledgererr.ErrConfigurationMismatch)

	_, err = bloomfilter.Intersect(a, b)
	require.ErrorIs(t, err, ledgererr.ErrConfigurationMismatch)
}

func TestApproximateCountAndFP(t *testing.T) {
	f, err := bloomfilter.NewSeeded(cfg())
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		f.Insert([]byte(fmt.Sprintf("item-%d", i)))
	}
	count := f.ApproximateCount()
	require.InDelta(t, 500, count, 100)

	fp := f.ApproximateFP()
	require.Greater(t, fp, 0.0)
	require.Less(t, fp, 1.0)
}

func TestBytesRoundTrip(t *testing.T) {
	f, err := bloomfilter.NewKM(cfg())
	require.NoError(t, err)
	f.Insert([]byte("roundtrip"))

	restored := bloomfilter.KMFromBytes(f.Params(), f.Bytes())
	require.True(t, restored.Contains([]byte("roundtrip")))
}
