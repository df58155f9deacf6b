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

package bmt_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/bloomfilter"
	"github.com/r5-labs/flexledger/bmt"
	"github.com/r5-labs/flexledger/digest"
)

func TestBuildFourLeaves(t *testing.T) {
	tree := bmt.Build(digest.SHA512, [][]byte{
		[]byte("one"), []byte("two"), []byte("three"), []byte("four"),
	})
	require.Equal(t, 2, tree.Height)
	require.Equal(t, 4, tree.Count)
}

// TestBuildFourLeavesRootByHand recomputes the four-leaf SHA-512 root
// from first principles: leaf hashes under the 0x00 prefix, singleton
// Blooms unioned pairwise, and internal hashes over
// (0x01 || left || right || bloom bytes).
func TestBuildFourLeavesRootByHand(t *testing.T) {
	algo := digest.SHA512
	values := [][]byte{[]byte("one"), []byte("two"), []byte("three"), []byte("four")}
	tree := bmt.Build(algo, values)

	leafHash := func(v []byte) digest.Digest {
		return algo.HashBytes(append([]byte{0x00}, v...))
	}
	nodeHash := func(left, right digest.Digest, bloomBytes []byte) digest.Digest {
		buf := append([]byte{0x01}, left...)
		buf = append(buf, right...)
		buf = append(buf, bloomBytes...)
		return algo.HashBytes(buf)
	}
	singleton := func(h digest.Digest) bloomfilter.Filter {
		f, err := bloomfilter.NewSeeded(bmt.BloomConfig)
		require.NoError(t, err)
		f.Insert(h.Bytes())
		return f
	}

	h := make([]digest.Digest, 4)
	for i, v := range values {
		h[i] = leafHash(v)
	}

	bf01, err := bloomfilter.Union(singleton(h[0]), singleton(h[1]))
	require.NoError(t, err)
	bf23, err := bloomfilter.Union(singleton(h[2]), singleton(h[3]))
	require.NoError(t, err)

	n01 := nodeHash(h[0], h[1], bf01.Bytes())
	n23 := nodeHash(h[2], h[3], bf23.Bytes())

	bfRoot, err := bloomfilter.Union(bf01, bf23)
	require.NoError(t, err)
	want := nodeHash(n01, n23, bfRoot.Bytes())

	require.True(t, tree.RootHash().Equal(want))
}

func TestContainsKnownAndUnknown(t *testing.T) {
	tree := bmt.Build(digest.SHA512, [][]byte{
		[]byte("one"), []byte("two"), []byte("three"), []byte("four"),
	})
	require.True(t, tree.Contains([]byte("one")))

	missCount := 0
	for i := 0; i < 200; i++ {
		random := make([]byte, 32)
		_, err := rand.Read(random)
		require.NoError(t, err)
		if tree.Contains(random) {
			missCount++
		}
	}
	// With fp = 1e-4 false positives among 200 random probes should be rare.
	require.Less(t, missCount, 10)
}

func TestGenProofMembership(t *testing.T) {
	values := [][]byte{[]byte("one"), []byte("two"), []byte("three"), []byte("four")}
	tree := bmt.Build(digest.SHA512, values)

	for _, v := range values {
		proof, err := tree.GenProof(v)
		require.NoError(t, err)
		ok, err := proof.Validate(digest.SHA512, tree.RootHash())
		require.NoError(t, err)
		require.True(t, ok, "membership proof for %q should validate", v)
	}
}

func TestGenProofNonMembership(t *testing.T) {
	values := [][]byte{[]byte("one"), []byte("two"), []byte("three"), []byte("four")}
	tree := bmt.Build(digest.SHA512, values)

	proof, err := tree.GenProof([]byte("not-in-the-tree"))
	require.NoError(t, err)
	ok, valErr := proof.Validate(digest.SHA512, tree.RootHash())
	if valErr == nil {
		require.False(t, ok)
	}
}

func TestEmptyTree(t *testing.T) {
	tree := bmt.Build(digest.SHA512, nil)
	require.Equal(t, 0, tree.Height)
	require.Equal(t, 0, tree.Count)
	require.False(t, tree.Contains([]byte("anything")))

	_, err := tree.GenProof([]byte("anything"))
	require.Error(t, err)
}
