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

package lightnode_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/bmt"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/engine"
	"github.com/r5-labs/flexledger/lightnode"
	"github.com/r5-labs/flexledger/storage"
)

type fakeTransport struct {
	header block.BlockHeader
	err    error
}

func (f *fakeTransport) FetchParameter(ctx context.Context) (storage.Parameter, error) {
	return storage.Parameter{}, nil
}

func (f *fakeTransport) FetchBlockHeader(ctx context.Context, id uint64) (block.BlockHeader, error) {
	return f.header, f.err
}

func TestVerifyMembershipValid(t *testing.T) {
	algo := digest.SHA512
	values := [][]byte{[]byte("one"), []byte("two"), []byte("three"), []byte("four")}
	tree := bmt.Build(algo, values)

	proof, err := tree.GenProof(values[0])
	require.NoError(t, err)

	header := block.BlockHeader{BlockID: 0, BMTRoot: tree.RootHash()}
	c := lightnode.New(&fakeTransport{header: header})

	verifier := engine.NewStructuralVerifier(4)
	txs := []block.Transaction{{ID: 1}}
	sig := make([]byte, 4)

	result, err := c.VerifyMembership(context.Background(), algo, 0, proof, txs, sig, verifier)
	require.NoError(t, err)
	require.True(t, result.Valid())
}

func TestVerifyMembershipMissingBoundary(t *testing.T) {
	algo := digest.SHA512
	tree := bmt.Build(algo, [][]byte{[]byte("one")})
	proof, err := tree.GenProof([]byte("one"))
	require.NoError(t, err)

	c := lightnode.New(&fakeTransport{err: errors.New("no peers")})
	verifier := engine.NewStructuralVerifier(4)

	result, err := c.VerifyMembership(context.Background(), algo, 0, proof, nil, nil, verifier)
	require.Error(t, err)
	require.Equal(t, []lightnode.InvalidReason{lightnode.MissingBoundary}, result.Reasons)
}

func TestVerifyMembershipRootMismatch(t *testing.T) {
	algo := digest.SHA512
	tree := bmt.Build(algo, [][]byte{[]byte("one"), []byte("two")})
	proof, err := tree.GenProof([]byte("one"))
	require.NoError(t, err)

	wrongHeader := block.BlockHeader{BlockID: 0, BMTRoot: algo.HashBytes([]byte("not-the-root"))}
	c := lightnode.New(&fakeTransport{header: wrongHeader})
	verifier := engine.NewStructuralVerifier(4)

	result, err := c.VerifyMembership(context.Background(), algo, 0, proof, []block.Transaction{{ID: 1}}, make([]byte, 4), verifier)
	require.NoError(t, err)
	require.Contains(t, result.Reasons, lightnode.RootMismatch)
}

func TestVerifyMembershipInvalidSignature(t *testing.T) {
	algo := digest.SHA512
	tree := bmt.Build(algo, [][]byte{[]byte("one"), []byte("two")})
	proof, err := tree.GenProof([]byte("one"))
	require.NoError(t, err)

	header := block.BlockHeader{BlockID: 0, BMTRoot: tree.RootHash()}
	c := lightnode.New(&fakeTransport{header: header})
	verifier := engine.NewStructuralVerifier(4)

	result, err := c.VerifyMembership(context.Background(), algo, 0, proof, []block.Transaction{{ID: 1}}, make([]byte, 3), verifier)
	require.NoError(t, err)
	require.Contains(t, result.Reasons, lightnode.InvalidSignature)
}
