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

package lightnode

import (
	"context"

	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/bmt"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/engine"
)

// InvalidReason names one specific way a membership verification can
// fail. A VerificationResult with no reasons is valid.
type InvalidReason string

const (
	// InvalidSignature means the supplied signature proof did not check
	// out against the claimed transactions.
	InvalidSignature InvalidReason = "invalid_signature"
	// ProofMalformed means the BMT authentication path failed structural
	// or hash recomputation, independent of the remote header.
	ProofMalformed InvalidReason = "proof_malformed"
	// RootMismatch means the path was well-formed but did not establish
	// membership under the fetched header's BMTRoot: either its implied
	// root differs, or its terminal is not a leaf matching the target.
	RootMismatch InvalidReason = "root_mismatch"
	// MissingBoundary means the remote header needed to check the proof
	// against could not be fetched at all.
	MissingBoundary InvalidReason = "missing_boundary"
)

// VerificationResult is the light client's structured verdict: an
// empty Reasons list means the proof and its transactions are valid.
type VerificationResult struct {
	Reasons []InvalidReason
}

// Valid reports whether no invalid reason was recorded.
func (r VerificationResult) Valid() bool { return len(r.Reasons) == 0 }

func (r *VerificationResult) fail(reason InvalidReason) { r.Reasons = append(r.Reasons, reason) }

// VerifyMembership checks proof against the remote header for blockID,
// fetched via the client's Transport, and checks txs's signature proof
// through verifier. It never trusts a locally-held root: the header is
// always re-fetched from the peer. A MissingBoundary result means the
// header itself could not be retrieved, so no other check ran.
func (c *Client) VerifyMembership(
	ctx context.Context,
	algo digest.Algorithm,
	blockID uint64,
	proof *bmt.Proof,
	txs []block.Transaction,
	sigProof []byte,
	verifier engine.SignatureVerifier,
) (VerificationResult, error) {
	var result VerificationResult

	header, err := c.Transport.FetchBlockHeader(ctx, blockID)
	if err != nil {
		result.fail(MissingBoundary)
		return result, err
	}

	ok, verr := proof.Validate(algo, header.BMTRoot)
	if verr != nil {
		result.fail(ProofMalformed)
		return result, nil
	}
	if !ok {
		result.fail(RootMismatch)
	}

	sigOK, serr := verifier.Verify(txs, sigProof)
	if serr != nil {
		return result, serr
	}
	if !sigOK {
		result.fail(InvalidSignature)
	}

	return result, nil
}
