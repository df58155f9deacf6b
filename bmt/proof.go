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

package bmt

import (
	"github.com/r5-labs/flexledger/bloomfilter"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/ledgererr"
)

// Side identifies which side of a node a recorded sibling sits on.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// Step is one recorded sibling on the root-to-terminal path, needed to
// recompute the ancestor chain of hashes during validation.
type Step struct {
	Side          Side
	SiblingHash   digest.Digest
	SiblingBloom  []byte // nil when SiblingIsLeaf
	SiblingIsLeaf bool
}

// Terminal is the outcome at the end of the descended path: either a
// matched leaf (membership) or a non-descended frontier recording its
// Bloom filter as a non-membership witness.
type Terminal struct {
	IsLeafMatch    bool
	FrontierHash   digest.Digest
	FrontierIsLeaf bool
	FrontierBloom  []byte // nil when FrontierIsLeaf
}

// Positioned reports whether the terminal is a Leaf or an internal Node.
func (t Terminal) Positioned() Kind {
	if t.FrontierIsLeaf {
		return KindLeaf
	}
	return KindInternal
}

// Proof is the result of GenProof: a root-to-terminal authentication
// path plus the terminal witness.
type Proof struct {
	Target   digest.Digest
	Path     []Step
	Terminal Terminal
}

// Validate recomputes the path's implied root hash from the terminal
// and each recorded sibling, checking it against root. It reports true
// only for a membership proof: the terminal is a leaf matching the
// target and the recomputed root equals root. A well-formed
// non-membership proof reports false with a nil error. It also
// rejects proofs whose recorded non-membership frontier's Bloom filter
// actually contains the target (a malformed or adversarial proof).
func (p *Proof) Validate(algo digest.Algorithm, root digest.Digest) (bool, error) {
	if !p.Terminal.IsLeafMatch {
		if !p.Terminal.FrontierIsLeaf {
			params, err := bloomfilter.DeriveParams(BloomConfig)
			if err != nil {
				return false, err
			}
			frontier := bloomfilter.SeededFromBytes(params, p.Terminal.FrontierBloom)
			if frontier.Contains(p.Target.Bytes()) {
				return false, ledgererr.ErrProofMalformed
			}
		} else if p.Terminal.FrontierHash.Equal(p.Target) {
			// A leaf frontier whose hash equals the target should have
			// been reported as a membership match.
			return false, ledgererr.ErrProofMalformed
		}
	}

	if p.Terminal.IsLeafMatch && !p.Terminal.FrontierHash.Equal(p.Target) {
		return false, ledgererr.ErrProofMalformed
	}
	cur := p.Terminal.FrontierHash

	for i := len(p.Path) - 1; i >= 0; i-- {
		step := p.Path[i]
		var left, right digest.Digest
		var bloomBytes []byte
		if step.Side == SideRight {
			// sibling is on the right; cur descended from the left child
			left = cur
			right = step.SiblingHash
		} else {
			left = step.SiblingHash
			right = cur
		}

		lb, rb := bloomFor(step, cur, left, right, i, p)
		merged, err := bloomfilter.Union(lb, rb)
		if err != nil {
			return false, err
		}
		bloomBytes = merged.Bytes()
		cur = hashNode(algo, left, right, bloomBytes)
	}

	return p.Terminal.IsLeafMatch && cur.Equal(root), nil
}

// bloomFor reconstructs the two child Bloom filters needed to
// recompute a parent node's hash at path position i: the descended
// side's Bloom is derived from whichever Bloom/hash led to `cur`
// (carried forward across levels by descendedBloom), and the
// sibling's Bloom is taken directly from the recorded step.
func bloomFor(step Step, cur digest.Digest, left, right digest.Digest, i int, p *Proof) (bloomfilter.Filter, bloomfilter.Filter) {
	descended := descendedBloom(p, i)
	sibling := siblingBloom(step)
	if step.Side == SideRight {
		return descended, sibling
	}
	return sibling, descended
}

func siblingBloom(step Step) bloomfilter.Filter {
	if step.SiblingIsLeaf {
		return singletonBloom(step.SiblingHash)
	}
	params, _ := bloomfilter.DeriveParams(BloomConfig)
	return bloomfilter.SeededFromBytes(params, step.SiblingBloom)
}

// descendedBloom reconstructs the Bloom filter of the node the path
// descended through at level i: at the deepest level (i ==
// len(p.Path)-1) it is the terminal's own Bloom (a singleton if the
// terminal is a leaf); at shallower levels it is folded bottom-up from
// the deeper levels' recorded siblings.
func descendedBloom(p *Proof, i int) bloomfilter.Filter {
	f := leafOrFrontierBloom(p)
	for j := len(p.Path) - 1; j > i; j-- {
		step := p.Path[j]
		sibling := siblingBloom(step)
		var merged bloomfilter.Filter
		if step.Side == SideRight {
			merged, _ = bloomfilter.Union(f, sibling)
		} else {
			merged, _ = bloomfilter.Union(sibling, f)
		}
		f = merged
	}
	return f
}

func leafOrFrontierBloom(p *Proof) bloomfilter.Filter {
	if p.Terminal.FrontierIsLeaf {
		return singletonBloom(p.Terminal.FrontierHash)
	}
	params, _ := bloomfilter.DeriveParams(BloomConfig)
	return bloomfilter.SeededFromBytes(params, p.Terminal.FrontierBloom)
}
