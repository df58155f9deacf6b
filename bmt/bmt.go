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

// Package bmt implements the Bloom-Merkle tree: a binary hash tree
// whose internal nodes additionally carry a Bloom filter summarizing
// the hashes of every descendant leaf. The Bloom filter lets a proof
// walk skip subtrees that provably do not contain a target leaf,
// producing short non-membership witnesses alongside ordinary
// membership proofs.
package bmt

import (
	"github.com/r5-labs/flexledger/bloomfilter"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/ledgererr"
)

const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// BloomConfig is the fixed Bloom configuration used for every Bloom
// filter built inside a BMT, regardless of the tree's size.
var BloomConfig = bloomfilter.Config{Capacity: 10000, FP: 1e-4}

// Kind tags a Node as Empty, Leaf, or an internal Node.
type Kind int

const (
	KindEmpty Kind = iota
	KindLeaf
	KindInternal
)

// Node is one node of a Bloom-Merkle tree.
type Node struct {
	Kind  Kind
	Hash  digest.Digest
	Left  *Node
	Right *Node
	Bloom bloomfilter.Filter // nil for Leaf and Empty
}

// Tree is a built Bloom-Merkle tree.
type Tree struct {
	Root   *Node
	Height int
	Count  int
	Algo   digest.Algorithm
}

func hashLeaf(algo digest.Algorithm, v []byte) digest.Digest {
	buf := make([]byte, 0, len(v)+1)
	buf = append(buf, leafPrefix)
	buf = append(buf, v...)
	return algo.HashBytes(buf)
}

func hashNode(algo digest.Algorithm, left, right digest.Digest, bloomBytes []byte) digest.Digest {
	buf := make([]byte, 0, 1+len(left)+len(right)+len(bloomBytes))
	buf = append(buf, nodePrefix)
	buf = append(buf, left...)
	buf = append(buf, right...)
	buf = append(buf, bloomBytes...)
	return algo.HashBytes(buf)
}

func singletonBloom(leafHash digest.Digest) bloomfilter.Filter {
	f, err := bloomfilter.NewSeeded(BloomConfig)
	if err != nil {
		// BloomConfig is a fixed, known-valid configuration.
		panic(err)
	}
	f.Insert(leafHash.Bytes())
	return f
}

func bloomOf(n *Node) bloomfilter.Filter {
	if n.Kind == KindLeaf {
		return singletonBloom(n.Hash)
	}
	return n.Bloom
}

// Build folds values bottom-up into a Bloom-Merkle tree using algo as
// the hash algorithm. An empty input produces the Empty node.
func Build(algo digest.Algorithm, values [][]byte) *Tree {
	if len(values) == 0 {
		return &Tree{
			Root:   &Node{Kind: KindEmpty, Hash: algo.Empty()},
			Height: 0,
			Count:  0,
			Algo:   algo,
		}
	}

	layer := make([]*Node, len(values))
	for i, v := range values {
		layer[i] = &Node{Kind: KindLeaf, Hash: hashLeaf(algo, v)}
	}

	height := 0
	for len(layer) > 1 {
		next := make([]*Node, 0, (len(layer)+1)/2)
		i := 0
		for i+1 < len(layer) {
			l, r := layer[i], layer[i+1]
			lb, rb := bloomOf(l), bloomOf(r)
			merged, err := bloomfilter.Union(lb, rb)
			if err != nil {
				// Every Bloom built inside a BMT shares BloomConfig.
				panic(err)
			}
			h := hashNode(algo, l.Hash, r.Hash, merged.Bytes())
			next = append(next, &Node{
				Kind:  KindInternal,
				Hash:  h,
				Left:  l,
				Right: r,
				Bloom: merged,
			})
			i += 2
		}
		if i < len(layer) {
			// Trailing singleton is promoted unchanged, no self-hash.
			next = append(next, layer[i])
		}
		layer = next
		height++
	}

	return &Tree{Root: layer[0], Height: height, Count: len(values), Algo: algo}
}

// Contains reports root-Bloom-only membership of v's leaf hash. It is
// an O(1) probabilistic check, distinct from GenProof+Validate which
// walks and cryptographically verifies the whole path.
func (t *Tree) Contains(v []byte) bool {
	target := hashLeaf(t.Algo, v)
	switch t.Root.Kind {
	case KindEmpty:
		return false
	case KindLeaf:
		return t.Root.Hash.Equal(target)
	default:
		return t.Root.Bloom.Contains(target.Bytes())
	}
}

// RootHash returns the tree's root digest.
func (t *Tree) RootHash() digest.Digest { return t.Root.Hash }

// GenProof walks the tree from the root searching for v's leaf hash,
// descending into a child only when that child's Bloom filter (or, for
// a leaf child, its own hash) could contain the target. It returns
// ErrNotBuilt if the tree is Empty.
func (t *Tree) GenProof(v []byte) (*Proof, error) {
	if t.Root.Kind == KindEmpty {
		return nil, ledgererr.ErrNotBuilt
	}
	target := hashLeaf(t.Algo, v)

	var path []Step
	cur := t.Root
	for cur.Kind == KindInternal {
		leftContains := mayContain(cur.Left, target)
		rightContains := mayContain(cur.Right, target)

		if leftContains {
			path = append(path, stepFor(SideRight, cur.Right))
			cur = cur.Left
			continue
		}
		if rightContains {
			path = append(path, stepFor(SideLeft, cur.Left))
			cur = cur.Right
			continue
		}
		// Neither child's Bloom admits the target: this node is the
		// non-membership frontier.
		return &Proof{
			Target: target,
			Path:   path,
			Terminal: Terminal{
				IsLeafMatch:    false,
				FrontierHash:   cur.Hash,
				FrontierIsLeaf: false,
				FrontierBloom:  cur.Bloom.Bytes(),
			},
		}, nil
	}

	// cur is now a Leaf (or the lone root Leaf).
	return &Proof{
		Target: target,
		Path:   path,
		Terminal: Terminal{
			IsLeafMatch:    cur.Hash.Equal(target),
			FrontierHash:   cur.Hash,
			FrontierIsLeaf: true,
		},
	}, nil
}

func mayContain(n *Node, target digest.Digest) bool {
	if n.Kind == KindLeaf {
		return n.Hash.Equal(target)
	}
	return n.Bloom.Contains(target.Bytes())
}

func stepFor(side Side, sibling *Node) Step {
	s := Step{
		Side:          side,
		SiblingHash:   sibling.Hash,
		SiblingIsLeaf: sibling.Kind == KindLeaf,
	}
	if !s.SiblingIsLeaf {
		s.SiblingBloom = sibling.Bloom.Bytes()
	}
	return s
}
