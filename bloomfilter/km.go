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

package bloomfilter

import (
	"hash/fnv"

	"github.com/cespare/xxhash/v2"

	"github.com/r5-labs/flexledger/bitset"
)

// KMFilter is the double-hash Bloom filter variant: h_i(x) = H1(x) +
// i·H2(x), combining two independent hash functions.
type KMFilter struct {
	params Params
	bits   *bitset.Set
}

// NewKM builds an empty KMFilter for the given capacity/fp configuration.
func NewKM(cfg Config) (*KMFilter, error) {
	p, err := DeriveParams(cfg)
	if err != nil {
		return nil, err
	}
	return &KMFilter{params: p, bits: bitset.New(p.K * p.M)}, nil
}

func kmH1(key []byte) uint64 {
	return xxhash.Sum64(key)
}

func kmH2(key []byte) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}

func (f *KMFilter) hashIndex(i uint64, key []byte) uint64 {
	h := kmH1(key) + i*kmH2(key)
	return i*f.params.M + h%f.params.M
}

// Insert sets the k bits addressed by key.
func (f *KMFilter) Insert(key []byte) {
	for i := uint64(0); i < f.params.K; i++ {
		f.bits.SetBit(f.hashIndex(i, key))
	}
}

// Contains reports whether all k bits addressed by key are set.
func (f *KMFilter) Contains(key []byte) bool {
	for i := uint64(0); i < f.params.K; i++ {
		if !f.bits.GetBit(f.hashIndex(i, key)) {
			return false
		}
	}
	return true
}

// Params returns the filter's (k, m) shape.
func (f *KMFilter) Params() Params { return f.params }

// ApproximateCount estimates the number of inserted elements.
func (f *KMFilter) ApproximateCount() float64 {
	return ApproximateElementCount(f.params, f.bits.CountOnes())
}

// ApproximateFP estimates the filter's current false-positive rate.
func (f *KMFilter) ApproximateFP() float64 {
	return ApproximateFalsePositiveProbability(f.params, f.ApproximateCount())
}

// Bytes returns the little-endian byte encoding of the underlying bitset.
func (f *KMFilter) Bytes() []byte { return f.bits.Bytes() }

// KMFromBytes rebuilds a KMFilter from a previously-serialized bitset and
// its declared parameters.
func KMFromBytes(p Params, data []byte) *KMFilter {
	return &KMFilter{params: p, bits: bitset.FromBytes(p.K*p.M, data)}
}
