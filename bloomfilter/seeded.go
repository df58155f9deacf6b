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
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/r5-labs/flexledger/bitset"
)

// SeededFilter is the single-hash Bloom filter variant: one hash
// function reseeded per hasher index i with seed (i, i). Persistence
// defaults to this variant for determinism across processes, since it
// does not depend on two independently-constructed hash functions.
type SeededFilter struct {
	params Params
	bits   *bitset.Set
}

// NewSeeded builds an empty SeededFilter for the given capacity/fp configuration.
func NewSeeded(cfg Config) (*SeededFilter, error) {
	p, err := DeriveParams(cfg)
	if err != nil {
		return nil, err
	}
	return &SeededFilter{params: p, bits: bitset.New(p.K * p.M)}, nil
}

func seededHash(i uint64, key []byte) uint64 {
	var seed [16]byte
	binary.LittleEndian.PutUint64(seed[0:8], i)
	binary.LittleEndian.PutUint64(seed[8:16], i)

	h := xxhash.New()
	h.Write(seed[:])
	h.Write(key)
	return h.Sum64()
}

func (f *SeededFilter) hashIndex(i uint64, key []byte) uint64 {
	return i*f.params.M + seededHash(i, key)%f.params.M
}

// Insert sets the k bits addressed by key.
func (f *SeededFilter) Insert(key []byte) {
	for i := uint64(0); i < f.params.K; i++ {
		f.bits.SetBit(f.hashIndex(i, key))
	}
}

// Contains reports whether all k bits addressed by key are set.
func (f *SeededFilter) Contains(key []byte) bool {
	for i := uint64(0); i < f.params.K; i++ {
		if !f.bits.GetBit(f.hashIndex(i, key)) {
			return false
		}
	}
	return true
}

// Params returns the filter's (k, m) shape.
func (f *SeededFilter) Params() Params { return f.params }

// ApproximateCount estimates the number of inserted elements.
func (f *SeededFilter) ApproximateCount() float64 {
	return ApproximateElementCount(f.params, f.bits.CountOnes())
}

// ApproximateFP estimates the filter's current false-positive rate.
func (f *SeededFilter) ApproximateFP() float64 {
	return ApproximateFalsePositiveProbability(f.params, f.ApproximateCount())
}

// Bytes returns the little-endian byte encoding of the underlying bitset.
func (f *SeededFilter) Bytes() []byte { return f.bits.Bytes() }

// SeededFromBytes rebuilds a SeededFilter from a previously-serialized
// bitset and its declared parameters.
func SeededFromBytes(p Params, data []byte) *SeededFilter {
	return &SeededFilter{params: p, bits: bitset.FromBytes(p.K*p.M, data)}
}
