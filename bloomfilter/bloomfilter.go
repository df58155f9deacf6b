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

// Package bloomfilter implements the two Bloom filter variants shared
// by the block header filter and the Bloom-Merkle tree: a classic
// double-hash filter and a seeded single-hash filter. Both share one
// Filter contract so callers can treat them interchangeably as long as
// they are configuration-equal (same number of hashers and bits per
// hasher).
package bloomfilter

import (
	"math"

	"github.com/r5-labs/flexledger/bitset"
	"github.com/r5-labs/flexledger/ledgererr"
)

// Params is a Bloom filter's derived shape: k independent hashers, each
// addressing m bits, for a total bitset of k*m bits.
type Params struct {
	K uint64
	M uint64
}

// Config is a Bloom filter's desired capacity and false-positive rate.
type Config struct {
	Capacity uint64
	FP       float64
}

// DeriveParams computes (k, m) from a capacity/fp configuration using
// the standard optimal-Bloom-filter formulas.
func DeriveParams(cfg Config) (Params, error) {
	if cfg.Capacity == 0 || cfg.FP <= 0 || cfg.FP >= 1 {
		return Params{}, ledgererr.ErrInvalidParameter
	}
	total := OptimalBitCount(cfg.Capacity, cfg.FP)
	k := OptimalNumberOfHashers(total, cfg.Capacity)
	m := (total + k - 1) / k
	return Params{K: k, M: m}, nil
}

// OptimalBitCount returns ⌈−n·ln(p)/ln(2)²⌉, the total number of bits
// a filter of capacity n and false-positive rate p should occupy.
func OptimalBitCount(n uint64, p float64) uint64 {
	return uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
}

// OptimalNumberOfHashers returns round((totalBits/n)·ln2), clamped to
// at least 1.
func OptimalNumberOfHashers(totalBits, n uint64) uint64 {
	k := math.Round(float64(totalBits) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint64(k)
}

// ApproximateElementCount returns n̂ = −m·ln(1 − ones/(k·m)).
func ApproximateElementCount(p Params, ones uint64) float64 {
	total := float64(p.K * p.M)
	if total == 0 {
		return 0
	}
	frac := float64(ones) / total
	if frac >= 1 {
		// Saturated filter; the log would diverge, report +Inf's practical ceiling.
		frac = 1 - 1e-12
	}
	return -float64(p.M) * math.Log(1-frac)
}

// ApproximateFalsePositiveProbability returns p̂ = (1 − e^(−n̂/m))^k.
func ApproximateFalsePositiveProbability(p Params, nHat float64) float64 {
	return math.Pow(1-math.Exp(-nHat/float64(p.M)), float64(p.K))
}

// Filter is the shared contract for both Bloom filter variants.
type Filter interface {
	Insert(key []byte)
	Contains(key []byte) bool
	Params() Params
	ApproximateCount() float64
	ApproximateFP() float64
	Bytes() []byte
}

// Union returns a new filter whose bitset is the bitwise OR of a and
// b's bitsets. a and b must be configuration-equal.
func Union(a, b Filter) (Filter, error) {
	return combine(a, b, (*bitset.Set).Union)
}

// Intersect returns a new filter whose bitset is the bitwise AND of a
// and b's bitsets. a and b must be configuration-equal.
func Intersect(a, b Filter) (Filter, error) {
	return combine(a, b, (*bitset.Set).Intersect)
}

func combine(a, b Filter, op func(*bitset.Set, *bitset.Set) *bitset.Set) (Filter, error) {
	pa, pb := a.Params(), b.Params()
	if pa.K != pb.K || pa.M != pb.M {
		return nil, ledgererr.ErrConfigurationMismatch
	}
	abits := bitset.FromBytes(pa.K*pa.M, a.Bytes())
	bbits := bitset.FromBytes(pb.K*pb.M, b.Bytes())
	merged := op(abits, bbits)

	switch a.(type) {
	case *KMFilter:
		return &KMFilter{params: pa, bits: merged}, nil
	case *SeededFilter:
		return &SeededFilter{params: pa, bits: merged}, nil
	default:
		return nil, ledgererr.ErrConfigurationMismatch
	}
}
