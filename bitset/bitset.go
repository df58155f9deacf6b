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

// Package bitset implements a packed bit array used as the backing
// store of a Bloom filter's bits.
package bitset

import "math/bits"

// Set is a packed array of nbits bits.
type Set struct {
	words []uint64
	nbits uint64
}

// New allocates a Set able to address nbits bits, all initially clear.
func New(nbits uint64) *Set {
	return &Set{
		words: make([]uint64, (nbits+63)/64),
		nbits: nbits,
	}
}

// Len returns the number of addressable bits.
func (s *Set) Len() uint64 { return s.nbits }

// SetBit sets bit i.
func (s *Set) SetBit(i uint64) {
	s.words[i/64] |= 1 << (i % 64)
}

// GetBit reports whether bit i is set.
func (s *Set) GetBit(i uint64) bool {
	return s.words[i/64]&(1<<(i%64)) != 0
}

// CountOnes returns the number of set bits.
func (s *Set) CountOnes() uint64 {
	var n uint64
	for _, w := range s.words {
		n += uint64(bits.OnesCount64(w))
	}
	return n
}

// SameSize reports whether s and other address the same number of bits.
func (s *Set) SameSize(other *Set) bool {
	return s.nbits == other.nbits
}

// Union ORs other into a copy of s. Both sets must be SameSize.
func (s *Set) Union(other *Set) *Set {
	out := New(s.nbits)
	for i := range s.words {
		out.words[i] = s.words[i] | other.words[i]
	}
	return out
}

// Intersect ANDs other into a copy of s. Both sets must be SameSize.
func (s *Set) Intersect(other *Set) *Set {
	out := New(s.nbits)
	for i := range s.words {
		out.words[i] = s.words[i] & other.words[i]
	}
	return out
}

// Bytes returns the little-endian byte encoding of the underlying words.
func (s *Set) Bytes() []byte {
	out := make([]byte, len(s.words)*8)
	for i, w := range s.words {
		for b := 0; b < 8; b++ {
			out[i*8+b] = byte(w >> (8 * b))
		}
	}
	return out
}

// FromBytes rebuilds a Set of nbits bits from its byte encoding.
func FromBytes(nbits uint64, data []byte) *Set {
	s := New(nbits)
	for i := range s.words {
		var w uint64
		for b := 0; b < 8 && i*8+b < len(data); b++ {
			w |= uint64(data[i*8+b]) << (8 * b)
		}
		s.words[i] = w
	}
	return s
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	out := New(s.nbits)
	copy(out.words, s.words)
	return out
}
