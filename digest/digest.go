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

// Package digest defines the ledger's canonical hashing protocol: an
// opaque digest type plus a Hashable interface any value can implement
// to feed its canonical byte representation into a hash function. The
// concrete hash algorithm is pluggable via Algorithm so the rest of the
// engine never hardcodes a specific hash function.
package digest

import (
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/zeebo/blake3"
)

// Digest is an opaque byte string produced by a collision-resistant hash.
// Its width is fixed for any given Algorithm but not across algorithms.
type Digest []byte

// Equal reports whether two digests carry the same bytes.
func (d Digest) Equal(other Digest) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

// Bytes returns the raw digest bytes.
func (d Digest) Bytes() []byte { return []byte(d) }

func (d Digest) String() string { return hex.EncodeToString(d) }

// Hashable is implemented by any value with a canonical byte-feeding
// routine. Equal values must feed equal bytes so that equal values
// produce equal digests under any Algorithm.
type Hashable interface {
	WriteHash(h hash.Hash)
}

// Algorithm wraps a hash constructor, keeping the rest of the ledger
// agnostic to the concrete hash function in use.
type Algorithm struct {
	New  func() hash.Hash
	Name string
}

// Hash feeds v's canonical bytes into a fresh hasher and returns the digest.
func (a Algorithm) Hash(v Hashable) Digest {
	h := a.New()
	v.WriteHash(h)
	return Digest(h.Sum(nil))
}

// HashBytes hashes a raw byte slice directly, with no domain separation.
func (a Algorithm) HashBytes(b []byte) Digest {
	h := a.New()
	h.Write(b)
	return Digest(h.Sum(nil))
}

// Empty returns the digest of the empty input, H(∅).
func (a Algorithm) Empty() Digest {
	h := a.New()
	return Digest(h.Sum(nil))
}

// SHA512 is the algorithm used by the documented BMT walkthrough scenario.
var SHA512 = Algorithm{New: sha512.New, Name: "sha512"}

// Blake3_256 is the default production algorithm for block header hashing.
var Blake3_256 = Algorithm{
	New:  func() hash.Hash { return blake3.New() },
	Name: "blake3-256",
}

// Blake2b_256 is an alternate production algorithm, selectable for the BMT.
var Blake2b_256 = Algorithm{
	New: func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			// blake2b.New256 only errors on a bad key, and we never pass one.
			panic(err)
		}
		return h
	},
	Name: "blake2b-256",
}
