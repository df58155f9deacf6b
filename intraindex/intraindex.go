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

// Package intraindex builds and scans the per-block, per-attribute
// ordered maps used to accelerate range and equality queries. Because
// attributes extract to different Go types (uint64 for "id"/"value",
// string for "address"), an OrderedMap is a tagged variant over two
// concrete sorted-slice representations rather than a single generic
// map, matching how the query executor must dispatch on the attribute
// at scan time.
package intraindex

import (
	"sort"

	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/ledgererr"
)

// Attribute is one of the fixed, closed set of extractable attributes.
// "timestamp" is deliberately excluded: it is the inter-index key, not
// an intra-index attribute.
type Attribute string

const (
	AttrID      Attribute = "id"
	AttrAddress Attribute = "address"
	AttrValue   Attribute = "value"
)

// Kind tags which concrete representation an OrderedMap holds.
type Kind int

const (
	KindU64 Kind = iota
	KindString
)

// KindOf reports the key type an attribute extracts to, or
// ErrUnknownAttribute if attr falls outside the fixed extraction set.
func KindOf(attr Attribute) (Kind, error) {
	switch attr {
	case AttrID, AttrValue:
		return KindU64, nil
	case AttrAddress:
		return KindString, nil
	default:
		return 0, ledgererr.ErrUnknownAttribute
	}
}

// ExtractU64 extracts attr's uint64 key from tx. attr must be AttrID or AttrValue.
func ExtractU64(attr Attribute, tx block.Transaction) uint64 {
	switch attr {
	case AttrID:
		return tx.ID
	case AttrValue:
		return tx.Value.TransValue
	default:
		panic("intraindex: ExtractU64 called with non-numeric attribute")
	}
}

// ExtractString extracts attr's string key from tx. attr must be AttrAddress.
func ExtractString(attr Attribute, tx block.Transaction) string {
	if attr != AttrAddress {
		panic("intraindex: ExtractString called with non-string attribute")
	}
	return tx.Value.Address
}

type u64Entry struct {
	Key uint64
	Tx  block.Transaction
}

type strEntry struct {
	Key string
	Tx  block.Transaction
}

// OrderedMap is a built, queryable per-(block, attribute) index.
type OrderedMap struct {
	Kind    Kind
	u64s    []u64Entry
	strs    []strEntry
	distinc int // number of distinct keys, for selectivity measurement
}

// Build constructs an OrderedMap over txs for the given attribute.
// On duplicate keys, the first-inserted transaction wins.
func Build(attr Attribute, txs []block.Transaction) (*OrderedMap, error) {
	kind, err := KindOf(attr)
	if err != nil {
		return nil, err
	}

	om := &OrderedMap{Kind: kind}
	switch kind {
	case KindU64:
		seen := make(map[uint64]bool, len(txs))
		for _, tx := range txs {
			k := ExtractU64(attr, tx)
			if seen[k] {
				continue
			}
			seen[k] = true
			om.u64s = append(om.u64s, u64Entry{Key: k, Tx: tx})
		}
		sort.Slice(om.u64s, func(i, j int) bool { return om.u64s[i].Key < om.u64s[j].Key })
		om.distinc = len(om.u64s)
	case KindString:
		seen := make(map[string]bool, len(txs))
		for _, tx := range txs {
			k := ExtractString(attr, tx)
			if seen[k] {
				continue
			}
			seen[k] = true
			om.strs = append(om.strs, strEntry{Key: k, Tx: tx})
		}
		sort.Slice(om.strs, func(i, j int) bool { return om.strs[i].Key < om.strs[j].Key })
		om.distinc = len(om.strs)
	}
	return om, nil
}

// Len returns the number of entries (distinct keys) held.
func (om *OrderedMap) Len() int {
	if om.Kind == KindU64 {
		return len(om.u64s)
	}
	return len(om.strs)
}

// Selectivity returns the ratio of distinct keys to total, where total
// is the count of transactions the index was built from (passed in
// because duplicates are discarded during Build).
func (om *OrderedMap) Selectivity(totalTx int) float64 {
	if totalTx == 0 {
		return 0
	}
	return float64(om.Len()) / float64(totalTx)
}

// Transactions returns the map's entries as a transaction slice in key
// order, used to persist and later rebuild the map via Build.
func (om *OrderedMap) Transactions() []block.Transaction {
	if om.Kind == KindU64 {
		out := make([]block.Transaction, len(om.u64s))
		for i, e := range om.u64s {
			out[i] = e.Tx
		}
		return out
	}
	out := make([]block.Transaction, len(om.strs))
	for i, e := range om.strs {
		out[i] = e.Tx
	}
	return out
}

// U64Bound is a half-open range bound over uint64 keys; nil means Unbounded.
type U64Bound struct {
	Lo *uint64
	Hi *uint64
}

// StringBound is a half-open range bound over string keys; nil means Unbounded.
type StringBound struct {
	Lo *string
	Hi *string
}

// ScanU64 returns transactions whose key falls in [lo, hi). om.Kind
// must be KindU64.
func (om *OrderedMap) ScanU64(b U64Bound) []block.Transaction {
	lo, hi := 0, len(om.u64s)
	if b.Lo != nil {
		lo = sort.Search(len(om.u64s), func(i int) bool { return om.u64s[i].Key >= *b.Lo })
	}
	if b.Hi != nil {
		hi = sort.Search(len(om.u64s), func(i int) bool { return om.u64s[i].Key >= *b.Hi })
	}
	if lo >= hi {
		return nil
	}
	out := make([]block.Transaction, 0, hi-lo)
	for _, e := range om.u64s[lo:hi] {
		out = append(out, e.Tx)
	}
	return out
}

// ScanString returns transactions whose key falls in [lo, hi). om.Kind
// must be KindString.
func (om *OrderedMap) ScanString(b StringBound) []block.Transaction {
	lo, hi := 0, len(om.strs)
	if b.Lo != nil {
		lo = sort.Search(len(om.strs), func(i int) bool { return om.strs[i].Key >= *b.Lo })
	}
	if b.Hi != nil {
		hi = sort.Search(len(om.strs), func(i int) bool { return om.strs[i].Key >= *b.Hi })
	}
	if lo >= hi {
		return nil
	}
	out := make([]block.Transaction, 0, hi-lo)
	for _, e := range om.strs[lo:hi] {
		out = append(out, e.Tx)
	}
	return out
}
