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

// Package query implements the historical-query executor: it combines
// the inter-block learned index, per-block header Bloom filters, and
// intra-block ordered maps to answer conjunctive range/equality
// queries without scanning the whole ledger.
package query

import (
	"strconv"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/ledgererr"
	"github.com/r5-labs/flexledger/log"
	"github.com/r5-labs/flexledger/storage"
)

// AttrTimestamp is the inter-index key attribute. It is deliberately
// outside intraindex's extraction set: it never materializes as a
// per-block ordered map, only as an inter-index lookup.
const AttrTimestamp intraindex.Attribute = "timestamp"

// DefaultBloomRangeProbeLimit bounds how wide a numeric range the
// executor will enumerate bit-by-bit against a header Bloom filter
// before giving up on pruning (trading CPU for a wider range).
const DefaultBloomRangeProbeLimit = 4096

// Predicate is one conjunct: attr's value must fall in [Lo, Hi), with
// a nil bound meaning Unbounded on that side.
type Predicate struct {
	Attribute intraindex.Attribute
	Lo        *string
	Hi        *string
}

// QueryParam is one historical_query call: a conjunction of
// predicates plus the two pruning/acceleration toggles.
type QueryParam struct {
	Predicates  []Predicate
	BloomFilter bool
	IntraIndex  bool
}

// BlockResult is one block's contribution to a query's result.
type BlockResult struct {
	BlockID      uint64
	Transactions map[uint64]block.Transaction
}

// NewQueryParam builds a QueryParam from historical_query's wire-level
// shape: parallel attribute/lo/hi lists forming a conjunction. It
// fails with ErrMalformedQuery if attributes, los and his are not all
// the same length.
func NewQueryParam(attributes []intraindex.Attribute, los, his []*string, bloomFilter, intraIndex bool) (QueryParam, error) {
	if len(attributes) != len(los) || len(attributes) != len(his) {
		return QueryParam{}, ledgererr.ErrMalformedQuery
	}
	preds := make([]Predicate, len(attributes))
	for i, attr := range attributes {
		preds[i] = Predicate{Attribute: attr, Lo: los[i], Hi: his[i]}
	}
	return QueryParam{Predicates: preds, BloomFilter: bloomFilter, IntraIndex: intraIndex}, nil
}

// OverallResult is historical_query's return value.
type OverallResult struct {
	Blocks      []BlockResult
	CPUTime     time.Duration
	BloomFilter bool
	IntraIndex  bool
}

// Engine executes QueryParam queries against a storage.Reader, sharing
// one Counters instance and triggering a caller-supplied callback when
// the query counter crosses threshold.
type Engine struct {
	Reader      storage.Reader
	Counters    *Counters
	Threshold   uint64
	OnThreshold func()
}

// NewEngine constructs a query Engine. onThreshold may be nil, in
// which case the threshold is tracked but no reconciliation runs.
func NewEngine(reader storage.Reader, counters *Counters, threshold uint64, onThreshold func()) *Engine {
	return &Engine{Reader: reader, Counters: counters, Threshold: threshold, OnThreshold: onThreshold}
}

// Query runs qp's pipeline: block shortlist, per-block Bloom pruning,
// per-block scan, and conjunctive intersection. The threshold hook
// runs on every exit path, including early returns on error.
func (e *Engine) Query(qp QueryParam) (result OverallResult, err error) {
	start := time.Now()
	defer func() {
		result.CPUTime = time.Since(start)
		if e.Counters.IncrQuery() >= e.Threshold {
			e.Counters.ResetQuery()
			if e.OnThreshold != nil {
				e.OnThreshold()
			}
		}
	}()

	for _, p := range qp.Predicates {
		if p.Attribute != AttrTimestamp {
			if _, aerr := intraindex.KindOf(p.Attribute); aerr != nil {
				return OverallResult{BloomFilter: qp.BloomFilter, IntraIndex: qp.IntraIndex}, aerr
			}
		}
	}

	for _, p := range qp.Predicates {
		e.Counters.IncrKeyUsage(p.Attribute)
	}

	param, perr := e.Reader.GetParameter()
	if perr != nil {
		log.Error("query: failed to read parameter", "err", perr)
		return OverallResult{BloomFilter: qp.BloomFilter, IntraIndex: qp.IntraIndex}, perr
	}

	lo, hi, terr := e.shortlist(qp, param)
	if terr != nil {
		log.Error("query: failed to resolve block shortlist", "err", terr)
		return OverallResult{BloomFilter: qp.BloomFilter, IntraIndex: qp.IntraIndex}, terr
	}

	var blocks []BlockResult
	for id := hi; ; id-- {
		e.Counters.IncrBlockAccess(id - param.StartBlockID)

		br, included, berr := e.scanBlock(id, qp)
		if berr != nil {
			log.Error("query: failed to scan block", "block_id", id, "err", berr)
			return OverallResult{BloomFilter: qp.BloomFilter, IntraIndex: qp.IntraIndex}, berr
		}
		if included {
			blocks = append(blocks, br)
		}
		if id == lo {
			break
		}
	}

	return OverallResult{Blocks: blocks, BloomFilter: qp.BloomFilter, IntraIndex: qp.IntraIndex}, nil
}

// shortlist resolves qp's block id window: via the inter-index if a
// timestamp predicate is present, otherwise the full configured range.
// The inter-index is probed at a single representative timestamp (the
// lower bound when present, else the upper), so the returned window is
// a guaranteed superset of the matching blocks only while the
// predicate's timestamp range stays within one learned segment's
// window; the per-block timestamp check in scanBlock keeps whatever is
// scanned sound regardless.
func (e *Engine) shortlist(qp QueryParam, param storage.Parameter) (lo, hi uint64, err error) {
	for _, p := range qp.Predicates {
		if p.Attribute != AttrTimestamp {
			continue
		}
		idx, ierr := e.Reader.ReadInterIndexes()
		if ierr != nil {
			return 0, 0, ierr
		}
		t, perr := parseTimestampProbe(p)
		if perr != nil {
			return 0, 0, perr
		}
		return idx.Lookup(t, param.StartBlockID, param.BlockCount)
	}
	if param.BlockCount == 0 {
		return param.StartBlockID, param.StartBlockID, ledgererr.ErrNotBuilt
	}
	return param.StartBlockID, param.StartBlockID + param.BlockCount - 1, nil
}

// parseTimestampProbe extracts a representative probe timestamp from a
// timestamp predicate: the lower bound if present, else the upper.
func parseTimestampProbe(p Predicate) (uint64, error) {
	if p.Lo != nil {
		return parseU64(*p.Lo)
	}
	if p.Hi != nil {
		return parseU64(*p.Hi)
	}
	return 0, ledgererr.ErrBadRangeBound
}

// scanBlock evaluates every non-timestamp predicate against block id,
// applying Bloom pruning and the intra-index/linear-scan choice, and
// reports whether the block contributed any matching transactions.
func (e *Engine) scanBlock(id uint64, qp QueryParam) (BlockResult, bool, error) {
	header, err := e.Reader.ReadBlockHeader(id)
	if err != nil {
		return BlockResult{}, false, err
	}

	if qp.BloomFilter {
		if pruned, perr := e.bloomPrune(header, qp); perr != nil {
			return BlockResult{}, false, perr
		} else if pruned {
			return BlockResult{}, false, nil
		}
	}

	for _, p := range qp.Predicates {
		if p.Attribute != AttrTimestamp {
			continue
		}
		lo, hi, perr := parseU64Bound(p)
		if perr != nil {
			return BlockResult{}, false, perr
		}
		if !inRange(header.TimeStamp, lo, hi) {
			return BlockResult{}, false, nil
		}
	}

	var sets []mapset.Set[uint64]
	txByID := make(map[uint64]block.Transaction)
	for _, p := range qp.Predicates {
		if p.Attribute == AttrTimestamp {
			continue
		}
		matched, merr := e.evaluatePredicate(id, p, qp.IntraIndex)
		if merr != nil {
			return BlockResult{}, false, merr
		}
		s := mapset.NewThreadUnsafeSet[uint64]()
		for _, tx := range matched {
			s.Add(tx.ID)
			txByID[tx.ID] = tx
		}
		sets = append(sets, s)
	}

	if len(sets) == 0 {
		data, derr := e.Reader.ReadBlockData(id)
		if derr != nil {
			return BlockResult{}, false, derr
		}
		if len(data.Txs) == 0 {
			return BlockResult{}, false, nil
		}
		out := make(map[uint64]block.Transaction, len(data.Txs))
		for _, tx := range data.Txs {
			out[tx.ID] = tx
		}
		return BlockResult{BlockID: id, Transactions: out}, true, nil
	}

	final := sets[0]
	for _, s := range sets[1:] {
		final = final.Intersect(s)
	}
	if final.Cardinality() == 0 {
		return BlockResult{}, false, nil
	}

	out := make(map[uint64]block.Transaction, final.Cardinality())
	for _, txid := range final.ToSlice() {
		out[txid] = txByID[txid]
	}
	return BlockResult{BlockID: id, Transactions: out}, true, nil
}

// evaluatePredicate returns the matching transactions for one
// non-timestamp predicate within block id, using the materialized
// intra-index when enabled and present, else a linear scan.
func (e *Engine) evaluatePredicate(id uint64, p Predicate, useIntraIndex bool) ([]block.Transaction, error) {
	if useIntraIndex {
		family, ferr := e.Reader.ReadIntraIndex(id)
		if ferr != nil {
			return nil, ferr
		}
		if om, ok := family[p.Attribute]; ok {
			return scanOrderedMap(om, p)
		}
	}

	data, derr := e.Reader.ReadBlockData(id)
	if derr != nil {
		return nil, derr
	}
	return linearScan(p, data.Txs)
}

func scanOrderedMap(om *intraindex.OrderedMap, p Predicate) ([]block.Transaction, error) {
	if om.Kind == intraindex.KindString {
		return om.ScanString(intraindex.StringBound{Lo: p.Lo, Hi: p.Hi}), nil
	}
	lo, hi, err := parseU64OptionalBound(p)
	if err != nil {
		return nil, err
	}
	return om.ScanU64(intraindex.U64Bound{Lo: lo, Hi: hi}), nil
}

func linearScan(p Predicate, txs []block.Transaction) ([]block.Transaction, error) {
	if p.Attribute == intraindex.AttrAddress {
		var lo, hi *string
		lo, hi = p.Lo, p.Hi
		var out []block.Transaction
		for _, tx := range txs {
			v := intraindex.ExtractString(p.Attribute, tx)
			if stringInRange(v, lo, hi) {
				out = append(out, tx)
			}
		}
		return out, nil
	}

	lo, hi, err := parseU64OptionalBound(p)
	if err != nil {
		return nil, err
	}
	var out []block.Transaction
	for _, tx := range txs {
		v := intraindex.ExtractU64(p.Attribute, tx)
		if u64InRange(v, lo, hi) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func stringInRange(v string, lo, hi *string) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v >= *hi {
		return false
	}
	return true
}

func u64InRange(v uint64, lo, hi *uint64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v >= *hi {
		return false
	}
	return true
}

func inRange(v, lo, hi uint64) bool {
	return v >= lo && v < hi
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ledgererr.ErrBadRangeBound
	}
	return v, nil
}

func parseU64Bound(p Predicate) (lo, hi uint64, err error) {
	lo = 0
	hi = ^uint64(0)
	if p.Lo != nil {
		if lo, err = parseU64(*p.Lo); err != nil {
			return 0, 0, err
		}
	}
	if p.Hi != nil {
		if hi, err = parseU64(*p.Hi); err != nil {
			return 0, 0, err
		}
	}
	return lo, hi, nil
}

func parseU64OptionalBound(p Predicate) (lo, hi *uint64, err error) {
	if p.Lo != nil {
		v, perr := parseU64(*p.Lo)
		if perr != nil {
			return nil, nil, perr
		}
		lo = &v
	}
	if p.Hi != nil {
		v, perr := parseU64(*p.Hi)
		if perr != nil {
			return nil, nil, perr
		}
		hi = &v
	}
	return lo, hi, nil
}

// bloomPrune reports whether header's Bloom filter proves every
// probeable predicate absent from the block, letting the caller skip
// it outright. Predicates the Bloom cannot cheaply probe (wide numeric
// ranges, address ranges) are treated as non-pruning; an address
// predicate is probed only when it selects a single literal x, that
// is [x, x+"\x00").
func (e *Engine) bloomPrune(header block.BlockHeader, qp QueryParam) (bool, error) {
	for _, p := range qp.Predicates {
		switch p.Attribute {
		case intraindex.AttrAddress:
			if p.Lo == nil || p.Hi == nil || *p.Hi != *p.Lo+"\x00" {
				continue
			}
			if !header.HeaderBloom.Contains(block.BloomKeyAddress(*p.Lo)) {
				return true, nil
			}
		case intraindex.AttrID, intraindex.AttrValue:
			lo, hi, err := parseU64Bound(p)
			if err != nil {
				return false, err
			}
			if hi-lo > DefaultBloomRangeProbeLimit {
				continue
			}
			any := false
			for v := lo; v <= hi; v++ {
				key := block.BloomKeyID(v)
				if p.Attribute == intraindex.AttrValue {
					key = block.BloomKeyValue(v)
				}
				if header.HeaderBloom.Contains(key) {
					any = true
					break
				}
			}
			if !any {
				return true, nil
			}
		}
	}
	return false, nil
}
