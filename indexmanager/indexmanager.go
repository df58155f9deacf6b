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

// Package indexmanager implements the reconciliation loop that keeps
// the materialized intra-index set aligned with the bandit's current
// choice: forecast per-block access demand, run the bandit, and diff
// the result against what is actually on disk per block.
package indexmanager

import (
	"time"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/forecast"
	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/log"
	"github.com/r5-labs/flexledger/query"
	"github.com/r5-labs/flexledger/storage"
)

// attributes is the fixed set of candidate intra-index attributes, the
// only ones a query predicate can materialize against.
var attributes = []intraindex.Attribute{intraindex.AttrID, intraindex.AttrAddress, intraindex.AttrValue}

// Manager reconciles the intra-index set materialized in db against
// the bandit's chosen configuration, driven by the query engine's
// threshold hook.
type Manager struct {
	DB       storage.Database
	Counters *query.Counters
	Bandit   *bandit.Bandit
}

// New constructs a Manager sharing db and counters with the query
// engine, and b as the long-lived bandit instance reused across runs.
func New(db storage.Database, counters *query.Counters, b *bandit.Bandit) *Manager {
	return &Manager{DB: db, Counters: counters, Bandit: b}
}

// Run executes one reconciliation cycle. A per-block failure is
// logged and skipped; it never aborts the rest of the cycle.
func (m *Manager) Run() {
	start := time.Now()
	defer func() {
		log.Info("indexmanager: reconciliation cycle complete", "elapsed", time.Since(start))
	}()

	param, err := m.DB.GetParameter()
	if err != nil {
		log.Error("indexmanager: failed to read parameter", "err", err)
		return
	}

	freq := m.frequency(param.BlockCount)

	usage := m.Counters.SnapshotAndClearKeyUsage()
	var allArms []bandit.IndexConfig
	for attr := range usage {
		cfgs, rerr := m.DB.ReadIndexConfig(attr)
		if rerr != nil {
			log.Error("indexmanager: failed to read index config", "attribute", attr, "err", rerr)
			continue
		}
		allArms = append(allArms, cfgs...)
	}
	m.Bandit.UpdateArms(allArms)

	chosen, cerr := m.Bandit.ChooseArm(freq)
	if cerr != nil {
		log.Warn("indexmanager: no affordable arms this cycle", "err", cerr)
		return
	}

	required := make(map[uint64]map[intraindex.Attribute]bool)
	for _, cfg := range chosen {
		if required[cfg.BlockHeight] == nil {
			required[cfg.BlockHeight] = make(map[intraindex.Attribute]bool)
		}
		required[cfg.BlockHeight][cfg.Attribute] = true
	}

	for blockID, attrs := range required {
		if rerr := m.reconcileBlock(blockID, attrs); rerr != nil {
			log.Error("indexmanager: block reconciliation failed", "block_id", blockID, "err", rerr)
			continue
		}
	}

	m.Counters.AdvanceEpoch()
}

// reconcileBlock diffs blockID's existing intra-index family against
// required, deletes what is no longer wanted, rebuilds what is
// missing, and persists the family atomically.
func (m *Manager) reconcileBlock(blockID uint64, required map[intraindex.Attribute]bool) error {
	existing, err := m.DB.ReadIntraIndex(blockID)
	if err != nil {
		return err
	}

	data, err := m.DB.ReadBlockData(blockID)
	if err != nil {
		return err
	}

	family := make(map[intraindex.Attribute]*intraindex.OrderedMap)
	for attr := range required {
		if om, ok := existing[attr]; ok {
			family[attr] = om
			continue
		}
		om, berr := intraindex.Build(attr, data.Txs)
		if berr != nil {
			return berr
		}
		family[attr] = om
	}

	return m.DB.UpdateIntraIndex(blockID, family)
}

// frequency computes the per-block-height demand vector fed into the
// bandit: each epoch row of the access-count matrix is normalized to
// access fractions (so a hot block keeps a larger share of its epoch
// than a cold one), then the matrix is transposed to block-major rows
// (one row per block across epochs), smoothed via Holt linear
// forecasting, and padded by one trailing zero slot.
func (m *Manager) frequency(blockCount uint64) []float64 {
	epochRows := forecast.Normalize(m.Counters.AccessMatrix(blockCount))

	blockRows := make([][]float64, blockCount)
	for b := range blockRows {
		row := make([]float64, len(epochRows))
		for e, epochRow := range epochRows {
			row[e] = epochRow[b]
		}
		blockRows[b] = row
	}

	forecasted := forecast.HoltLinear(blockRows, forecast.DefaultAlpha, forecast.DefaultBeta)

	out := make([]float64, blockCount+1)
	copy(out, forecasted)
	return out
}
