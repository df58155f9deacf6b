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

// Package bandit implements the contextual-bandit intra-index
// selector: a temperature-weighted, budget-constrained sampler over
// candidate (attribute, block) arms, choosing which intra-indexes are
// worth materializing given recent access frequency.
package bandit

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/r5-labs/flexledger/intraindex"
	"github.com/r5-labs/flexledger/ledgererr"
)

// DefaultTemperature is the default Boltzmann temperature τ.
const DefaultTemperature = 0.3

// DefaultBudgetBytes is the default storage budget B, in bytes.
const DefaultBudgetBytes = 100 * 1024 * 1024

// IndexConfig is one candidate arm: a materializable intra-index for a
// given attribute at a given block, with its measured performance and
// storage cost.
type IndexConfig struct {
	ID          string
	Attribute   intraindex.Attribute
	BlockHeight uint64
	Performance float64
	StorageCost float64
}

// FromIntraIndex derives an IndexConfig's StorageCost directly from the
// candidate ordered map's own deterministic encoding, matching how the
// index manager measures the cost of a materialized intra-index.
func FromIntraIndex(attr intraindex.Attribute, blockHeight uint64, performance float64, om *intraindex.OrderedMap) IndexConfig {
	return IndexConfig{
		ID:          uuid.NewString(),
		Attribute:   attr,
		BlockHeight: blockHeight,
		Performance: performance,
		StorageCost: float64(len(om.Encode())),
	}
}

// Bandit selects which arms to materialize given a fixed storage
// budget and exploration temperature.
type Bandit struct {
	Arms        []IndexConfig
	Temperature float64
	Budget      float64
}

// New constructs a Bandit with the given initial arm set.
func New(arms []IndexConfig, temperature, budget float64) *Bandit {
	return &Bandit{Arms: arms, Temperature: temperature, Budget: budget}
}

// UpdateArms merges newly-read IndexConfigs into the bandit's
// long-lived arm set: an arm with the same ID replaces the existing
// one, a new ID is appended. This lets the index manager reuse one
// bandit instance across reconciliation cycles instead of
// reconstructing it from the full persisted IndexConfigs list every
// time.
func (b *Bandit) UpdateArms(arms []IndexConfig) {
	byID := make(map[string]int, len(b.Arms))
	for i, a := range b.Arms {
		byID[a.ID] = i
	}
	for _, a := range arms {
		if i, ok := byID[a.ID]; ok {
			b.Arms[i] = a
			continue
		}
		byID[a.ID] = len(b.Arms)
		b.Arms = append(b.Arms, a)
	}
}

// ChooseArm selects a budget-respecting subset of arms weighted by
// exp(performance * frequency[block_height] / temperature), drawing
// without replacement until the budget is exhausted or no affordable
// candidate remains. frequency is indexed by block height.
func (b *Bandit) ChooseArm(frequency []float64) ([]IndexConfig, error) {
	remaining := b.Budget

	type candidate struct {
		cfg    IndexConfig
		weight float64
	}
	var pool []candidate
	for _, a := range b.Arms {
		if int(a.BlockHeight) >= len(frequency) {
			continue
		}
		if a.StorageCost > remaining {
			continue
		}
		w := math.Exp((a.Performance * frequency[a.BlockHeight]) / b.Temperature)
		pool = append(pool, candidate{cfg: a, weight: w})
	}
	if len(pool) == 0 {
		return nil, ledgererr.ErrBudgetTooSmall
	}

	var chosen []IndexConfig
	for len(pool) > 0 {
		total := 0.0
		for _, c := range pool {
			total += c.weight
		}
		if total <= 0 {
			break
		}
		r := rand.Float64() * total
		var acc float64
		pick := len(pool) - 1
		for i, c := range pool {
			acc += c.weight
			if r <= acc {
				pick = i
				break
			}
		}

		chosen = append(chosen, pool[pick].cfg)
		remaining -= pool[pick].cfg.StorageCost
		pool = append(pool[:pick], pool[pick+1:]...)

		var next []candidate
		for _, c := range pool {
			if c.cfg.StorageCost <= remaining {
				next = append(next, c)
			}
		}
		pool = next
	}
	return chosen, nil
}
