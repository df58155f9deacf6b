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

package query

import (
	"sync"

	"github.com/r5-labs/flexledger/intraindex"
)

// DefaultQueryThreshold is the default number of queries between
// index-manager reconciliation runs.
const DefaultQueryThreshold = 100

// Counters holds the three process-wide structures the query pipeline
// maintains: a query counter, a per-attribute key-usage counter, and a
// growable (epoch x block-offset) access matrix. All three share one
// exclusive lock, held only for the update itself and never across a
// storage call.
type Counters struct {
	mu          sync.Mutex
	queryCount  uint64
	keyUsage    map[intraindex.Attribute]uint64
	blockAccess [][]uint64
	epoch       int
}

// NewCounters returns a fresh, zeroed Counters.
func NewCounters() *Counters {
	return &Counters{
		keyUsage:    make(map[intraindex.Attribute]uint64),
		blockAccess: [][]uint64{{}},
	}
}

// IncrQuery increments and returns the query counter.
func (c *Counters) IncrQuery() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryCount++
	return c.queryCount
}

// ResetQuery zeroes the query counter and returns its prior value.
func (c *Counters) ResetQuery() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.queryCount
	c.queryCount = 0
	return v
}

// PeekQuery returns the current query counter without modifying it,
// for use by read-only observers such as a metrics scrape.
func (c *Counters) PeekQuery() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryCount
}

// PeekKeyUsage returns attr's current usage count without clearing it.
func (c *Counters) PeekKeyUsage(attr intraindex.Attribute) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyUsage[attr]
}

// IncrKeyUsage bumps attr's usage count.
func (c *Counters) IncrKeyUsage(attr intraindex.Attribute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyUsage[attr]++
}

// SnapshotAndClearKeyUsage copies out the key-usage counters and clears
// them, the lock being released before any storage call the caller
// makes with the snapshot.
func (c *Counters) SnapshotAndClearKeyUsage() map[intraindex.Attribute]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[intraindex.Attribute]uint64, len(c.keyUsage))
	for k, v := range c.keyUsage {
		out[k] = v
		delete(c.keyUsage, k)
	}
	return out
}

// IncrBlockAccess bumps the access count for blockOffset within the
// current epoch's row, growing the row to fit if needed.
func (c *Counters) IncrBlockAccess(blockOffset uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row := c.blockAccess[c.epoch]
	for uint64(len(row)) <= blockOffset {
		row = append(row, 0)
	}
	row[blockOffset]++
	c.blockAccess[c.epoch] = row
}

// AdvanceEpoch starts a new, empty access-matrix row and returns the
// new epoch index. Called by the index manager at the end of each
// reconciliation cycle.
func (c *Counters) AdvanceEpoch() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockAccess = append(c.blockAccess, []uint64{})
	c.epoch++
	return c.epoch
}

// AccessMatrix returns a defensive copy of the access matrix as
// normalized-ready float64 rows, padded to blockCount columns, for
// feeding into forecast.HoltLinear.
func (c *Counters) AccessMatrix(blockCount uint64) [][]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]float64, len(c.blockAccess))
	for i, row := range c.blockAccess {
		fr := make([]float64, blockCount)
		for j, v := range row {
			if uint64(j) < blockCount {
				fr[j] = float64(v)
			}
		}
		out[i] = fr
	}
	return out
}
