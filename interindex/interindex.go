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

// Package interindex implements the inter-block learned index: a
// piecewise-linear regression from transaction timestamp to block id,
// built under a per-point error bound so a timestamp predicate can
// jump directly to a small candidate block window instead of scanning
// every block.
package interindex

import (
	"math"
	"sort"

	"github.com/r5-labs/flexledger/ledgererr"
)

// Point is one (timestamp, block id) training observation, fed to
// Build in ingest order.
type Point struct {
	Timestamp uint64
	BlockID   uint64
}

// Segment is one piecewise-linear piece: within [StartTimestamp, next
// segment's StartTimestamp), BlockID ≈ A*Timestamp + B within the
// index's error bound.
type Segment struct {
	StartTimestamp uint64
	A              float64
	B              float64
}

// Index is a built inter-block learned index.
type Index struct {
	Segments   []Segment
	ErrorBound float64
}

// Build fits a sequence of piecewise-linear segments over points,
// appended in ingest order, under errorBound. Points must arrive in
// non-decreasing timestamp order or Build fails with ErrOutOfOrder.
func Build(points []Point, errorBound float64) (*Index, error) {
	idx := &Index{ErrorBound: errorBound}
	if len(points) == 0 {
		return idx, nil
	}

	var cur []Point
	a, b := 1.0, 1.0
	segStart := points[0].Timestamp

	for i, p := range points {
		if i > 0 && p.Timestamp < points[i-1].Timestamp {
			return nil, ledgererr.ErrOutOfOrder
		}

		if len(cur) == 0 {
			cur = append(cur, p)
			segStart = p.Timestamp
			a, b = 1, 1
			continue
		}

		predicted := a*float64(p.Timestamp) + b
		if math.Abs(predicted-float64(p.BlockID)) <= errorBound {
			cur = append(cur, p)
			continue
		}

		trial := make([]Point, len(cur)+1)
		copy(trial, cur)
		trial[len(cur)] = p
		na, nb := linearRegression(trial)
		fits := true
		for _, q := range trial {
			if math.Abs(na*float64(q.Timestamp)+nb-float64(q.BlockID)) > errorBound {
				fits = false
				break
			}
		}
		if fits {
			a, b = na, nb
			cur = trial
			continue
		}

		idx.Segments = append(idx.Segments, Segment{StartTimestamp: segStart, A: a, B: b})
		cur = []Point{p}
		segStart = p.Timestamp
		a, b = 1, 1
	}
	idx.Segments = append(idx.Segments, Segment{StartTimestamp: segStart, A: a, B: b})
	return idx, nil
}

// linearRegression computes the ordinary-least-squares slope and
// intercept over pts.
func linearRegression(pts []Point) (a, b float64) {
	n := float64(len(pts))
	if n == 0 {
		return 1, 1
	}
	if n == 1 {
		return 1, float64(pts[0].BlockID) - float64(pts[0].Timestamp)
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range pts {
		x, y := float64(p.Timestamp), float64(p.BlockID)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 1, 1
	}
	a = (n*sumXY - sumX*sumY) / denom
	b = (sumY - a*sumX) / n
	return a, b
}

// segmentFor returns the segment whose interval contains t: the
// segment with the greatest StartTimestamp <= t, or the first segment
// if t precedes every segment start.
func (idx *Index) segmentFor(t uint64) Segment {
	i := sort.Search(len(idx.Segments), func(i int) bool {
		return idx.Segments[i].StartTimestamp > t
	}) - 1
	if i < 0 {
		i = 0
	}
	return idx.Segments[i]
}

// Lookup maps a target timestamp to a candidate block-id window
// [lo, hi], clamped to [startBlockID, startBlockID+blockCount-1]. The
// regression's prediction is rounded to the nearest block id before
// the window is widened by the error bound, so an exact fit (error
// bound 0) resolves to the single block nearest the prediction.
func (idx *Index) Lookup(t uint64, startBlockID, blockCount uint64) (lo, hi uint64, err error) {
	if len(idx.Segments) == 0 {
		return 0, 0, ledgererr.ErrNotBuilt
	}
	seg := idx.segmentFor(t)
	predicted := math.Round(seg.A*float64(t) + seg.B)

	minID := int64(startBlockID)
	maxID := int64(startBlockID + blockCount - 1)

	loF := int64(math.Floor(predicted - idx.ErrorBound))
	hiF := int64(math.Ceil(predicted + idx.ErrorBound))

	lo = uint64(clamp(loF, minID, maxID))
	hi = uint64(clamp(hiF, minID, maxID))
	return lo, hi, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
