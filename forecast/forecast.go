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

// Package forecast predicts next-period block-access demand from a
// rolling access-epoch matrix using Holt linear (double exponential)
// smoothing, one independent forecast per row.
package forecast

// DefaultAlpha and DefaultBeta are the default level/trend smoothing
// factors.
const (
	DefaultAlpha = 0.4
	DefaultBeta  = 0.6
)

// Normalize returns a copy of m with each row rescaled to sum to 1 (or
// left all-zero if the row sum is zero).
func Normalize(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		var sum float64
		for _, v := range row {
			sum += v
		}
		nr := make([]float64, len(row))
		if sum != 0 {
			for j, v := range row {
				nr[j] = v / sum
			}
		}
		out[i] = nr
	}
	return out
}

// HoltLinear forecasts the next value of each row of m under smoothing
// factors alpha (level) and beta (trend). Rows shorter than two
// observations are returned unchanged (the forecast is just the last
// observed row).
func HoltLinear(m [][]float64, alpha, beta float64) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		if len(row) < 2 {
			if len(row) == 1 {
				out[i] = row[0]
			}
			continue
		}
		level := row[0]
		trend := row[1] - row[0]
		for _, v := range row {
			newLevel := alpha*v + (1-alpha)*(level+trend)
			trend = beta*(newLevel-level) + (1-beta)*trend
			level = newLevel
		}
		out[i] = level
	}
	return out
}
