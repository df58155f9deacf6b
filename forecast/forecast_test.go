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

package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/forecast"
)

func TestNormalizeRowSums(t *testing.T) {
	out := forecast.Normalize([][]float64{
		{1, 1, 2},
		{0, 0, 0},
	})
	require.InDelta(t, 1.0, out[0][0]+out[0][1]+out[0][2], 1e-9)
	require.Equal(t, []float64{0, 0, 0}, out[1])
}

func TestHoltLinearShortRowPassthrough(t *testing.T) {
	out := forecast.HoltLinear([][]float64{{0.5}}, forecast.DefaultAlpha, forecast.DefaultBeta)
	require.Equal(t, 0.5, out[0])
}

func TestHoltLinearConstantRow(t *testing.T) {
	out := forecast.HoltLinear([][]float64{{1, 1, 1, 1}}, forecast.DefaultAlpha, forecast.DefaultBeta)
	require.InDelta(t, 1.0, out[0], 1e-9)
}
