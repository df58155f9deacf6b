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

package costmodel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/costmodel"
	"github.com/r5-labs/flexledger/ledgererr"
)

func TestFitEmptyObservationsFails(t *testing.T) {
	m := costmodel.NewModel(0.5)
	err := m.Fit(nil, nil, 0.1, 10)
	require.ErrorIs(t, err, ledgererr.ErrNoObservations)
}

func TestFitInvalidLearningRateFails(t *testing.T) {
	m := costmodel.NewModel(0.5)
	obs := []costmodel.QueryCost{{NumPages: 1, PageCost: 1, TupleCost: 1, NumTotalTuple: 10}}
	err := m.Fit(obs, []float64{1}, 0, 10)
	require.ErrorIs(t, err, ledgererr.ErrInvalidLearningRate)

	err = m.Fit(obs, []float64{1}, 1.5, 10)
	require.ErrorIs(t, err, ledgererr.ErrInvalidLearningRate)
}

func TestFitUpdatesPredictions(t *testing.T) {
	m := costmodel.NewModel(0.2)
	obs := []costmodel.QueryCost{
		{NumPages: 10, PageCost: 1, TupleCost: 1, NumTotalTuple: 100},
		{NumPages: 20, PageCost: 1, TupleCost: 1, NumTotalTuple: 200},
	}
	before := make([]float64, len(obs))
	for i, qc := range obs {
		before[i] = m.Predict(qc)
	}
	require.NoError(t, m.Fit(obs, []float64{50, 100}, 0.0001, 50))
	after := make([]float64, len(obs))
	for i, qc := range obs {
		after[i] = m.Predict(qc)
	}
	require.NotEqual(t, before, after)
}
