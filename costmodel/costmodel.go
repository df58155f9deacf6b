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

// Package costmodel estimates and refines query execution cost: a
// two-parameter (page-cost weight, tuple-cost weight) linear model
// fit to observed executions via batch gradient descent.
package costmodel

import "github.com/r5-labs/flexledger/ledgererr"

// QueryCost is one observed or predicted query cost sample.
type QueryCost struct {
	NumPages      float64
	PageCost      float64
	TupleCost     float64
	NumTotalTuple float64
}

// Model holds the learned weights: Lambda scales the page term,
// Sigma scales the tuple term. Sigma is initialized to a key's
// selectivity; Lambda starts at 0.
type Model struct {
	Lambda float64
	Sigma  float64
}

// NewModel returns a model with Sigma initialized to the attribute's
// measured selectivity and Lambda at 0.
func NewModel(selectivity float64) *Model {
	return &Model{Lambda: 0, Sigma: selectivity}
}

// Predict returns the model's estimated cost for qc.
func (m *Model) Predict(qc QueryCost) float64 {
	return qc.NumPages*m.Lambda*qc.PageCost + qc.TupleCost*m.Sigma*qc.NumTotalTuple
}

// Fit runs projected batch gradient descent over observed (cost,
// actual) pairs for iters iterations at learning rate eta, updating
// Lambda and Sigma in place. After each step the weights are projected
// back onto [0, inf): a negative page or tuple cost weight has no
// physical meaning.
func (m *Model) Fit(observed []QueryCost, actual []float64, eta float64, iters int) error {
	if len(observed) == 0 || len(observed) != len(actual) {
		return ledgererr.ErrNoObservations
	}
	if eta <= 0 || eta > 1 {
		return ledgererr.ErrInvalidLearningRate
	}

	n := float64(len(observed))
	for iter := 0; iter < iters; iter++ {
		var dLambda, dSigma float64
		for i, qc := range observed {
			err := m.Predict(qc) - actual[i]
			dLambda += err * qc.NumPages * qc.PageCost
			dSigma += err * qc.TupleCost * qc.NumTotalTuple
		}
		dLambda /= n
		dSigma /= n

		m.Lambda -= eta * dLambda
		m.Sigma -= eta * dSigma
		if m.Lambda < 0 {
			m.Lambda = 0
		}
		if m.Sigma < 0 {
			m.Sigma = 0
		}
	}
	return nil
}
