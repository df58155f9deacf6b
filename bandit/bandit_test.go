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

package bandit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/ledgererr"
)

func TestChooseArmRespectsBudget(t *testing.T) {
	arms := []bandit.IndexConfig{
		{ID: "a", Attribute: "id", BlockHeight: 0, Performance: 1, StorageCost: 40},
		{ID: "b", Attribute: "address", BlockHeight: 0, Performance: 2, StorageCost: 40},
		{ID: "c", Attribute: "value", BlockHeight: 1, Performance: 1, StorageCost: 40},
	}
	b := bandit.New(arms, bandit.DefaultTemperature, 50)
	chosen, err := b.ChooseArm([]float64{0.9, 0.1})
	require.NoError(t, err)
	require.LessOrEqual(t, len(chosen), 1)
	var total float64
	for _, c := range chosen {
		total += c.StorageCost
	}
	require.LessOrEqual(t, total, 50.0)
}

func TestChooseArmBudgetTooSmall(t *testing.T) {
	arms := []bandit.IndexConfig{
		{ID: "a", Attribute: "id", BlockHeight: 0, Performance: 1, StorageCost: 1000},
	}
	b := bandit.New(arms, bandit.DefaultTemperature, 1)
	_, err := b.ChooseArm([]float64{1})
	require.ErrorIs(t, err, ledgererr.ErrBudgetTooSmall)
}

func TestUpdateArmsMergesByID(t *testing.T) {
	b := bandit.New([]bandit.IndexConfig{
		{ID: "a", Performance: 1},
	}, bandit.DefaultTemperature, bandit.DefaultBudgetBytes)

	b.UpdateArms([]bandit.IndexConfig{
		{ID: "a", Performance: 5},
		{ID: "b", Performance: 2},
	})

	require.Len(t, b.Arms, 2)
	require.Equal(t, 5.0, b.Arms[0].Performance)
}
