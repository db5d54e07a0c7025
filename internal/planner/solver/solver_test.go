package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

var (
	ore   = planner.ItemOf("iron-ore", 0)
	plate = planner.ItemOf("iron-plate", 0)
	gear  = planner.ItemOf("iron-gear-wheel", 0)
	power = planner.ElectricityKey()
)

func TestSolveSingleMechanism(t *testing.T) {
	mechs := []Mechanism{
		{Label: "gears", Flow: planner.Flow{gear: 2, plate: -1}, Cost: 1},
	}

	res, err := Solve(mechs, map[planner.ItemKey]float64{gear: 10})
	require.NoError(t, err)

	require.Len(t, res.Activities, 1)
	assert.InDelta(t, 5, res.Activities[0], 1e-9)
	assert.InDelta(t, 5, res.Objective, 1e-9)
	assert.InDelta(t, 10, res.NetFlow[gear], 1e-9)
	// Plates have no producer, so their deficit is reported in the net flow
	// rather than blocking the solve.
	assert.InDelta(t, -5, res.NetFlow[plate], 1e-9)
}

func TestSolveChain(t *testing.T) {
	mechs := []Mechanism{
		{Label: "miner", Flow: planner.Flow{ore: 2}, Cost: 2},
		{Label: "smelter", Flow: planner.Flow{ore: -1, plate: 1}, Cost: 3},
	}

	res, err := Solve(mechs, map[planner.ItemKey]float64{plate: 4})
	require.NoError(t, err)

	require.Len(t, res.Activities, 2)
	assert.InDelta(t, 2, res.Activities[0], 1e-9)
	assert.InDelta(t, 4, res.Activities[1], 1e-9)
	assert.InDelta(t, 16, res.Objective, 1e-9)
	assert.InDelta(t, 4, res.NetFlow[plate], 1e-9)
	assert.InDelta(t, 0, res.NetFlow[ore], 1e-9)
}

func TestSolveSurplusAllowed(t *testing.T) {
	// The miner overshoots ore relative to smelter demand; the balance rows
	// only require the surplus to stay nonnegative.
	mechs := []Mechanism{
		{Label: "miner", Flow: planner.Flow{ore: 10, power: -1}, Cost: 1},
		{Label: "smelter", Flow: planner.Flow{ore: -3, plate: 1}, Cost: 1},
		{Label: "generator", Flow: planner.Flow{power: 4}, Cost: 1},
	}

	res, err := Solve(mechs, map[planner.ItemKey]float64{plate: 6})
	require.NoError(t, err)

	assert.InDelta(t, 6, res.Activities[1], 1e-9)
	assert.GreaterOrEqual(t, res.NetFlow[ore], -1e-9)
	assert.GreaterOrEqual(t, res.NetFlow[power], -1e-9)
}

func TestSolveUntouchedTarget(t *testing.T) {
	mechs := []Mechanism{
		{Flow: planner.Flow{ore: 2}, Cost: 1},
	}

	_, err := Solve(mechs, map[planner.ItemKey]float64{plate: 5})
	assert.ErrorIs(t, err, ErrUntargetableItem)
	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, KindInfeasible, solveErr.Kind)
	assert.Contains(t, solveErr.Error(), "iron-plate")
}

func TestSolveConsumerOnlyTarget(t *testing.T) {
	// The target item is only ever consumed; the equality row has no
	// positive coefficient, so the LP is infeasible and the failure names
	// the item among the missing producers.
	mechs := []Mechanism{
		{Flow: planner.Flow{plate: -2, gear: 1}, Cost: 1},
	}

	_, err := Solve(mechs, map[planner.ItemKey]float64{plate: 10})
	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, KindInfeasible, solveErr.Kind)
	assert.Contains(t, solveErr.Error(), "iron-plate")
}

func TestSolveIdleConsumerMechanism(t *testing.T) {
	// The vent touches only an item with no producer, so it sits in no
	// constraint row. It must idle at zero rather than feed the LP an
	// all-zero column.
	mechs := []Mechanism{
		{Label: "smelter", Flow: planner.Flow{plate: 1}, Cost: 1},
		{Label: "vent", Flow: planner.Flow{ore: -1}, Cost: 1},
	}

	res, err := Solve(mechs, map[planner.ItemKey]float64{plate: 5})
	require.NoError(t, err)

	require.Len(t, res.Activities, 2)
	assert.InDelta(t, 5, res.Activities[0], 1e-9)
	assert.InDelta(t, 0, res.Activities[1], 1e-9)
	assert.InDelta(t, 5, res.Objective, 1e-9)
	assert.InDelta(t, 5, res.NetFlow[plate], 1e-9)
	assert.InDelta(t, 0, res.NetFlow[ore], 1e-9)
}

func TestSolveConflictingTargets(t *testing.T) {
	// One variable cannot meet two different equality targets.
	mechs := []Mechanism{
		{Flow: planner.Flow{ore: 1, plate: 1}, Cost: 1},
	}

	_, err := Solve(mechs, map[planner.ItemKey]float64{ore: 10, plate: 5})
	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, KindInfeasible, solveErr.Kind)
}

func TestSolveMissingProducersReported(t *testing.T) {
	// The smelter needs ore nobody makes and the target forces it to run at
	// a rate the free surplus cannot absorb downward.
	mechs := []Mechanism{
		{Flow: planner.Flow{plate: 1, ore: -1}, Cost: 1},
		{Flow: planner.Flow{gear: 1, plate: -2}, Cost: 1},
	}

	res, err := Solve(mechs, map[planner.ItemKey]float64{gear: 3})
	require.NoError(t, err)
	assert.InDelta(t, 3, res.Activities[1], 1e-9)
	assert.InDelta(t, 6, res.Activities[0], 1e-9)
	assert.InDelta(t, -6, res.NetFlow[ore], 1e-9)
}

func TestSolveFreeRayUnbounded(t *testing.T) {
	mechs := []Mechanism{
		{Label: "free", Flow: planner.Flow{ore: 1}, Cost: 0},
		{Label: "smelter", Flow: planner.Flow{ore: -1, plate: 1}, Cost: 1},
	}

	_, err := Solve(mechs, map[planner.ItemKey]float64{plate: 5})
	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, KindUnbounded, solveErr.Kind)
	assert.Contains(t, solveErr.Detail, "mechanism 0")
}

func TestSolveNegativeCostUnbounded(t *testing.T) {
	mechs := []Mechanism{
		{Flow: planner.Flow{ore: 1}, Cost: -1},
	}

	_, err := Solve(mechs, nil)
	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, KindUnbounded, solveErr.Kind)
}

func TestSolveEmpty(t *testing.T) {
	res, err := Solve(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Activities)
	assert.Empty(t, res.NetFlow)
}

func TestSolveErrorRendering(t *testing.T) {
	err := &SolveError{
		Kind:             KindInfeasible,
		Detail:           "no activity levels satisfy the targets",
		MissingProducers: []planner.ItemKey{ore},
	}
	msg := err.Error()
	assert.Contains(t, msg, "infeasible")
	assert.Contains(t, msg, "iron-ore")
}
