package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateMergesSamePair(t *testing.T) {
	movements := []Movement{
		{ItemID: 1, WarehouseID: 1, Quantity: 3},
		{ItemID: 1, WarehouseID: 1, Quantity: 2},
		{ItemID: 2, WarehouseID: 1, Quantity: 4},
	}
	agg := Aggregate(movements)
	assert.Equal(t, 5.0, agg[Pair{ItemID: 1, WarehouseID: 1}])
	assert.Equal(t, 4.0, agg[Pair{ItemID: 2, WarehouseID: 1}])
}

func TestComputeDelta(t *testing.T) {
	oldMovements := []Movement{
		{ItemID: 1, WarehouseID: 1, Quantity: 5},
		{ItemID: 2, WarehouseID: 1, Quantity: 2},
	}
	newMovements := []Movement{
		{ItemID: 1, WarehouseID: 1, Quantity: 3},
		{ItemID: 3, WarehouseID: 2, Quantity: 7},
	}

	delta := ComputeDelta(newMovements, oldMovements)
	assert.Equal(t, -2.0, delta[Pair{ItemID: 1, WarehouseID: 1}])
	assert.Equal(t, -2.0, delta[Pair{ItemID: 2, WarehouseID: 1}])
	assert.Equal(t, 7.0, delta[Pair{ItemID: 3, WarehouseID: 2}])
}

func TestComputeDeltaUnchangedLinesDropOut(t *testing.T) {
	same := []Movement{{ItemID: 1, WarehouseID: 1, Quantity: 5}}
	delta := ComputeDelta(same, same)
	assert.Empty(t, delta)
}

// Revert(old) + Apply(new) must equal the raw delta, which is what the
// orchestrator's edit path relies on.
func TestDeltaMatchesRevertReapply(t *testing.T) {
	oldMovements := []Movement{{ItemID: 1, WarehouseID: 1, Quantity: 5}}
	newMovements := []Movement{{ItemID: 1, WarehouseID: 1, Quantity: 3}}

	// IN(old) then OUT(new): +5 - 3 = +2 restored.
	net := Aggregate(oldMovements)[Pair{1, 1}] - Aggregate(newMovements)[Pair{1, 1}]
	delta := ComputeDelta(newMovements, oldMovements)[Pair{1, 1}]
	assert.Equal(t, net, -delta)
}
