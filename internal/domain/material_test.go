package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeMaterial(t *testing.T) {
	si := &StageInstance{
		StageName: "cutting",
		Allocations: []MaterialAllocation{
			{Item: "fabric", Quantity: 12, Unit: "m"},
			{Item: "interlining", Quantity: 3, Unit: "m"},
		},
		Consumptions: []MaterialConsumption{
			{Item: "fabric", Quantity: 9, Unit: "m"},
			{Item: "fabric", Quantity: 2.5, Unit: "m"},
		},
	}

	summary := SummarizeMaterial(si)
	assert.Equal(t, 15.0, summary.Allocated)
	assert.Equal(t, 11.5, summary.Consumed)
	assert.Equal(t, 3.5, summary.Remaining)
}

func TestSummarizeMaterialNegativeRemaining(t *testing.T) {
	si := &StageInstance{
		StageName:    "sewing",
		Allocations:  []MaterialAllocation{{Item: "thread", Quantity: 2, Unit: "spool"}},
		Consumptions: []MaterialConsumption{{Item: "thread", Quantity: 5, Unit: "spool"}},
	}

	summary := SummarizeMaterial(si)
	assert.Equal(t, -3.0, summary.Remaining)
}

func TestSummarizeMaterialByItem(t *testing.T) {
	si := &StageInstance{
		StageName: "cutting",
		Allocations: []MaterialAllocation{
			{Item: "fabric", Quantity: 12, Unit: "m"},
			{Item: "interlining", Quantity: 3, Unit: "m"},
		},
		Consumptions: []MaterialConsumption{
			{Item: "fabric", Quantity: 9, Unit: "m"},
			// consumption for an item that was never allocated
			{Item: "chalk", Quantity: 1, Unit: "pc"},
		},
	}

	items := SummarizeMaterialByItem(si)
	assert.Len(t, items, 3)

	assert.Equal(t, "fabric", items[0].Item)
	assert.Equal(t, 3.0, items[0].Remaining)

	assert.Equal(t, "interlining", items[1].Item)
	assert.Equal(t, 3.0, items[1].Remaining)

	assert.Equal(t, "chalk", items[2].Item)
	assert.Equal(t, -1.0, items[2].Remaining)
}
