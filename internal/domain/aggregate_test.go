package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() StagePlan {
	return StagePlan{
		ProductType: "shirt",
		Stages: []StageTemplate{
			{
				Name:            "cutting",
				PlannedDuration: 4 * time.Hour,
				Allocations: []PlannedAllocation{
					{Item: "fabric", Quantity: 12, Unit: "m"},
				},
			},
			{
				Name:            "sewing",
				PlannedDuration: 8 * time.Hour,
				Checkpoints:     []string{"seam_strength", "stitch_density"},
			},
			{Name: "finishing", PlannedDuration: 2 * time.Hour},
			{Name: "packing", PlannedDuration: 1 * time.Hour},
		},
	}
}

func newTestUnit(t *testing.T) *UnitOfWork {
	t.Helper()
	unit, err := NewUnitOfWork(testPlan(), NewUnitInput{
		Barcode:  "BC-0001",
		OrderID:  "order-1",
		Quantity: 10,
		Operator: "op-1",
	})
	require.NoError(t, err)
	unit.Events() // drop creation events so tests assert only their own
	return unit
}

// passSewingCheckpoints resolves every sewing checkpoint as passed
func passSewingCheckpoints(t *testing.T, unit *UnitOfWork) {
	t.Helper()
	require.NoError(t, unit.SetCheckpointResult("sewing", "seam_strength", true, "", "qc-1"))
	require.NoError(t, unit.SetCheckpointResult("sewing", "stitch_density", true, "", "qc-1"))
}

func TestNewUnitOfWork(t *testing.T) {
	t.Run("auto-starts the first stage", func(t *testing.T) {
		unit, err := NewUnitOfWork(testPlan(), NewUnitInput{Quantity: 5, Operator: "op-1"})
		require.NoError(t, err)

		assert.NotEmpty(t, unit.UnitID)
		assert.Equal(t, UnitStatusActive, unit.Status)
		assert.Equal(t, "cutting", unit.CurrentStage)
		assert.Equal(t, []string{"cutting", "sewing", "finishing", "packing"}, unit.StageSequence)
		assert.Equal(t, int64(1), unit.Version)

		require.Len(t, unit.Stages, 4)
		assert.Equal(t, StageStatusInProgress, unit.Stages[0].Status)
		assert.NotNil(t, unit.Stages[0].ActualStart)
		for _, si := range unit.Stages[1:] {
			assert.Equal(t, StageStatusPending, si.Status)
			assert.Nil(t, si.ActualStart)
		}

		require.Len(t, unit.History, 1)
		assert.Equal(t, "cutting", unit.History[0].StageTo)
		assert.Empty(t, unit.History[0].StageFrom)
	})

	t.Run("seeds checkpoints and allocations from the plan", func(t *testing.T) {
		unit, err := NewUnitOfWork(testPlan(), NewUnitInput{Quantity: 5})
		require.NoError(t, err)

		sewing := unit.Stage("sewing")
		require.NotNil(t, sewing)
		require.Len(t, sewing.Checkpoints, 2)
		assert.Nil(t, sewing.Checkpoints[0].Result)

		cutting := unit.Stage("cutting")
		require.Len(t, cutting.Allocations, 1)
		assert.Equal(t, "fabric", cutting.Allocations[0].Item)
	})

	t.Run("chains planned windows from the start time", func(t *testing.T) {
		start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
		unit, err := NewUnitOfWork(testPlan(), NewUnitInput{Quantity: 1, StartedAt: start})
		require.NoError(t, err)

		assert.Equal(t, start, *unit.Stages[0].PlannedStart)
		assert.Equal(t, start.Add(4*time.Hour), *unit.Stages[0].PlannedEnd)
		assert.Equal(t, start.Add(4*time.Hour), *unit.Stages[1].PlannedStart)
		assert.Equal(t, start.Add(12*time.Hour), *unit.Stages[1].PlannedEnd)
	})

	t.Run("raises creation events", func(t *testing.T) {
		unit, err := NewUnitOfWork(testPlan(), NewUnitInput{Quantity: 5})
		require.NoError(t, err)

		events := unit.Events()
		require.Len(t, events, 2)
		assert.Equal(t, "UnitCreatedEvent", events[0].EventType())
		assert.Equal(t, "StageStartedEvent", events[1].EventType())
		assert.Empty(t, unit.Events())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewUnitOfWork(testPlan(), NewUnitInput{Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = NewUnitOfWork(StagePlan{ProductType: "empty"}, NewUnitInput{Quantity: 1})
		assert.Error(t, err)
	})
}

func TestStartStage(t *testing.T) {
	t.Run("fails while another stage is open", func(t *testing.T) {
		unit := newTestUnit(t)

		err := unit.StartStage("sewing", nil, "op-1")
		var oooErr *OutOfOrderStageError
		require.ErrorAs(t, err, &oooErr)
		assert.Equal(t, "sewing", oooErr.Requested)
	})

	t.Run("fails when the stage is not next in sequence", func(t *testing.T) {
		unit := newTestUnit(t)
		require.NoError(t, unit.RecordTransition("sewing", UnitStatusOnHold, TransitionContext{Operator: "op-1"}))
		// held stage still counts as open
		err := unit.StartStage("finishing", nil, "op-1")
		var oooErr *OutOfOrderStageError
		require.ErrorAs(t, err, &oooErr)
	})
}

func TestRecordTransition(t *testing.T) {
	t.Run("closes the current stage and opens the next", func(t *testing.T) {
		unit := newTestUnit(t)

		err := unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{
			Operator:     "op-2",
			Location:     "line-3",
			CostIncurred: 40,
		})
		require.NoError(t, err)

		cutting := unit.Stage("cutting")
		assert.Equal(t, StageStatusCompleted, cutting.Status)
		assert.NotNil(t, cutting.ActualEnd)

		sewing := unit.Stage("sewing")
		assert.Equal(t, StageStatusInProgress, sewing.Status)
		assert.NotNil(t, sewing.ActualStart)

		assert.Equal(t, "sewing", unit.CurrentStage)
		assert.Equal(t, UnitStatusActive, unit.Status)
		assert.Equal(t, 40.0, unit.AccumulatedCost)

		require.Len(t, unit.History, 2)
		last := unit.History[1]
		assert.Equal(t, "cutting", last.StageFrom)
		assert.Equal(t, "sewing", last.StageTo)
		assert.Equal(t, "op-2", last.Operator)
		assert.Equal(t, 40.0, last.CostIncurred)
	})

	t.Run("records stage duration in hours", func(t *testing.T) {
		unit := newTestUnit(t)
		started := *unit.Stages[0].ActualStart

		err := unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{
			Operator:  "op-1",
			Timestamp: started.Add(3 * time.Hour),
		})
		require.NoError(t, err)
		assert.InDelta(t, 3.0, unit.History[1].DurationHours, 0.001)
	})

	t.Run("rejects skipping a stage", func(t *testing.T) {
		unit := newTestUnit(t)

		err := unit.RecordTransition("finishing", UnitStatusActive, TransitionContext{Operator: "op-1"})
		var oooErr *OutOfOrderStageError
		require.ErrorAs(t, err, &oooErr)
		assert.Equal(t, "finishing", oooErr.Requested)
		assert.Equal(t, "sewing", oooErr.Expected)

		// nothing changed
		assert.Equal(t, "cutting", unit.CurrentStage)
		assert.Equal(t, StageStatusInProgress, unit.Stage("cutting").Status)
		assert.Len(t, unit.History, 1)
	})

	t.Run("fails when there is no open stage", func(t *testing.T) {
		unit := newTestUnit(t)
		unit.Stages[0].Status = StageStatusCompleted

		err := unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "op-1"})
		assert.ErrorIs(t, err, ErrNoOpenStage)
	})

	t.Run("raises transition events", func(t *testing.T) {
		unit := newTestUnit(t)

		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		events := unit.Events()
		require.Len(t, events, 3)
		assert.Equal(t, "StageCompletedEvent", events[0].EventType())
		assert.Equal(t, "UnitTransitionedEvent", events[1].EventType())
		assert.Equal(t, "StageStartedEvent", events[2].EventType())
	})
}

func TestRecordTransitionCheckpointGate(t *testing.T) {
	// advance past cutting so the gated sewing stage is open
	advanceToSewing := func(t *testing.T) *UnitOfWork {
		unit := newTestUnit(t)
		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		unit.Events()
		return unit
	}

	t.Run("blocks on unresolved checkpoints", func(t *testing.T) {
		unit := advanceToSewing(t)

		err := unit.RecordTransition("finishing", UnitStatusActive, TransitionContext{Operator: "op-1"})
		var gateErr *CheckpointsIncompleteError
		require.ErrorAs(t, err, &gateErr)
		assert.Equal(t, "sewing", gateErr.Stage)
		assert.ElementsMatch(t, []string{"seam_strength", "stitch_density"}, gateErr.Unresolved)
	})

	t.Run("blocks on a failed checkpoint", func(t *testing.T) {
		unit := advanceToSewing(t)
		require.NoError(t, unit.SetCheckpointResult("sewing", "seam_strength", true, "", "qc-1"))
		require.NoError(t, unit.SetCheckpointResult("sewing", "stitch_density", false, "loose stitches", "qc-1"))

		err := unit.RecordTransition("finishing", UnitStatusActive, TransitionContext{Operator: "op-1"})
		var gateErr *CheckpointsIncompleteError
		require.ErrorAs(t, err, &gateErr)
		assert.Equal(t, []string{"stitch_density"}, gateErr.Unresolved)
	})

	t.Run("re-evaluates the gate after checkpoints are fixed", func(t *testing.T) {
		unit := advanceToSewing(t)
		require.NoError(t, unit.SetCheckpointResult("sewing", "seam_strength", false, "", "qc-1"))

		err := unit.RecordTransition("finishing", UnitStatusActive, TransitionContext{Operator: "op-1"})
		require.Error(t, err)

		require.NoError(t, unit.SetCheckpointResult("sewing", "seam_strength", true, "re-inspected", "qc-2"))
		require.NoError(t, unit.SetCheckpointResult("sewing", "stitch_density", true, "", "qc-2"))

		require.NoError(t, unit.RecordTransition("finishing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		assert.True(t, unit.Stage("sewing").QualityApproved)
	})

	t.Run("a stage without checkpoints passes trivially", func(t *testing.T) {
		unit := newTestUnit(t)
		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		assert.False(t, unit.Stage("cutting").QualityApproved)
	})
}

func TestRecordTransitionLateness(t *testing.T) {
	t.Run("on time when ending exactly at the planned end", func(t *testing.T) {
		unit := newTestUnit(t)
		plannedEnd := *unit.Stages[0].PlannedEnd

		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{
			Operator:  "op-1",
			Timestamp: plannedEnd,
		}))
		assert.False(t, unit.Stage("cutting").IsLate)
		assert.Empty(t, unit.Stage("cutting").LateReason)
	})

	t.Run("marks late with the generated reason", func(t *testing.T) {
		unit := newTestUnit(t)
		plannedEnd := *unit.Stages[0].PlannedEnd

		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{
			Operator:  "op-1",
			Timestamp: plannedEnd.Add(95 * time.Minute),
		}))
		cutting := unit.Stage("cutting")
		assert.True(t, cutting.IsLate)
		assert.Equal(t, "exceeded planned end by 95 minutes", cutting.LateReason)

		events := unit.Events()
		types := make([]string, 0, len(events))
		for _, e := range events {
			types = append(types, e.EventType())
		}
		assert.Contains(t, types, "UnitLateEvent")
	})

	t.Run("caller-supplied reason wins over the generated one", func(t *testing.T) {
		unit := newTestUnit(t)
		plannedEnd := *unit.Stages[0].PlannedEnd

		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{
			Operator:   "op-1",
			Timestamp:  plannedEnd.Add(time.Hour),
			LateReason: "fabric delivery delayed",
		}))
		assert.Equal(t, "fabric delivery delayed", unit.Stage("cutting").LateReason)
	})
}

func TestRecordTransitionHoldAndResume(t *testing.T) {
	unit := newTestUnit(t)

	require.NoError(t, unit.RecordTransition("cutting", UnitStatusOnHold, TransitionContext{
		Operator: "supervisor-1",
		Notes:    "waiting for thread restock",
	}))
	assert.Equal(t, UnitStatusOnHold, unit.Status)
	assert.Equal(t, StageStatusOnHold, unit.Stage("cutting").Status)
	assert.Nil(t, unit.Stage("cutting").ActualEnd)

	// the hold is an auditable history entry
	require.Len(t, unit.History, 2)
	assert.Equal(t, "cutting", unit.History[1].StageFrom)
	assert.Equal(t, "cutting", unit.History[1].StageTo)

	// resuming closes the held stage and advances normally
	require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "supervisor-1"}))
	assert.Equal(t, UnitStatusActive, unit.Status)
	assert.Equal(t, "sewing", unit.CurrentStage)
	assert.Equal(t, StageStatusCompleted, unit.Stage("cutting").Status)
}

func TestRecordTransitionTerminal(t *testing.T) {
	t.Run("completing the last stage finalizes the unit", func(t *testing.T) {
		unit := newTestUnit(t)
		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		passSewingCheckpoints(t, unit)
		require.NoError(t, unit.RecordTransition("finishing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		require.NoError(t, unit.RecordTransition("packing", UnitStatusActive, TransitionContext{Operator: "op-1"}))
		unit.Events()

		require.NoError(t, unit.RecordTransition("", UnitStatusCompleted, TransitionContext{Operator: "op-1"}))
		assert.Equal(t, UnitStatusCompleted, unit.Status)
		assert.Equal(t, StageStatusCompleted, unit.Stage("packing").Status)
		assert.Equal(t, "completed", unit.History[len(unit.History)-1].StageTo)

		events := unit.Events()
		require.Len(t, events, 2)
		assert.Equal(t, "UnitTerminalEvent", events[1].EventType())
	})

	t.Run("cancellation is allowed mid-sequence", func(t *testing.T) {
		unit := newTestUnit(t)

		require.NoError(t, unit.RecordTransition("", UnitStatusCancelled, TransitionContext{
			Operator: "supervisor-1",
			Notes:    "order cancelled by customer",
		}))
		assert.Equal(t, UnitStatusCancelled, unit.Status)
		assert.Equal(t, StageStatusCompleted, unit.Stage("cutting").Status)
		assert.Equal(t, StageStatusPending, unit.Stage("sewing").Status)
	})

	t.Run("terminal units reject further operations", func(t *testing.T) {
		unit := newTestUnit(t)
		require.NoError(t, unit.RecordTransition("", UnitStatusCancelled, TransitionContext{Operator: "op-1"}))

		assert.ErrorIs(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{}), ErrUnitTerminal)
		assert.ErrorIs(t, unit.StartStage("sewing", nil, "op-1"), ErrUnitTerminal)
		assert.ErrorIs(t, unit.FreezeForReview("op-1", ""), ErrUnitTerminal)
	})
}

func TestFreezeForReview(t *testing.T) {
	unit := newTestUnit(t)

	require.NoError(t, unit.FreezeForReview("supervisor-1", "blocking defect found"))
	assert.Equal(t, UnitStatusOnHold, unit.Status)

	cutting := unit.Stage("cutting")
	assert.Equal(t, StageStatusOnHold, cutting.Status)
	assert.True(t, cutting.IsLate)
	assert.Equal(t, "blocking defect found", cutting.LateReason)

	events := unit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "UnitFrozenEvent", events[0].EventType())
}

func TestSetCheckpointResult(t *testing.T) {
	t.Run("unknown checkpoint name creates a record", func(t *testing.T) {
		unit := newTestUnit(t)

		require.NoError(t, unit.SetCheckpointResult("cutting", "pattern_match", true, "", "qc-1"))
		cutting := unit.Stage("cutting")
		require.Len(t, cutting.Checkpoints, 1)
		assert.Equal(t, "pattern_match", cutting.Checkpoints[0].Name)
		require.NotNil(t, cutting.Checkpoints[0].Result)
		assert.True(t, *cutting.Checkpoints[0].Result)
	})

	t.Run("rejects edits on completed stages", func(t *testing.T) {
		unit := newTestUnit(t)
		require.NoError(t, unit.RecordTransition("sewing", UnitStatusActive, TransitionContext{Operator: "op-1"}))

		err := unit.SetCheckpointResult("cutting", "pattern_match", true, "", "qc-1")
		assert.ErrorIs(t, err, ErrStageClosed)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		unit := newTestUnit(t)
		err := unit.SetCheckpointResult("embroidery", "cp", true, "", "qc-1")
		assert.ErrorIs(t, err, ErrStageNotFound)
	})
}

func TestRecordConsumption(t *testing.T) {
	t.Run("within allocation returns no warning", func(t *testing.T) {
		unit := newTestUnit(t)

		warning, err := unit.RecordConsumption("cutting", "fabric", 8, "m", "op-1")
		require.NoError(t, err)
		assert.Nil(t, warning)

		summary := SummarizeMaterial(unit.Stage("cutting"))
		assert.Equal(t, 12.0, summary.Allocated)
		assert.Equal(t, 8.0, summary.Consumed)
		assert.Equal(t, 4.0, summary.Remaining)
	})

	t.Run("over-consumption records and warns", func(t *testing.T) {
		unit := newTestUnit(t)

		warning, err := unit.RecordConsumption("cutting", "fabric", 15, "m", "op-1")
		require.NoError(t, err)
		require.NotNil(t, warning)
		assert.Equal(t, 12.0, warning.Allocated)
		assert.Equal(t, 15.0, warning.Consumed)

		// the write happened despite the warning
		require.Len(t, unit.Stage("cutting").Consumptions, 1)

		events := unit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "MaterialOverConsumedEvent", events[0].EventType())
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		unit := newTestUnit(t)

		_, err := unit.RecordConsumption("cutting", "fabric", 0, "m", "op-1")
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = unit.RecordConsumption("cutting", "fabric", -3, "m", "op-1")
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Empty(t, unit.Stage("cutting").Consumptions)
	})
}

func TestRecordRework(t *testing.T) {
	t.Run("iterations number sequentially and cost accumulates", func(t *testing.T) {
		unit := newTestUnit(t)

		first, err := unit.RecordRework("cutting", "misaligned pattern", 2, 15.5, "op-1")
		require.NoError(t, err)
		assert.Equal(t, 1, first.Iteration)

		second, err := unit.RecordRework("cutting", "fabric tear", 1, 8, "op-1")
		require.NoError(t, err)
		assert.Equal(t, 2, second.Iteration)

		assert.InDelta(t, 23.5, unit.AccumulatedCost, 0.001)
		require.Len(t, unit.Stage("cutting").ReworkAttempts, 2)

		events := unit.Events()
		require.Len(t, events, 2)
		assert.Equal(t, "ReworkRecordedEvent", events[0].EventType())
	})

	t.Run("rejects non-positive failed quantity", func(t *testing.T) {
		unit := newTestUnit(t)
		_, err := unit.RecordRework("cutting", "reason", 0, 5, "op-1")
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		unit := newTestUnit(t)
		_, err := unit.RecordRework("embroidery", "reason", 1, 5, "op-1")
		assert.True(t, errors.Is(err, ErrStageNotFound))
	})
}
