package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for lifecycle operations
var (
	// ErrUnitTerminal is returned when an operation targets a unit whose
	// lifecycle has already ended
	ErrUnitTerminal = errors.New("unit is in a terminal status")

	// ErrNoOpenStage is returned when a transition is attempted on a unit
	// with no in-progress or held stage
	ErrNoOpenStage = errors.New("unit has no open stage")

	// ErrStageNotFound is returned when a stage name is not part of the
	// unit's sequence
	ErrStageNotFound = errors.New("stage not found in unit sequence")

	// ErrStageClosed is returned when a completed stage is mutated
	ErrStageClosed = errors.New("stage is closed")

	// ErrConcurrentModification is returned when a persisted write loses the
	// version race. Callers should re-fetch the unit and retry.
	ErrConcurrentModification = errors.New("unit was modified concurrently")

	// ErrInvalidQuantity is returned for zero or negative quantities
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrUnitNotFound is returned when no unit matches the given identifier
	ErrUnitNotFound = errors.New("unit not found")

	// ErrDuplicateBarcode is returned when a barcode is already registered
	ErrDuplicateBarcode = errors.New("barcode already registered")

	// ErrInvalidStatus is returned when a caller supplies a status outside
	// the lifecycle vocabulary
	ErrInvalidStatus = errors.New("invalid unit status")

	// ErrUnknownProductType is returned when no stage plan exists for the
	// requested product type
	ErrUnknownProductType = errors.New("unknown product type")
)

// OutOfOrderStageError is returned when a stage operation violates the unit's
// fixed stage sequence
type OutOfOrderStageError struct {
	UnitID    string
	Requested string
	Expected  string
	Reason    string
}

func (e *OutOfOrderStageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("out of order stage %q for unit %s: %s", e.Requested, e.UnitID, e.Reason)
	}
	if e.Expected == "" {
		return fmt.Sprintf("out of order stage %q for unit %s: sequence exhausted", e.Requested, e.UnitID)
	}
	return fmt.Sprintf("out of order stage %q for unit %s: expected %q", e.Requested, e.UnitID, e.Expected)
}

// CheckpointsIncompleteError is returned when a transition is blocked by
// unresolved or failed quality checkpoints
type CheckpointsIncompleteError struct {
	UnitID     string
	Stage      string
	Unresolved []string
}

func (e *CheckpointsIncompleteError) Error() string {
	return fmt.Sprintf("checkpoints incomplete for unit %s stage %s: %s",
		e.UnitID, e.Stage, strings.Join(e.Unresolved, ", "))
}

// OverConsumptionWarning reports consumption exceeding allocation for a stage.
// It accompanies a successful write and is not an error.
type OverConsumptionWarning struct {
	Stage     string  `json:"stage"`
	Item      string  `json:"item"`
	Allocated float64 `json:"allocated"`
	Consumed  float64 `json:"consumed"`
}

func (w *OverConsumptionWarning) Message() string {
	return fmt.Sprintf("stage %s consumed %.3f against %.3f allocated", w.Stage, w.Consumed, w.Allocated)
}
