package application

import "time"

// CreateUnitCommand creates a unit of work from a product type's stage plan
type CreateUnitCommand struct {
	ProductType       string
	Barcode           string
	OrderID           string
	Quantity          int
	Operator          string
	Location          string
	EstimatedDelivery *time.Time
}

// StartStageCommand explicitly opens the next stage of a unit
type StartStageCommand struct {
	UnitID       string
	Stage        string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	Operator     string
}

// RecordTransitionCommand moves a unit out of its current stage
type RecordTransitionCommand struct {
	UnitID       string
	NewStage     string
	NewStatus    string
	Operator     string
	Location     string
	Notes        string
	Timestamp    *time.Time
	LateReason   string
	CostIncurred float64
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

// FreezeUnitCommand places a unit on hold for supervisor review
type FreezeUnitCommand struct {
	UnitID   string
	Operator string
	Reason   string
}

// SetCheckpointCommand records a quality checkpoint outcome
type SetCheckpointCommand struct {
	UnitID     string
	Stage      string
	Checkpoint string
	Passed     bool
	Remarks    string
	CheckedBy  string
}

// AllocateMaterialCommand reserves material against a stage
type AllocateMaterialCommand struct {
	UnitID      string
	Stage       string
	Item        string
	Quantity    float64
	Unit        string
	AllocatedBy string
}

// RecordConsumptionCommand appends a material consumption entry
type RecordConsumptionCommand struct {
	UnitID     string
	Stage      string
	Item       string
	Quantity   float64
	Unit       string
	RecordedBy string
}

// RecordReworkCommand logs a failed iteration against a stage
type RecordReworkCommand struct {
	UnitID         string
	Stage          string
	Reason         string
	FailedQuantity int
	Cost           float64
	RecordedBy     string
}
