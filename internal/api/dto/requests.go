package dto

import "time"

// CreateUnitRequest holds the input for creating a unit of work
type CreateUnitRequest struct {
	ProductType       string     `json:"productType" binding:"required,product_type"`
	Barcode           string     `json:"barcode" binding:"omitempty,barcode"`
	OrderID           string     `json:"orderId"`
	Quantity          int        `json:"quantity" binding:"required,min=1"`
	Operator          string     `json:"operator" binding:"required"`
	Location          string     `json:"location"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// StartStageRequest holds the input for explicitly opening the next stage
type StartStageRequest struct {
	Stage        string     `json:"stage" binding:"required,stage_name"`
	PlannedStart *time.Time `json:"plannedStart"`
	PlannedEnd   *time.Time `json:"plannedEnd"`
	Operator     string     `json:"operator" binding:"required"`
}

// RecordTransitionRequest holds the input for moving a unit out of its
// current stage. NewStage is required unless NewStatus is terminal or on_hold.
type RecordTransitionRequest struct {
	NewStage     string     `json:"newStage" binding:"omitempty,stage_name"`
	NewStatus    string     `json:"newStatus" binding:"omitempty,oneof=active on_hold completed cancelled returned"`
	Operator     string     `json:"operator" binding:"required"`
	Location     string     `json:"location"`
	Notes        string     `json:"notes"`
	Timestamp    *time.Time `json:"timestamp"`
	LateReason   string     `json:"lateReason"`
	CostIncurred float64    `json:"costIncurred" binding:"omitempty,min=0"`
	PlannedStart *time.Time `json:"plannedStart"`
	PlannedEnd   *time.Time `json:"plannedEnd"`
}

// FreezeUnitRequest holds the input for placing a unit on hold for review
type FreezeUnitRequest struct {
	Operator string `json:"operator" binding:"required"`
	Reason   string `json:"reason"`
}

// SetCheckpointRequest holds the input for recording a checkpoint outcome
type SetCheckpointRequest struct {
	Stage      string `json:"stage" binding:"required,stage_name"`
	Checkpoint string `json:"checkpoint" binding:"required"`
	Passed     *bool  `json:"passed" binding:"required"`
	Remarks    string `json:"remarks"`
	CheckedBy  string `json:"checkedBy" binding:"required"`
}

// AllocateMaterialRequest holds the input for reserving material on a stage
type AllocateMaterialRequest struct {
	Stage       string  `json:"stage" binding:"required,stage_name"`
	Item        string  `json:"item" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit" binding:"required"`
	AllocatedBy string  `json:"allocatedBy" binding:"required"`
}

// RecordConsumptionRequest holds the input for appending a consumption entry
type RecordConsumptionRequest struct {
	Stage      string  `json:"stage" binding:"required,stage_name"`
	Item       string  `json:"item" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0"`
	Unit       string  `json:"unit" binding:"required"`
	RecordedBy string  `json:"recordedBy" binding:"required"`
}

// RecordReworkRequest holds the input for logging a failed iteration
type RecordReworkRequest struct {
	Stage          string  `json:"stage" binding:"required,stage_name"`
	Reason         string  `json:"reason" binding:"required"`
	FailedQuantity int     `json:"failedQuantity" binding:"required,min=1"`
	Cost           float64 `json:"cost" binding:"omitempty,min=0"`
	RecordedBy     string  `json:"recordedBy" binding:"required"`
}
