package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnitStatus represents the overall lifecycle status of a unit of work
type UnitStatus string

const (
	UnitStatusActive    UnitStatus = "active"
	UnitStatusOnHold    UnitStatus = "on_hold"
	UnitStatusCompleted UnitStatus = "completed"
	UnitStatusCancelled UnitStatus = "cancelled"
	UnitStatusReturned  UnitStatus = "returned"
)

// IsValid checks if the status is a valid UnitStatus
func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitStatusActive, UnitStatusOnHold, UnitStatusCompleted,
		UnitStatusCancelled, UnitStatusReturned:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the unit's lifecycle
func (s UnitStatus) IsTerminal() bool {
	switch s {
	case UnitStatusCompleted, UnitStatusCancelled, UnitStatusReturned:
		return true
	}
	return false
}

// StageStatus represents the status of a single stage occurrence
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusOnHold     StageStatus = "on_hold"
)

// CheckpointRecord is a named quality test attached to a stage.
// Result is nil until the checkpoint has been inspected.
type CheckpointRecord struct {
	Name      string     `bson:"name" json:"name"`
	Result    *bool      `bson:"result" json:"result"`
	Remarks   string     `bson:"remarks,omitempty" json:"remarks,omitempty"`
	CheckedBy string     `bson:"checkedBy,omitempty" json:"checkedBy,omitempty"`
	CheckedAt *time.Time `bson:"checkedAt,omitempty" json:"checkedAt,omitempty"`
}

// MaterialAllocation is a quantity of material reserved for a stage
type MaterialAllocation struct {
	Item        string    `bson:"item" json:"item"`
	Quantity    float64   `bson:"quantity" json:"quantity"`
	Unit        string    `bson:"unit" json:"unit"`
	AllocatedBy string    `bson:"allocatedBy,omitempty" json:"allocatedBy,omitempty"`
	AllocatedAt time.Time `bson:"allocatedAt" json:"allocatedAt"`
}

// MaterialConsumption is a quantity of material actually used in a stage.
// Consumption entries are append-only.
type MaterialConsumption struct {
	Item       string    `bson:"item" json:"item"`
	Quantity   float64   `bson:"quantity" json:"quantity"`
	Unit       string    `bson:"unit" json:"unit"`
	RecordedBy string    `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
	RecordedAt time.Time `bson:"recordedAt" json:"recordedAt"`
}

// ReworkAttempt records one failed iteration within a stage. Attempts are
// append-only audit entries; committed attempts are never mutated or removed.
type ReworkAttempt struct {
	Iteration      int       `bson:"iteration" json:"iteration"`
	Reason         string    `bson:"reason" json:"reason"`
	FailedQuantity int       `bson:"failedQuantity" json:"failedQuantity"`
	Cost           float64   `bson:"cost" json:"cost"`
	RecordedBy     string    `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
	RecordedAt     time.Time `bson:"recordedAt" json:"recordedAt"`
}

// StageInstance is one occurrence of a unit sitting in one stage
type StageInstance struct {
	StageName       string                `bson:"stageName" json:"stageName"`
	Status          StageStatus           `bson:"status" json:"status"`
	PlannedStart    *time.Time            `bson:"plannedStart,omitempty" json:"plannedStart,omitempty"`
	PlannedEnd      *time.Time            `bson:"plannedEnd,omitempty" json:"plannedEnd,omitempty"`
	ActualStart     *time.Time            `bson:"actualStart,omitempty" json:"actualStart,omitempty"`
	ActualEnd       *time.Time            `bson:"actualEnd,omitempty" json:"actualEnd,omitempty"`
	QualityApproved bool                  `bson:"qualityApproved" json:"qualityApproved"`
	IsLate          bool                  `bson:"isLate" json:"isLate"`
	LateReason      string                `bson:"lateReason,omitempty" json:"lateReason,omitempty"`
	Checkpoints     []CheckpointRecord    `bson:"checkpoints,omitempty" json:"checkpoints,omitempty"`
	Allocations     []MaterialAllocation  `bson:"allocations,omitempty" json:"allocations,omitempty"`
	Consumptions    []MaterialConsumption `bson:"consumptions,omitempty" json:"consumptions,omitempty"`
	ReworkAttempts  []ReworkAttempt       `bson:"reworkAttempts,omitempty" json:"reworkAttempts,omitempty"`
}

// IsOpen reports whether the stage is currently being worked or held
func (s *StageInstance) IsOpen() bool {
	return s.Status == StageStatusInProgress || s.Status == StageStatusOnHold
}

// TransitionEvent is the immutable history record written every time a unit's
// current stage changes
type TransitionEvent struct {
	StageFrom     string    `bson:"stageFrom,omitempty" json:"stageFrom,omitempty"`
	StageTo       string    `bson:"stageTo" json:"stageTo"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	Operator      string    `bson:"operator" json:"operator"`
	Location      string    `bson:"location,omitempty" json:"location,omitempty"`
	Notes         string    `bson:"notes,omitempty" json:"notes,omitempty"`
	DurationHours float64   `bson:"durationHours" json:"durationHours"`
	CostIncurred  float64   `bson:"costIncurred" json:"costIncurred"`
}

// Window is a planned start/end pair for a stage
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TransitionContext carries operator-supplied context for a transition
type TransitionContext struct {
	Operator      string
	Location      string
	Notes         string
	Timestamp     time.Time // zero means time.Now()
	LateReason    string    // optional; never overwritten when supplied
	CostIncurred  float64
	PlannedWindow *Window // planned window for the stage being opened
}

// UnitOfWork is the aggregate root for production lifecycle tracking. It is
// created when a unit enters production, mutated only through transition
// operations, and never deleted.
type UnitOfWork struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UnitID      string             `bson:"unitId" json:"unitId"`
	Barcode     string             `bson:"barcode,omitempty" json:"barcode,omitempty"`
	OrderID     string             `bson:"orderId,omitempty" json:"orderId,omitempty"`
	ProductType string             `bson:"productType" json:"productType"`

	StageSequence []string   `bson:"stageSequence" json:"stageSequence"`
	CurrentStage  string     `bson:"currentStage" json:"currentStage"`
	Status        UnitStatus `bson:"status" json:"status"`

	Quantity        int     `bson:"quantity" json:"quantity"`
	AccumulatedCost float64 `bson:"accumulatedCost" json:"accumulatedCost"`

	EstimatedDelivery *time.Time `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`

	Stages  []StageInstance   `bson:"stages" json:"stages"`
	History []TransitionEvent `bson:"history" json:"history"`

	// Version guards concurrent transitions on the same unit. Every persisted
	// mutation must compare-and-swap on this field.
	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Domain events (not persisted)
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewUnitInput holds the input for creating a unit of work
type NewUnitInput struct {
	Barcode           string
	OrderID           string
	Quantity          int
	Operator          string
	Location          string
	EstimatedDelivery *time.Time
	StartedAt         time.Time // zero means time.Now()
}

// NewUnitOfWork creates a unit entering production. Every stage of the plan is
// materialized as a pending StageInstance, planned windows are chained from the
// start time, and the first stage is auto-started.
func NewUnitOfWork(plan StagePlan, in NewUnitInput) (*UnitOfWork, error) {
	if len(plan.Stages) == 0 {
		return nil, fmt.Errorf("stage plan for product type %q has no stages", plan.ProductType)
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := in.StartedAt
	if now.IsZero() {
		now = time.Now()
	}

	unit := &UnitOfWork{
		UnitID:            uuid.New().String(),
		Barcode:           in.Barcode,
		OrderID:           in.OrderID,
		ProductType:       plan.ProductType,
		StageSequence:     make([]string, 0, len(plan.Stages)),
		Status:            UnitStatusActive,
		Quantity:          in.Quantity,
		EstimatedDelivery: in.EstimatedDelivery,
		Stages:            make([]StageInstance, 0, len(plan.Stages)),
		History:           make([]TransitionEvent, 0, 8),
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	cursor := now
	for _, tmpl := range plan.Stages {
		plannedStart := cursor
		plannedEnd := cursor.Add(tmpl.PlannedDuration)
		cursor = plannedEnd

		si := StageInstance{
			StageName:    tmpl.Name,
			Status:       StageStatusPending,
			PlannedStart: timePtr(plannedStart),
			PlannedEnd:   timePtr(plannedEnd),
			Checkpoints:  make([]CheckpointRecord, 0, len(tmpl.Checkpoints)),
		}
		for _, name := range tmpl.Checkpoints {
			si.Checkpoints = append(si.Checkpoints, CheckpointRecord{Name: name})
		}
		for _, alloc := range tmpl.Allocations {
			si.Allocations = append(si.Allocations, MaterialAllocation{
				Item:        alloc.Item,
				Quantity:    alloc.Quantity,
				Unit:        alloc.Unit,
				AllocatedAt: now,
			})
		}
		unit.Stages = append(unit.Stages, si)
		unit.StageSequence = append(unit.StageSequence, tmpl.Name)
	}

	// Auto-start the first stage
	first := &unit.Stages[0]
	first.Status = StageStatusInProgress
	first.ActualStart = timePtr(now)
	unit.CurrentStage = first.StageName

	unit.History = append(unit.History, TransitionEvent{
		StageTo:   first.StageName,
		Timestamp: now,
		Operator:  in.Operator,
		Location:  in.Location,
		Notes:     "unit entered production",
	})

	unit.addEvent(NewUnitCreatedEvent(unit, in.Operator))
	unit.addEvent(NewStageStartedEvent(unit, first.StageName, in.Operator, now))

	return unit, nil
}

// StageIndex returns the position of a stage in the unit's sequence, or -1
func (u *UnitOfWork) StageIndex(stageName string) int {
	for i, name := range u.StageSequence {
		if name == stageName {
			return i
		}
	}
	return -1
}

// Stage returns the StageInstance for a stage name, or nil
func (u *UnitOfWork) Stage(stageName string) *StageInstance {
	if i := u.StageIndex(stageName); i >= 0 {
		return &u.Stages[i]
	}
	return nil
}

// OpenStage returns the single in-progress or held StageInstance, or nil.
// The engine guarantees at most one open stage per unit.
func (u *UnitOfWork) OpenStage() *StageInstance {
	for i := range u.Stages {
		if u.Stages[i].IsOpen() {
			return &u.Stages[i]
		}
	}
	return nil
}

// nextExpectedStage returns the first stage whose predecessors are all
// completed, or "" when the sequence is exhausted
func (u *UnitOfWork) nextExpectedStage() string {
	for i := range u.Stages {
		if u.Stages[i].Status != StageStatusCompleted {
			return u.Stages[i].StageName
		}
	}
	return ""
}

// StartStage opens a StageInstance as in_progress. It fails with
// OutOfOrderStageError unless the unit has no open stage and stageName is the
// next stage in the unit's fixed sequence.
func (u *UnitOfWork) StartStage(stageName string, window *Window, operator string) error {
	if u.Status.IsTerminal() {
		return ErrUnitTerminal
	}
	if open := u.OpenStage(); open != nil {
		return &OutOfOrderStageError{
			UnitID:    u.UnitID,
			Requested: stageName,
			Expected:  open.StageName,
			Reason:    fmt.Sprintf("stage %s is still open", open.StageName),
		}
	}

	expected := u.nextExpectedStage()
	if expected == "" || stageName != expected {
		return &OutOfOrderStageError{UnitID: u.UnitID, Requested: stageName, Expected: expected}
	}

	now := time.Now()
	si := u.Stage(stageName)
	si.Status = StageStatusInProgress
	si.ActualStart = timePtr(now)
	if window != nil {
		si.PlannedStart = timePtr(window.Start)
		si.PlannedEnd = timePtr(window.End)
	}

	u.CurrentStage = stageName
	u.Status = UnitStatusActive
	u.UpdatedAt = now

	u.addEvent(NewStageStartedEvent(u, stageName, operator, now))
	return nil
}

// RecordTransition is the primary operator entry point. It gates on the
// current stage's checkpoints, detects lateness, closes the current stage,
// appends a TransitionEvent, and opens the next stage or finalizes the unit.
func (u *UnitOfWork) RecordTransition(newStage string, newStatus UnitStatus, tctx TransitionContext) error {
	if u.Status.IsTerminal() {
		return ErrUnitTerminal
	}
	cur := u.OpenStage()
	if cur == nil {
		return ErrNoOpenStage
	}

	ts := tctx.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	// Advancing must target the immediate successor; validate before any
	// state is touched so a failed call leaves the aggregate unchanged.
	curIdx := u.StageIndex(cur.StageName)
	if newStatus != UnitStatusOnHold && !newStatus.IsTerminal() {
		if curIdx+1 >= len(u.StageSequence) || newStage != u.StageSequence[curIdx+1] {
			expected := ""
			if curIdx+1 < len(u.StageSequence) {
				expected = u.StageSequence[curIdx+1]
			}
			return &OutOfOrderStageError{UnitID: u.UnitID, Requested: newStage, Expected: expected}
		}
	}

	// Lateness against the current stage's planned end; a caller-supplied
	// reason always wins over the generated one. Runs only after the call
	// is known to succeed so failed calls leave the aggregate unchanged.
	detectLate := func() {
		if !IsLate(cur, ts) {
			return
		}
		cur.IsLate = true
		if tctx.LateReason != "" {
			cur.LateReason = tctx.LateReason
		} else if cur.LateReason == "" {
			cur.LateReason = DefaultLateReason(cur, ts)
		}
		u.addEvent(NewUnitLateEvent(u, cur.StageName, cur.LateReason, ts))
	}

	// Pause: hold the current stage without closing it
	if newStatus == UnitStatusOnHold {
		detectLate()
		cur.Status = StageStatusOnHold
		u.Status = UnitStatusOnHold
		u.UpdatedAt = ts
		u.History = append(u.History, TransitionEvent{
			StageFrom: cur.StageName,
			StageTo:   cur.StageName,
			Timestamp: ts,
			Operator:  tctx.Operator,
			Location:  tctx.Location,
			Notes:     withDefaultNote(tctx.Notes, "stage placed on hold"),
		})
		u.addEvent(NewUnitFrozenEvent(u, cur.StageName, tctx.Operator, ts))
		return nil
	}

	// The quality gate applies whenever a stage closes and is evaluated
	// fresh on every attempt
	if gate := EvaluateCheckpoints(cur); !gate.Passed {
		return &CheckpointsIncompleteError{
			UnitID:     u.UnitID,
			Stage:      cur.StageName,
			Unresolved: gate.Unresolved,
		}
	}

	// Close the current stage
	detectLate()
	cur.Status = StageStatusCompleted
	cur.ActualEnd = timePtr(ts)
	cur.QualityApproved = len(cur.Checkpoints) > 0

	duration := 0.0
	if cur.ActualStart != nil {
		duration = ts.Sub(*cur.ActualStart).Hours()
	}

	u.AccumulatedCost += tctx.CostIncurred

	if newStatus.IsTerminal() {
		u.Status = newStatus
		u.CurrentStage = cur.StageName
		u.UpdatedAt = ts
		u.History = append(u.History, TransitionEvent{
			StageFrom:     cur.StageName,
			StageTo:       string(newStatus),
			Timestamp:     ts,
			Operator:      tctx.Operator,
			Location:      tctx.Location,
			Notes:         tctx.Notes,
			DurationHours: duration,
			CostIncurred:  tctx.CostIncurred,
		})
		u.addEvent(NewStageCompletedEvent(u, cur.StageName, duration, ts))
		u.addEvent(NewUnitTerminalEvent(u, tctx.Operator, ts))
		return nil
	}

	next := &u.Stages[curIdx+1]
	next.Status = StageStatusInProgress
	next.ActualStart = timePtr(ts)
	if tctx.PlannedWindow != nil {
		next.PlannedStart = timePtr(tctx.PlannedWindow.Start)
		next.PlannedEnd = timePtr(tctx.PlannedWindow.End)
	}

	u.CurrentStage = newStage
	u.Status = UnitStatusActive
	u.UpdatedAt = ts
	u.History = append(u.History, TransitionEvent{
		StageFrom:     cur.StageName,
		StageTo:       newStage,
		Timestamp:     ts,
		Operator:      tctx.Operator,
		Location:      tctx.Location,
		Notes:         tctx.Notes,
		DurationHours: duration,
		CostIncurred:  tctx.CostIncurred,
	})

	u.addEvent(NewStageCompletedEvent(u, cur.StageName, duration, ts))
	u.addEvent(NewUnitTransitionedEvent(u, cur.StageName, newStage, tctx.Operator, ts))
	u.addEvent(NewStageStartedEvent(u, newStage, tctx.Operator, ts))
	return nil
}

// FreezeForReview places the unit and its open stage on hold after lateness is
// detected. Continuing requires a supervisor transition.
func (u *UnitOfWork) FreezeForReview(operator, reason string) error {
	if u.Status.IsTerminal() {
		return ErrUnitTerminal
	}
	cur := u.OpenStage()
	if cur == nil {
		return ErrNoOpenStage
	}

	now := time.Now()
	cur.Status = StageStatusOnHold
	cur.IsLate = true
	if reason != "" {
		cur.LateReason = reason
	} else if cur.LateReason == "" {
		cur.LateReason = DefaultLateReason(cur, now)
	}

	u.Status = UnitStatusOnHold
	u.UpdatedAt = now
	u.addEvent(NewUnitFrozenEvent(u, cur.StageName, operator, now))
	return nil
}

// SetCheckpointResult records a quality checkpoint outcome. Checkpoints may be
// edited up to the moment of transition; an unknown name creates a new record.
func (u *UnitOfWork) SetCheckpointResult(stageName, checkpoint string, result bool, remarks, checkedBy string) error {
	si := u.Stage(stageName)
	if si == nil {
		return ErrStageNotFound
	}
	if si.Status == StageStatusCompleted {
		return fmt.Errorf("stage %s is already completed: %w", stageName, ErrStageClosed)
	}

	now := time.Now()
	for i := range si.Checkpoints {
		if si.Checkpoints[i].Name == checkpoint {
			si.Checkpoints[i].Result = &result
			si.Checkpoints[i].Remarks = remarks
			si.Checkpoints[i].CheckedBy = checkedBy
			si.Checkpoints[i].CheckedAt = timePtr(now)
			u.UpdatedAt = now
			return nil
		}
	}

	si.Checkpoints = append(si.Checkpoints, CheckpointRecord{
		Name:      checkpoint,
		Result:    &result,
		Remarks:   remarks,
		CheckedBy: checkedBy,
		CheckedAt: timePtr(now),
	})
	u.UpdatedAt = now
	return nil
}

// AllocateMaterial reserves material for a stage that has not completed yet
func (u *UnitOfWork) AllocateMaterial(stageName, item string, quantity float64, unit, allocatedBy string) error {
	si := u.Stage(stageName)
	if si == nil {
		return ErrStageNotFound
	}
	if si.Status == StageStatusCompleted {
		return fmt.Errorf("stage %s is already completed: %w", stageName, ErrStageClosed)
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	now := time.Now()
	si.Allocations = append(si.Allocations, MaterialAllocation{
		Item:        item,
		Quantity:    quantity,
		Unit:        unit,
		AllocatedBy: allocatedBy,
		AllocatedAt: now,
	})
	u.UpdatedAt = now
	return nil
}

// RecordConsumption appends a consumption entry to a stage. Consumption beyond
// allocation is permitted but reported back as an OverConsumptionWarning; the
// ledger never clamps.
func (u *UnitOfWork) RecordConsumption(stageName, item string, quantity float64, unit, recordedBy string) (*OverConsumptionWarning, error) {
	si := u.Stage(stageName)
	if si == nil {
		return nil, ErrStageNotFound
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	si.Consumptions = append(si.Consumptions, MaterialConsumption{
		Item:       item,
		Quantity:   quantity,
		Unit:       unit,
		RecordedBy: recordedBy,
		RecordedAt: now,
	})
	u.UpdatedAt = now

	summary := SummarizeMaterial(si)
	if summary.Consumed > summary.Allocated {
		warning := &OverConsumptionWarning{
			Stage:     stageName,
			Item:      item,
			Allocated: summary.Allocated,
			Consumed:  summary.Consumed,
		}
		u.addEvent(NewMaterialOverConsumedEvent(u, warning, now))
		return warning, nil
	}
	return nil, nil
}

// RecordRework appends a rework attempt with the next iteration number and
// adds its cost to the unit's accumulated cost
func (u *UnitOfWork) RecordRework(stageName, reason string, failedQuantity int, cost float64, recordedBy string) (*ReworkAttempt, error) {
	si := u.Stage(stageName)
	if si == nil {
		return nil, ErrStageNotFound
	}
	if failedQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	attempt := ReworkAttempt{
		Iteration:      len(si.ReworkAttempts) + 1,
		Reason:         reason,
		FailedQuantity: failedQuantity,
		Cost:           cost,
		RecordedBy:     recordedBy,
		RecordedAt:     now,
	}
	si.ReworkAttempts = append(si.ReworkAttempts, attempt)
	u.AccumulatedCost += cost
	u.UpdatedAt = now

	u.addEvent(NewReworkRecordedEvent(u, stageName, &attempt, now))
	return &attempt, nil
}

func (u *UnitOfWork) addEvent(e DomainEvent) {
	u.domainEvents = append(u.domainEvents, e)
}

// Events returns all pending domain events and clears them
func (u *UnitOfWork) Events() []DomainEvent {
	events := u.domainEvents
	u.domainEvents = nil
	return events
}

// GetDomainEvents returns pending domain events without clearing them
func (u *UnitOfWork) GetDomainEvents() []DomainEvent {
	return u.domainEvents
}

// ClearDomainEvents clears pending domain events after successful publication
func (u *UnitOfWork) ClearDomainEvents() {
	u.domainEvents = nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func withDefaultNote(notes, fallback string) string {
	if notes != "" {
		return notes
	}
	return fallback
}
