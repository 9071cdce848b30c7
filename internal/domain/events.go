package domain

import "time"

// DomainEvent is implemented by all events raised by the UnitOfWork aggregate
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// UnitCreatedEvent - when a unit of work enters production
type UnitCreatedEvent struct {
	UnitID      string    `json:"unitId"`
	Barcode     string    `json:"barcode,omitempty"`
	OrderID     string    `json:"orderId,omitempty"`
	ProductType string    `json:"productType"`
	Quantity    int       `json:"quantity"`
	FirstStage  string    `json:"firstStage"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewUnitCreatedEvent(u *UnitOfWork, createdBy string) *UnitCreatedEvent {
	return &UnitCreatedEvent{
		UnitID:      u.UnitID,
		Barcode:     u.Barcode,
		OrderID:     u.OrderID,
		ProductType: u.ProductType,
		Quantity:    u.Quantity,
		FirstStage:  u.CurrentStage,
		CreatedBy:   createdBy,
		CreatedAt:   u.CreatedAt,
	}
}

func (e *UnitCreatedEvent) EventType() string     { return "UnitCreatedEvent" }
func (e *UnitCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// StageStartedEvent - when a stage opens for work
type StageStartedEvent struct {
	UnitID      string    `json:"unitId"`
	ProductType string    `json:"productType"`
	Stage       string    `json:"stage"`
	Operator    string    `json:"operator,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
}

func NewStageStartedEvent(u *UnitOfWork, stage, operator string, at time.Time) *StageStartedEvent {
	return &StageStartedEvent{
		UnitID:      u.UnitID,
		ProductType: u.ProductType,
		Stage:       stage,
		Operator:    operator,
		StartedAt:   at,
	}
}

func (e *StageStartedEvent) EventType() string     { return "StageStartedEvent" }
func (e *StageStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// StageCompletedEvent - when a stage closes
type StageCompletedEvent struct {
	UnitID        string    `json:"unitId"`
	ProductType   string    `json:"productType"`
	Stage         string    `json:"stage"`
	DurationHours float64   `json:"durationHours"`
	WasLate       bool      `json:"wasLate"`
	CompletedAt   time.Time `json:"completedAt"`
}

func NewStageCompletedEvent(u *UnitOfWork, stage string, durationHours float64, at time.Time) *StageCompletedEvent {
	wasLate := false
	if si := u.Stage(stage); si != nil {
		wasLate = si.IsLate
	}
	return &StageCompletedEvent{
		UnitID:        u.UnitID,
		ProductType:   u.ProductType,
		Stage:         stage,
		DurationHours: durationHours,
		WasLate:       wasLate,
		CompletedAt:   at,
	}
}

func (e *StageCompletedEvent) EventType() string     { return "StageCompletedEvent" }
func (e *StageCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// UnitTransitionedEvent - when a unit moves from one stage to the next
type UnitTransitionedEvent struct {
	UnitID       string    `json:"unitId"`
	ProductType  string    `json:"productType"`
	StageFrom    string    `json:"stageFrom"`
	StageTo      string    `json:"stageTo"`
	Operator     string    `json:"operator,omitempty"`
	TransitionAt time.Time `json:"transitionAt"`
}

func NewUnitTransitionedEvent(u *UnitOfWork, stageFrom, stageTo, operator string, at time.Time) *UnitTransitionedEvent {
	return &UnitTransitionedEvent{
		UnitID:       u.UnitID,
		ProductType:  u.ProductType,
		StageFrom:    stageFrom,
		StageTo:      stageTo,
		Operator:     operator,
		TransitionAt: at,
	}
}

func (e *UnitTransitionedEvent) EventType() string     { return "UnitTransitionedEvent" }
func (e *UnitTransitionedEvent) OccurredAt() time.Time { return e.TransitionAt }

// UnitLateEvent - when a stage is detected past its planned end
type UnitLateEvent struct {
	UnitID     string    `json:"unitId"`
	Stage      string    `json:"stage"`
	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detectedAt"`
}

func NewUnitLateEvent(u *UnitOfWork, stage, reason string, at time.Time) *UnitLateEvent {
	return &UnitLateEvent{
		UnitID:     u.UnitID,
		Stage:      stage,
		Reason:     reason,
		DetectedAt: at,
	}
}

func (e *UnitLateEvent) EventType() string     { return "UnitLateEvent" }
func (e *UnitLateEvent) OccurredAt() time.Time { return e.DetectedAt }

// UnitFrozenEvent - when a unit is placed on hold for review
type UnitFrozenEvent struct {
	UnitID   string    `json:"unitId"`
	Stage    string    `json:"stage"`
	Reason   string    `json:"reason,omitempty"`
	FrozenBy string    `json:"frozenBy,omitempty"`
	FrozenAt time.Time `json:"frozenAt"`
}

func NewUnitFrozenEvent(u *UnitOfWork, stage, frozenBy string, at time.Time) *UnitFrozenEvent {
	reason := ""
	if si := u.Stage(stage); si != nil {
		reason = si.LateReason
	}
	return &UnitFrozenEvent{
		UnitID:   u.UnitID,
		Stage:    stage,
		Reason:   reason,
		FrozenBy: frozenBy,
		FrozenAt: at,
	}
}

func (e *UnitFrozenEvent) EventType() string     { return "UnitFrozenEvent" }
func (e *UnitFrozenEvent) OccurredAt() time.Time { return e.FrozenAt }

// ReworkRecordedEvent - when a failed iteration is logged against a stage
type ReworkRecordedEvent struct {
	UnitID         string    `json:"unitId"`
	Stage          string    `json:"stage"`
	Iteration      int       `json:"iteration"`
	Reason         string    `json:"reason"`
	FailedQuantity int       `json:"failedQuantity"`
	Cost           float64   `json:"cost"`
	RecordedAt     time.Time `json:"recordedAt"`
}

func NewReworkRecordedEvent(u *UnitOfWork, stage string, attempt *ReworkAttempt, at time.Time) *ReworkRecordedEvent {
	return &ReworkRecordedEvent{
		UnitID:         u.UnitID,
		Stage:          stage,
		Iteration:      attempt.Iteration,
		Reason:         attempt.Reason,
		FailedQuantity: attempt.FailedQuantity,
		Cost:           attempt.Cost,
		RecordedAt:     at,
	}
}

func (e *ReworkRecordedEvent) EventType() string     { return "ReworkRecordedEvent" }
func (e *ReworkRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// MaterialOverConsumedEvent - when stage consumption exceeds allocation
type MaterialOverConsumedEvent struct {
	UnitID     string    `json:"unitId"`
	Stage      string    `json:"stage"`
	Item       string    `json:"item"`
	Allocated  float64   `json:"allocated"`
	Consumed   float64   `json:"consumed"`
	RecordedAt time.Time `json:"recordedAt"`
}

func NewMaterialOverConsumedEvent(u *UnitOfWork, w *OverConsumptionWarning, at time.Time) *MaterialOverConsumedEvent {
	return &MaterialOverConsumedEvent{
		UnitID:     u.UnitID,
		Stage:      w.Stage,
		Item:       w.Item,
		Allocated:  w.Allocated,
		Consumed:   w.Consumed,
		RecordedAt: at,
	}
}

func (e *MaterialOverConsumedEvent) EventType() string     { return "MaterialOverConsumedEvent" }
func (e *MaterialOverConsumedEvent) OccurredAt() time.Time { return e.RecordedAt }

// UnitTerminalEvent - when a unit reaches completed, cancelled, or returned
type UnitTerminalEvent struct {
	UnitID          string    `json:"unitId"`
	ProductType     string    `json:"productType"`
	FinalStatus     string    `json:"finalStatus"`
	FinalStage      string    `json:"finalStage"`
	AccumulatedCost float64   `json:"accumulatedCost"`
	FinalizedBy     string    `json:"finalizedBy,omitempty"`
	FinalizedAt     time.Time `json:"finalizedAt"`
}

func NewUnitTerminalEvent(u *UnitOfWork, finalizedBy string, at time.Time) *UnitTerminalEvent {
	return &UnitTerminalEvent{
		UnitID:          u.UnitID,
		ProductType:     u.ProductType,
		FinalStatus:     string(u.Status),
		FinalStage:      u.CurrentStage,
		AccumulatedCost: u.AccumulatedCost,
		FinalizedBy:     finalizedBy,
		FinalizedAt:     at,
	}
}

func (e *UnitTerminalEvent) EventType() string     { return "UnitTerminalEvent" }
func (e *UnitTerminalEvent) OccurredAt() time.Time { return e.FinalizedAt }
