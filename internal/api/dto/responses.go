package dto

import (
	"time"

	"github.com/codigix/passion-clothing-sub006/internal/application"
	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

// UnitResponse holds the full representation of a unit of work
type UnitResponse struct {
	UnitID            string               `json:"unitId"`
	Barcode           string               `json:"barcode,omitempty"`
	OrderID           string               `json:"orderId,omitempty"`
	ProductType       string               `json:"productType"`
	Status            string               `json:"status"`
	CurrentStage      string               `json:"currentStage"`
	StageSequence     []string             `json:"stageSequence"`
	Quantity          int                  `json:"quantity"`
	AccumulatedCost   float64              `json:"accumulatedCost"`
	EstimatedDelivery *time.Time           `json:"estimatedDelivery,omitempty"`
	Version           int64                `json:"version"`
	Stages            []StageInstanceDTO   `json:"stages"`
	History           []TransitionEventDTO `json:"history"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// StageInstanceDTO represents one stage occurrence in the API
type StageInstanceDTO struct {
	Stage           string                 `json:"stage"`
	Status          string                 `json:"status"`
	PlannedStart    *time.Time             `json:"plannedStart,omitempty"`
	PlannedEnd      *time.Time             `json:"plannedEnd,omitempty"`
	ActualStart     *time.Time             `json:"actualStart,omitempty"`
	ActualEnd       *time.Time             `json:"actualEnd,omitempty"`
	QualityApproved bool                   `json:"qualityApproved"`
	IsLate          bool                   `json:"isLate"`
	LateReason      string                 `json:"lateReason,omitempty"`
	Checkpoints     []CheckpointDTO        `json:"checkpoints,omitempty"`
	ReworkAttempts  []ReworkAttemptDTO     `json:"reworkAttempts,omitempty"`
	Material        *StageMaterialYieldDTO `json:"material,omitempty"`
}

// CheckpointDTO represents a quality checkpoint in the API
type CheckpointDTO struct {
	Name      string     `json:"name"`
	Result    *bool      `json:"result"`
	Remarks   string     `json:"remarks,omitempty"`
	CheckedBy string     `json:"checkedBy,omitempty"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

// ReworkAttemptDTO represents one rework iteration in the API
type ReworkAttemptDTO struct {
	Iteration      int       `json:"iteration"`
	Reason         string    `json:"reason"`
	FailedQuantity int       `json:"failedQuantity"`
	Cost           float64   `json:"cost"`
	RecordedBy     string    `json:"recordedBy,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// StageMaterialYieldDTO carries a stage's material balance
type StageMaterialYieldDTO struct {
	Allocated float64 `json:"allocated"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
}

// TransitionEventDTO represents a history entry in the API
type TransitionEventDTO struct {
	StageFrom     string    `json:"stageFrom,omitempty"`
	StageTo       string    `json:"stageTo"`
	Timestamp     time.Time `json:"timestamp"`
	Operator      string    `json:"operator"`
	Location      string    `json:"location,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	DurationHours float64   `json:"durationHours"`
	CostIncurred  float64   `json:"costIncurred"`
}

// UnitListResponse holds a list of unit summaries
type UnitListResponse struct {
	Units []UnitSummary `json:"units"`
	Total int           `json:"total"`
}

// UnitSummary holds the short form of a unit
type UnitSummary struct {
	UnitID       string `json:"unitId"`
	Barcode      string `json:"barcode,omitempty"`
	OrderID      string `json:"orderId,omitempty"`
	ProductType  string `json:"productType"`
	Status       string `json:"status"`
	CurrentStage string `json:"currentStage"`
	Quantity     int    `json:"quantity"`
}

// TransitionResponse is returned after a successful stage operation
type TransitionResponse struct {
	UnitID       string `json:"unitId"`
	Status       string `json:"status"`
	CurrentStage string `json:"currentStage"`
	Version      int64  `json:"version"`
}

// CheckpointResponse pairs the written checkpoint with the gate state
type CheckpointResponse struct {
	UnitID string            `json:"unitId"`
	Stage  string            `json:"stage"`
	Gate   domain.GateResult `json:"gate"`
}

// ConsumptionResponse reports the write plus any over-consumption warning
type ConsumptionResponse struct {
	UnitID  string                         `json:"unitId"`
	Stage   string                         `json:"stage"`
	Warning *domain.OverConsumptionWarning `json:"warning,omitempty"`
}

// ReworkResponse returns the committed rework attempt
type ReworkResponse struct {
	UnitID  string           `json:"unitId"`
	Stage   string           `json:"stage"`
	Attempt ReworkAttemptDTO `json:"attempt"`
}

// HistoryResponse holds the full transition history of a unit
type HistoryResponse struct {
	UnitID string               `json:"unitId"`
	Events []TransitionEventDTO `json:"events"`
}

// MaterialResponse holds the per-stage material summaries of a unit
type MaterialResponse struct {
	UnitID string                             `json:"unitId"`
	Stages []application.StageMaterialSummary `json:"stages"`
}

// ToUnitResponse converts a domain unit to its API representation
func ToUnitResponse(unit *domain.UnitOfWork) UnitResponse {
	resp := UnitResponse{
		UnitID:            unit.UnitID,
		Barcode:           unit.Barcode,
		OrderID:           unit.OrderID,
		ProductType:       unit.ProductType,
		Status:            string(unit.Status),
		CurrentStage:      unit.CurrentStage,
		StageSequence:     unit.StageSequence,
		Quantity:          unit.Quantity,
		AccumulatedCost:   unit.AccumulatedCost,
		EstimatedDelivery: unit.EstimatedDelivery,
		Version:           unit.Version,
		Stages:            make([]StageInstanceDTO, 0, len(unit.Stages)),
		History:           ToTransitionEvents(unit.History),
		CreatedAt:         unit.CreatedAt,
		UpdatedAt:         unit.UpdatedAt,
	}

	for i := range unit.Stages {
		si := &unit.Stages[i]
		dto := StageInstanceDTO{
			Stage:           si.StageName,
			Status:          string(si.Status),
			PlannedStart:    si.PlannedStart,
			PlannedEnd:      si.PlannedEnd,
			ActualStart:     si.ActualStart,
			ActualEnd:       si.ActualEnd,
			QualityApproved: si.QualityApproved,
			IsLate:          si.IsLate,
			LateReason:      si.LateReason,
		}
		for _, cp := range si.Checkpoints {
			dto.Checkpoints = append(dto.Checkpoints, CheckpointDTO{
				Name:      cp.Name,
				Result:    cp.Result,
				Remarks:   cp.Remarks,
				CheckedBy: cp.CheckedBy,
				CheckedAt: cp.CheckedAt,
			})
		}
		for _, ra := range si.ReworkAttempts {
			dto.ReworkAttempts = append(dto.ReworkAttempts, ToReworkAttemptDTO(ra))
		}
		if len(si.Allocations) > 0 || len(si.Consumptions) > 0 {
			summary := domain.SummarizeMaterial(si)
			dto.Material = &StageMaterialYieldDTO{
				Allocated: summary.Allocated,
				Consumed:  summary.Consumed,
				Remaining: summary.Remaining,
			}
		}
		resp.Stages = append(resp.Stages, dto)
	}
	return resp
}

// ToUnitSummary converts a domain unit to its short form
func ToUnitSummary(unit *domain.UnitOfWork) UnitSummary {
	return UnitSummary{
		UnitID:       unit.UnitID,
		Barcode:      unit.Barcode,
		OrderID:      unit.OrderID,
		ProductType:  unit.ProductType,
		Status:       string(unit.Status),
		CurrentStage: unit.CurrentStage,
		Quantity:     unit.Quantity,
	}
}

// ToTransitionResponse converts a domain unit to a transition acknowledgement
func ToTransitionResponse(unit *domain.UnitOfWork) TransitionResponse {
	return TransitionResponse{
		UnitID:       unit.UnitID,
		Status:       string(unit.Status),
		CurrentStage: unit.CurrentStage,
		Version:      unit.Version,
	}
}

// ToTransitionEvents converts domain history entries to their API form
func ToTransitionEvents(events []domain.TransitionEvent) []TransitionEventDTO {
	dtos := make([]TransitionEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, TransitionEventDTO{
			StageFrom:     e.StageFrom,
			StageTo:       e.StageTo,
			Timestamp:     e.Timestamp,
			Operator:      e.Operator,
			Location:      e.Location,
			Notes:         e.Notes,
			DurationHours: e.DurationHours,
			CostIncurred:  e.CostIncurred,
		})
	}
	return dtos
}

// ToReworkAttemptDTO converts a domain rework attempt to its API form
func ToReworkAttemptDTO(ra domain.ReworkAttempt) ReworkAttemptDTO {
	return ReworkAttemptDTO{
		Iteration:      ra.Iteration,
		Reason:         ra.Reason,
		FailedQuantity: ra.FailedQuantity,
		Cost:           ra.Cost,
		RecordedBy:     ra.RecordedBy,
		RecordedAt:     ra.RecordedAt,
	}
}
