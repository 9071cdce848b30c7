package application

import (
	"time"

	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

// StageMaterialSummary pairs a stage's material totals with its per-item
// breakdown
type StageMaterialSummary struct {
	Totals domain.MaterialSummary `json:"totals"`
	Items  []domain.ItemSummary   `json:"items,omitempty"`
}

// StageSummary is the per-stage slice of a lifecycle summary
type StageSummary struct {
	Stage           string     `json:"stage"`
	Status          string     `json:"status"`
	PlannedStart    *time.Time `json:"plannedStart,omitempty"`
	PlannedEnd      *time.Time `json:"plannedEnd,omitempty"`
	ActualStart     *time.Time `json:"actualStart,omitempty"`
	ActualEnd       *time.Time `json:"actualEnd,omitempty"`
	DurationHours   float64    `json:"durationHours"`
	IsLate          bool       `json:"isLate"`
	LateReason      string     `json:"lateReason,omitempty"`
	QualityApproved bool       `json:"qualityApproved"`
	CheckpointsDone int        `json:"checkpointsDone"`
	CheckpointTotal int        `json:"checkpointTotal"`
	ReworkCount     int        `json:"reworkCount"`
	ReworkCost      float64    `json:"reworkCost"`
	MaterialUsed    float64    `json:"materialUsed"`
}

// LifecycleSummary is the aggregated view of a unit's entire production run
type LifecycleSummary struct {
	UnitID            string         `json:"unitId"`
	Barcode           string         `json:"barcode,omitempty"`
	OrderID           string         `json:"orderId,omitempty"`
	ProductType       string         `json:"productType"`
	Status            string         `json:"status"`
	CurrentStage      string         `json:"currentStage"`
	Quantity          int            `json:"quantity"`
	ProgressPercent   float64        `json:"progressPercent"`
	StagesCompleted   int            `json:"stagesCompleted"`
	StagesTotal       int            `json:"stagesTotal"`
	LateStages        []string       `json:"lateStages,omitempty"`
	TotalReworkCount  int            `json:"totalReworkCount"`
	TotalReworkCost   float64        `json:"totalReworkCost"`
	AccumulatedCost   float64        `json:"accumulatedCost"`
	TotalHours        float64        `json:"totalHours"`
	EstimatedDelivery *time.Time     `json:"estimatedDelivery,omitempty"`
	Stages            []StageSummary `json:"stages"`
}

// BuildLifecycleSummary folds a unit's stages, ledgers, and history into a
// single read model. The summary is derived state only; it never mutates the
// aggregate.
func BuildLifecycleSummary(unit *domain.UnitOfWork) *LifecycleSummary {
	summary := &LifecycleSummary{
		UnitID:            unit.UnitID,
		Barcode:           unit.Barcode,
		OrderID:           unit.OrderID,
		ProductType:       unit.ProductType,
		Status:            string(unit.Status),
		CurrentStage:      unit.CurrentStage,
		Quantity:          unit.Quantity,
		StagesTotal:       len(unit.Stages),
		AccumulatedCost:   unit.AccumulatedCost,
		EstimatedDelivery: unit.EstimatedDelivery,
		Stages:            make([]StageSummary, 0, len(unit.Stages)),
	}

	for i := range unit.Stages {
		si := &unit.Stages[i]

		ss := StageSummary{
			Stage:           si.StageName,
			Status:          string(si.Status),
			PlannedStart:    si.PlannedStart,
			PlannedEnd:      si.PlannedEnd,
			ActualStart:     si.ActualStart,
			ActualEnd:       si.ActualEnd,
			IsLate:          si.IsLate,
			LateReason:      si.LateReason,
			QualityApproved: si.QualityApproved,
			CheckpointTotal: len(si.Checkpoints),
			ReworkCount:     len(si.ReworkAttempts),
		}

		if si.ActualStart != nil && si.ActualEnd != nil {
			ss.DurationHours = si.ActualEnd.Sub(*si.ActualStart).Hours()
		}
		for _, cp := range si.Checkpoints {
			if cp.Result != nil {
				ss.CheckpointsDone++
			}
		}
		for _, ra := range si.ReworkAttempts {
			ss.ReworkCost += ra.Cost
		}
		ss.MaterialUsed = domain.SummarizeMaterial(si).Consumed

		if si.Status == domain.StageStatusCompleted {
			summary.StagesCompleted++
		}
		if si.IsLate {
			summary.LateStages = append(summary.LateStages, si.StageName)
		}
		summary.TotalReworkCount += ss.ReworkCount
		summary.TotalReworkCost += ss.ReworkCost
		summary.TotalHours += ss.DurationHours

		summary.Stages = append(summary.Stages, ss)
	}

	if summary.StagesTotal > 0 {
		summary.ProgressPercent = float64(summary.StagesCompleted) / float64(summary.StagesTotal) * 100
	}
	return summary
}
