package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codigix/passion-clothing-sub006/internal/config"
	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

// LifecycleService coordinates production lifecycle operations. All aggregate
// mutations go through load-mutate-update; the repository enforces the version
// compare-and-swap and persists domain events atomically with the aggregate.
type LifecycleService struct {
	unitRepo  domain.UnitRepository
	analytics domain.AnalyticsRepository
	catalog   *config.PlanCatalog
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(unitRepo domain.UnitRepository, analytics domain.AnalyticsRepository, catalog *config.PlanCatalog) *LifecycleService {
	return &LifecycleService{
		unitRepo:  unitRepo,
		analytics: analytics,
		catalog:   catalog,
	}
}

// CreateUnit creates a unit of work from the product type's stage plan
func (s *LifecycleService) CreateUnit(ctx context.Context, cmd CreateUnitCommand) (*domain.UnitOfWork, error) {
	plan, ok := s.catalog.Plan(cmd.ProductType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProductType, cmd.ProductType)
	}

	unit, err := domain.NewUnitOfWork(plan, domain.NewUnitInput{
		Barcode:           cmd.Barcode,
		OrderID:           cmd.OrderID,
		Quantity:          cmd.Quantity,
		Operator:          cmd.Operator,
		Location:          cmd.Location,
		EstimatedDelivery: cmd.EstimatedDelivery,
	})
	if err != nil {
		return nil, err
	}

	if err := s.unitRepo.Save(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to save unit: %w", err)
	}
	return unit, nil
}

// GetUnit retrieves a unit by its UUID or, failing that, by barcode
func (s *LifecycleService) GetUnit(ctx context.Context, idOrBarcode string) (*domain.UnitOfWork, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, idOrBarcode)
	if err == nil {
		return unit, nil
	}
	if !errors.Is(err, domain.ErrUnitNotFound) {
		return nil, err
	}
	return s.unitRepo.FindByBarcode(ctx, idOrBarcode)
}

// GetUnitsForOrder retrieves all units belonging to an order
func (s *LifecycleService) GetUnitsForOrder(ctx context.Context, orderID string) ([]*domain.UnitOfWork, error) {
	return s.unitRepo.FindByOrderID(ctx, orderID)
}

// StartStage explicitly opens the next stage of a unit
func (s *LifecycleService) StartStage(ctx context.Context, cmd StartStageCommand) (*domain.UnitOfWork, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return nil, err
	}

	var window *domain.Window
	if cmd.PlannedStart != nil && cmd.PlannedEnd != nil {
		window = &domain.Window{Start: *cmd.PlannedStart, End: *cmd.PlannedEnd}
	}

	if err := unit.StartStage(cmd.Stage, window, cmd.Operator); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return unit, nil
}

// RecordTransition moves a unit out of its current stage
func (s *LifecycleService) RecordTransition(ctx context.Context, cmd RecordTransitionCommand) (*domain.UnitOfWork, error) {
	newStatus := domain.UnitStatus(cmd.NewStatus)
	if cmd.NewStatus == "" {
		newStatus = domain.UnitStatusActive
	}
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, cmd.NewStatus)
	}

	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return nil, err
	}

	tctx := domain.TransitionContext{
		Operator:     cmd.Operator,
		Location:     cmd.Location,
		Notes:        cmd.Notes,
		LateReason:   cmd.LateReason,
		CostIncurred: cmd.CostIncurred,
	}
	if cmd.Timestamp != nil {
		tctx.Timestamp = *cmd.Timestamp
	}
	if cmd.PlannedStart != nil && cmd.PlannedEnd != nil {
		tctx.PlannedWindow = &domain.Window{Start: *cmd.PlannedStart, End: *cmd.PlannedEnd}
	}

	if err := unit.RecordTransition(cmd.NewStage, newStatus, tctx); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return unit, nil
}

// FreezeForReview places a unit on hold for supervisor review
func (s *LifecycleService) FreezeForReview(ctx context.Context, cmd FreezeUnitCommand) (*domain.UnitOfWork, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return nil, err
	}

	if err := unit.FreezeForReview(cmd.Operator, cmd.Reason); err != nil {
		return nil, err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return unit, nil
}

// SetCheckpoint records a quality checkpoint outcome and returns the
// resulting gate evaluation for the stage
func (s *LifecycleService) SetCheckpoint(ctx context.Context, cmd SetCheckpointCommand) (domain.GateResult, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return domain.GateResult{}, err
	}

	if err := unit.SetCheckpointResult(cmd.Stage, cmd.Checkpoint, cmd.Passed, cmd.Remarks, cmd.CheckedBy); err != nil {
		return domain.GateResult{}, err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return domain.GateResult{}, fmt.Errorf("failed to update unit: %w", err)
	}
	return domain.EvaluateCheckpoints(unit.Stage(cmd.Stage)), nil
}

// EvaluateGate evaluates the quality gate of a unit's named stage without
// changing anything
func (s *LifecycleService) EvaluateGate(ctx context.Context, unitID, stage string) (domain.GateResult, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, unitID)
	if err != nil {
		return domain.GateResult{}, err
	}
	si := unit.Stage(stage)
	if si == nil {
		return domain.GateResult{}, domain.ErrStageNotFound
	}
	return domain.EvaluateCheckpoints(si), nil
}

// AllocateMaterial reserves material against a stage
func (s *LifecycleService) AllocateMaterial(ctx context.Context, cmd AllocateMaterialCommand) error {
	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return err
	}

	if err := unit.AllocateMaterial(cmd.Stage, cmd.Item, cmd.Quantity, cmd.Unit, cmd.AllocatedBy); err != nil {
		return err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	return nil
}

// RecordConsumption appends a material consumption entry. The returned warning
// is non-nil when the stage's consumption now exceeds its allocation; the
// write succeeds either way.
func (s *LifecycleService) RecordConsumption(ctx context.Context, cmd RecordConsumptionCommand) (*domain.OverConsumptionWarning, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return nil, err
	}

	warning, err := unit.RecordConsumption(cmd.Stage, cmd.Item, cmd.Quantity, cmd.Unit, cmd.RecordedBy)
	if err != nil {
		return nil, err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return warning, nil
}

// RecordRework logs a failed iteration against a stage
func (s *LifecycleService) RecordRework(ctx context.Context, cmd RecordReworkCommand) (*domain.ReworkAttempt, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, cmd.UnitID)
	if err != nil {
		return nil, err
	}

	attempt, err := unit.RecordRework(cmd.Stage, cmd.Reason, cmd.FailedQuantity, cmd.Cost, cmd.RecordedBy)
	if err != nil {
		return nil, err
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return attempt, nil
}

// GetHistory retrieves the full transition history for a unit
func (s *LifecycleService) GetHistory(ctx context.Context, unitID string) ([]domain.TransitionEvent, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return unit.History, nil
}

// GetMaterialSummary folds the material ledgers of every stage of a unit
func (s *LifecycleService) GetMaterialSummary(ctx context.Context, unitID string) ([]StageMaterialSummary, error) {
	unit, err := s.unitRepo.FindByUnitID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	summaries := make([]StageMaterialSummary, 0, len(unit.Stages))
	for i := range unit.Stages {
		si := &unit.Stages[i]
		summaries = append(summaries, StageMaterialSummary{
			Totals: domain.SummarizeMaterial(si),
			Items:  domain.SummarizeMaterialByItem(si),
		})
	}
	return summaries, nil
}

// Summarize builds the lifecycle summary read model for a unit
func (s *LifecycleService) Summarize(ctx context.Context, idOrBarcode string) (*LifecycleSummary, error) {
	unit, err := s.GetUnit(ctx, idOrBarcode)
	if err != nil {
		return nil, err
	}
	return BuildLifecycleSummary(unit), nil
}

// StageCounts groups active units by their current stage
func (s *LifecycleService) StageCounts(ctx context.Context) ([]domain.StageCount, error) {
	return s.analytics.CountByCurrentStage(ctx)
}

// RecentTransitions returns transitions from the trailing 24-hour window
func (s *LifecycleService) RecentTransitions(ctx context.Context, limit int) ([]domain.RecentTransition, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.analytics.RecentTransitions(ctx, limit)
}

// OverdueUnits returns non-terminal units whose estimated delivery has passed
func (s *LifecycleService) OverdueUnits(ctx context.Context) ([]domain.OverdueUnit, error) {
	return s.analytics.OverdueUnits(ctx, time.Now())
}
