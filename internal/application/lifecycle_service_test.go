package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codigix/passion-clothing-sub006/internal/config"
	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

const testCatalogYAML = `
plans:
  - productType: shirt
    stages:
      - name: cutting
        plannedDuration: 4h
        allocations:
          - item: fabric
            quantity: 10
            unit: m
      - name: sewing
        plannedDuration: 8h
        checkpoints:
          - seam_strength
      - name: packing
        plannedDuration: 1h
`

// fakeUnitRepository is an in-memory UnitRepository with version checks
type fakeUnitRepository struct {
	units map[string]*domain.UnitOfWork

	// forceConflict makes the next Update fail the version check
	forceConflict bool
}

func newFakeUnitRepository() *fakeUnitRepository {
	return &fakeUnitRepository{units: make(map[string]*domain.UnitOfWork)}
}

func (r *fakeUnitRepository) Save(_ context.Context, unit *domain.UnitOfWork) error {
	for _, existing := range r.units {
		if unit.Barcode != "" && existing.Barcode == unit.Barcode {
			return domain.ErrDuplicateBarcode
		}
	}
	unit.ClearDomainEvents()
	r.units[unit.UnitID] = unit
	return nil
}

func (r *fakeUnitRepository) Update(_ context.Context, unit *domain.UnitOfWork) error {
	if r.forceConflict {
		r.forceConflict = false
		return domain.ErrConcurrentModification
	}
	if _, ok := r.units[unit.UnitID]; !ok {
		return domain.ErrUnitNotFound
	}
	unit.Version++
	unit.ClearDomainEvents()
	r.units[unit.UnitID] = unit
	return nil
}

func (r *fakeUnitRepository) FindByUnitID(_ context.Context, unitID string) (*domain.UnitOfWork, error) {
	if unit, ok := r.units[unitID]; ok {
		return unit, nil
	}
	return nil, domain.ErrUnitNotFound
}

func (r *fakeUnitRepository) FindByBarcode(_ context.Context, barcode string) (*domain.UnitOfWork, error) {
	for _, unit := range r.units {
		if unit.Barcode == barcode {
			return unit, nil
		}
	}
	return nil, domain.ErrUnitNotFound
}

func (r *fakeUnitRepository) FindByOrderID(_ context.Context, orderID string) ([]*domain.UnitOfWork, error) {
	var result []*domain.UnitOfWork
	for _, unit := range r.units {
		if unit.OrderID == orderID {
			result = append(result, unit)
		}
	}
	return result, nil
}

func (r *fakeUnitRepository) FindByStatus(_ context.Context, status domain.UnitStatus, limit int) ([]*domain.UnitOfWork, error) {
	var result []*domain.UnitOfWork
	for _, unit := range r.units {
		if unit.Status == status {
			result = append(result, unit)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

type fakeAnalyticsRepository struct {
	counts []domain.StageCount
}

func (r *fakeAnalyticsRepository) CountByCurrentStage(_ context.Context) ([]domain.StageCount, error) {
	return r.counts, nil
}

func (r *fakeAnalyticsRepository) RecentTransitions(_ context.Context, limit int) ([]domain.RecentTransition, error) {
	return nil, nil
}

func (r *fakeAnalyticsRepository) OverdueUnits(_ context.Context, _ time.Time) ([]domain.OverdueUnit, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*LifecycleService, *fakeUnitRepository) {
	t.Helper()
	catalog, err := config.ParsePlanCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	repo := newFakeUnitRepository()
	return NewLifecycleService(repo, &fakeAnalyticsRepository{}, catalog), repo
}

func createTestUnit(t *testing.T, service *LifecycleService) *domain.UnitOfWork {
	t.Helper()
	unit, err := service.CreateUnit(context.Background(), CreateUnitCommand{
		ProductType: "shirt",
		Barcode:     "BC-1001",
		OrderID:     "order-7",
		Quantity:    20,
		Operator:    "op-1",
	})
	require.NoError(t, err)
	return unit
}

func TestCreateUnit(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	t.Run("creates from the product type's plan", func(t *testing.T) {
		unit := createTestUnit(t, service)

		assert.Equal(t, "shirt", unit.ProductType)
		assert.Equal(t, "cutting", unit.CurrentStage)
		assert.Len(t, repo.units, 1)
	})

	t.Run("rejects unknown product types", func(t *testing.T) {
		_, err := service.CreateUnit(ctx, CreateUnitCommand{ProductType: "jacket", Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrUnknownProductType)
	})

	t.Run("rejects duplicate barcodes", func(t *testing.T) {
		_, err := service.CreateUnit(ctx, CreateUnitCommand{
			ProductType: "shirt",
			Barcode:     "BC-1001",
			Quantity:    5,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateBarcode)
	})
}

func TestGetUnitFallsBackToBarcode(t *testing.T) {
	service, _ := newTestService(t)
	created := createTestUnit(t, service)

	byID, err := service.GetUnit(context.Background(), created.UnitID)
	require.NoError(t, err)
	assert.Equal(t, created.UnitID, byID.UnitID)

	byBarcode, err := service.GetUnit(context.Background(), "BC-1001")
	require.NoError(t, err)
	assert.Equal(t, created.UnitID, byBarcode.UnitID)

	_, err = service.GetUnit(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
}

func TestRecordTransitionService(t *testing.T) {
	ctx := context.Background()

	t.Run("advances and persists", func(t *testing.T) {
		service, repo := newTestService(t)
		created := createTestUnit(t, service)

		unit, err := service.RecordTransition(ctx, RecordTransitionCommand{
			UnitID:   created.UnitID,
			NewStage: "sewing",
			Operator: "op-2",
		})
		require.NoError(t, err)
		assert.Equal(t, "sewing", unit.CurrentStage)
		assert.Equal(t, "sewing", repo.units[created.UnitID].CurrentStage)
	})

	t.Run("rejects invalid status strings", func(t *testing.T) {
		service, _ := newTestService(t)
		created := createTestUnit(t, service)

		_, err := service.RecordTransition(ctx, RecordTransitionCommand{
			UnitID:    created.UnitID,
			NewStage:  "sewing",
			NewStatus: "misplaced",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("surfaces concurrent modification to the caller", func(t *testing.T) {
		service, repo := newTestService(t)
		created := createTestUnit(t, service)
		repo.forceConflict = true

		_, err := service.RecordTransition(ctx, RecordTransitionCommand{
			UnitID:   created.UnitID,
			NewStage: "sewing",
			Operator: "op-2",
		})
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	})
}

func TestSetCheckpointReturnsGate(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	created := createTestUnit(t, service)

	_, err := service.RecordTransition(ctx, RecordTransitionCommand{
		UnitID:   created.UnitID,
		NewStage: "sewing",
		Operator: "op-1",
	})
	require.NoError(t, err)

	gate, err := service.SetCheckpoint(ctx, SetCheckpointCommand{
		UnitID:     created.UnitID,
		Stage:      "sewing",
		Checkpoint: "seam_strength",
		Passed:     true,
		CheckedBy:  "qc-1",
	})
	require.NoError(t, err)
	assert.True(t, gate.Passed)

	evaluated, err := service.EvaluateGate(ctx, created.UnitID, "sewing")
	require.NoError(t, err)
	assert.True(t, evaluated.Passed)
}

func TestRecordConsumptionWarns(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	created := createTestUnit(t, service)

	warning, err := service.RecordConsumption(ctx, RecordConsumptionCommand{
		UnitID:     created.UnitID,
		Stage:      "cutting",
		Item:       "fabric",
		Quantity:   14,
		Unit:       "m",
		RecordedBy: "op-1",
	})
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, 10.0, warning.Allocated)
	assert.Equal(t, 14.0, warning.Consumed)
}

func TestSummarize(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	created := createTestUnit(t, service)

	_, err := service.RecordTransition(ctx, RecordTransitionCommand{
		UnitID:   created.UnitID,
		NewStage: "sewing",
		Operator: "op-1",
	})
	require.NoError(t, err)

	_, err = service.RecordRework(ctx, RecordReworkCommand{
		UnitID:         created.UnitID,
		Stage:          "sewing",
		Reason:         "broken needle marks",
		FailedQuantity: 2,
		Cost:           12,
		RecordedBy:     "op-1",
	})
	require.NoError(t, err)

	summary, err := service.Summarize(ctx, "BC-1001")
	require.NoError(t, err)

	assert.Equal(t, created.UnitID, summary.UnitID)
	assert.Equal(t, 1, summary.StagesCompleted)
	assert.Equal(t, 3, summary.StagesTotal)
	assert.InDelta(t, 33.33, summary.ProgressPercent, 0.1)
	assert.Equal(t, 1, summary.TotalReworkCount)
	assert.Equal(t, 12.0, summary.TotalReworkCost)
	assert.Equal(t, 12.0, summary.AccumulatedCost)
	require.Len(t, summary.Stages, 3)
	assert.Equal(t, "completed", summary.Stages[0].Status)
	assert.Equal(t, "in_progress", summary.Stages[1].Status)
}
