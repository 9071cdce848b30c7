package domain

import (
	"context"
	"time"
)

// UnitRepository defines the interface for unit of work persistence.
// Implementations must persist the aggregate and its pending domain events
// atomically, and enforce the version compare-and-swap on updates.
type UnitRepository interface {
	// Save persists a new unit together with its pending domain events
	Save(ctx context.Context, unit *UnitOfWork) error

	// Update persists a mutated unit, failing with ErrConcurrentModification
	// when the stored version no longer matches
	Update(ctx context.Context, unit *UnitOfWork) error

	// FindByUnitID retrieves a unit by its UUID
	FindByUnitID(ctx context.Context, unitID string) (*UnitOfWork, error)

	// FindByBarcode retrieves a unit by its scan barcode
	FindByBarcode(ctx context.Context, barcode string) (*UnitOfWork, error)

	// FindByOrderID retrieves all units belonging to an order
	FindByOrderID(ctx context.Context, orderID string) ([]*UnitOfWork, error)

	// FindByStatus retrieves all units with a specific lifecycle status
	FindByStatus(ctx context.Context, status UnitStatus, limit int) ([]*UnitOfWork, error)
}

// StageCount is the number of units currently sitting in one stage
type StageCount struct {
	Stage string `bson:"_id" json:"stage"`
	Count int64  `bson:"count" json:"count"`
}

// RecentTransition is a flattened history entry for analytics queries
type RecentTransition struct {
	UnitID  string          `bson:"unitId" json:"unitId"`
	OrderID string          `bson:"orderId,omitempty" json:"orderId,omitempty"`
	Event   TransitionEvent `bson:"event" json:"event"`
}

// OverdueUnit is a non-terminal unit whose estimated delivery has passed
type OverdueUnit struct {
	UnitID       string  `bson:"unitId" json:"unitId"`
	OrderID      string  `bson:"orderId,omitempty" json:"orderId,omitempty"`
	ProductType  string  `bson:"productType" json:"productType"`
	CurrentStage string  `bson:"currentStage" json:"currentStage"`
	HoursOverdue float64 `bson:"hoursOverdue" json:"hoursOverdue"`
}

// AnalyticsRepository serves read models derived from the unit collection
type AnalyticsRepository interface {
	// CountByCurrentStage groups active units by their current stage
	CountByCurrentStage(ctx context.Context) ([]StageCount, error)

	// RecentTransitions returns transitions from the trailing 24-hour window
	// across all units, newest first
	RecentTransitions(ctx context.Context, limit int) ([]RecentTransition, error)

	// OverdueUnits returns non-terminal units whose estimated delivery has
	// passed as of the given instant
	OverdueUnits(ctx context.Context, asOf time.Time) ([]OverdueUnit, error)
}
