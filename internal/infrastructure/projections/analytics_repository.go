package projections

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

// transitionWindow bounds the RecentTransitions feed to a trailing day
const transitionWindow = 24 * time.Hour

// AnalyticsRepository serves read models straight off the production_units
// collection through aggregation pipelines
type AnalyticsRepository struct {
	collection *mongo.Collection
}

// NewAnalyticsRepository creates a new MongoDB-backed analytics repository
func NewAnalyticsRepository(db *mongo.Database) *AnalyticsRepository {
	return &AnalyticsRepository{collection: db.Collection("production_units")}
}

var openStatuses = bson.A{domain.UnitStatusActive, domain.UnitStatusOnHold}

func stageCountsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$in": openStatuses}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$currentStage",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

// CountByCurrentStage groups non-terminal units by their current stage
func (r *AnalyticsRepository) CountByCurrentStage(ctx context.Context) ([]domain.StageCount, error) {
	cursor, err := r.collection.Aggregate(ctx, stageCountsPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stage counts: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []domain.StageCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode stage counts: %w", err)
	}
	return counts, nil
}

func recentTransitionsPipeline(since time.Time, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$history"}},
		{{Key: "$match", Value: bson.M{"history.timestamp": bson.M{"$gte": since}}}},
		{{Key: "$sort", Value: bson.D{{Key: "history.timestamp", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{
			"unitId":  1,
			"orderId": 1,
			"event":   "$history",
		}}},
	}
}

// RecentTransitions returns transitions recorded within the trailing 24-hour
// window across all units, newest first
func (r *AnalyticsRepository) RecentTransitions(ctx context.Context, limit int) ([]domain.RecentTransition, error) {
	since := time.Now().Add(-transitionWindow)

	cursor, err := r.collection.Aggregate(ctx, recentTransitionsPipeline(since, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recent transitions: %w", err)
	}
	defer cursor.Close(ctx)

	var transitions []domain.RecentTransition
	if err := cursor.All(ctx, &transitions); err != nil {
		return nil, fmt.Errorf("failed to decode recent transitions: %w", err)
	}
	return transitions, nil
}

func overduePipeline(asOf time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":            bson.M{"$in": openStatuses},
			"estimatedDelivery": bson.M{"$lt": asOf},
		}}},
		{{Key: "$project", Value: bson.M{
			"unitId":       1,
			"orderId":      1,
			"productType":  1,
			"currentStage": 1,
			"hoursOverdue": bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{asOf, "$estimatedDelivery"}},
				1000 * 60 * 60,
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "hoursOverdue", Value: -1}}}},
	}
}

// OverdueUnits returns non-terminal units whose estimated delivery has passed
// as of the given instant. Units without an estimated delivery never match.
func (r *AnalyticsRepository) OverdueUnits(ctx context.Context, asOf time.Time) ([]domain.OverdueUnit, error) {
	cursor, err := r.collection.Aggregate(ctx, overduePipeline(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate overdue units: %w", err)
	}
	defer cursor.Close(ctx)

	var units []domain.OverdueUnit
	if err := cursor.All(ctx, &units); err != nil {
		return nil, fmt.Errorf("failed to decode overdue units: %w", err)
	}
	return units, nil
}
