package projections

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

func TestOverduePipeline(t *testing.T) {
	asOf := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pipeline := overduePipeline(asOf)
	require.Len(t, pipeline, 3)

	match, ok := pipeline[0][0].Value.(bson.M)
	require.True(t, ok)

	// Only active and on-hold units can be overdue; delivered or scrapped
	// units drop out of the report even with a past estimated delivery.
	status, ok := match["status"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$in": openStatuses}, status)

	delivery, ok := match["estimatedDelivery"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$lt": asOf}, delivery)

	project, ok := pipeline[1][0].Value.(bson.M)
	require.True(t, ok)
	hours, ok := project["hoursOverdue"].(bson.M)
	require.True(t, ok)
	divide, ok := hours["$divide"].(bson.A)
	require.True(t, ok)
	subtract, ok := divide[0].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.A{asOf, "$estimatedDelivery"}, subtract["$subtract"])
	assert.Equal(t, 1000*60*60, divide[1])

	assert.Equal(t, "$sort", pipeline[2][0].Key)
}

func TestRecentTransitionsPipeline(t *testing.T) {
	since := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	pipeline := recentTransitionsPipeline(since, 50)
	require.Len(t, pipeline, 5)

	assert.Equal(t, "$unwind", pipeline[0][0].Key)

	match, ok := pipeline[1][0].Value.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$gte": since}, match["history.timestamp"])

	assert.Equal(t, "$sort", pipeline[2][0].Key)

	assert.Equal(t, "$limit", pipeline[3][0].Key)
	assert.Equal(t, 50, pipeline[3][0].Value)
}

func TestAnalyticsRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stage counts", func(mt *mtest.T) {
		repo := NewAnalyticsRepository(mt.DB)
		ns := mt.DB.Name() + ".production_units"
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "sewing"}, {Key: "count", Value: 7}},
			bson.D{{Key: "_id", Value: "cutting"}, {Key: "count", Value: 3}},
		))
		counts, err := repo.CountByCurrentStage(ctx)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, "sewing", counts[0].Stage)
		assert.Equal(t, int64(7), counts[0].Count)
	})

	mt.Run("overdue units decode", func(mt *mtest.T) {
		repo := NewAnalyticsRepository(mt.DB)
		ns := mt.DB.Name() + ".production_units"
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "unitId", Value: "UNIT-001"},
			{Key: "orderId", Value: "ORD-001"},
			{Key: "productType", Value: "shirt"},
			{Key: "currentStage", Value: "sewing"},
			{Key: "hoursOverdue", Value: 36.5},
		}))
		units, err := repo.OverdueUnits(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, "UNIT-001", units[0].UnitID)
		assert.Equal(t, "sewing", units[0].CurrentStage)
		assert.InDelta(t, 36.5, units[0].HoursOverdue, 0.01)
	})

	mt.Run("empty collection yields zero counts", func(mt *mtest.T) {
		repo := NewAnalyticsRepository(mt.DB)
		ns := mt.DB.Name() + ".production_units"
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		counts, err := repo.CountByCurrentStage(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		transitions, err := repo.RecentTransitions(ctx, 50)
		require.NoError(t, err)
		assert.Empty(t, transitions)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		overdue, err := repo.OverdueUnits(ctx, time.Now())
		require.NoError(t, err)
		assert.Empty(t, overdue)
	})
}

var _ domain.AnalyticsRepository = (*AnalyticsRepository)(nil)
