package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/codigix/passion-clothing-sub006/internal/domain"
	"github.com/codigix/passion-clothing-sub006/pkg/cloudevents"
	"github.com/codigix/passion-clothing-sub006/pkg/kafka"
	"github.com/codigix/passion-clothing-sub006/pkg/outbox"
	outboxMongo "github.com/codigix/passion-clothing-sub006/pkg/outbox/mongodb"
)

// UnitRepository implements domain.UnitRepository using MongoDB. Aggregate
// writes and their domain events are committed in one transaction through the
// outbox collection, and updates compare-and-swap on the aggregate version.
type UnitRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewUnitRepository creates a new MongoDB unit repository
func NewUnitRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *UnitRepository {
	collection := db.Collection("production_units")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "unitId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "barcode", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"barcode": bson.M{"$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "orderId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "currentStage", Value: 1},
			},
		},
	}
	collection.Indexes().CreateMany(ctx, indexes)
	_ = outboxRepo.EnsureIndexes(ctx)

	return &UnitRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

// Save persists a new unit and its pending domain events atomically
func (r *UnitRepository) Save(ctx context.Context, unit *domain.UnitOfWork) error {
	unit.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		result, err := r.collection.InsertOne(sessCtx, unit)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrDuplicateBarcode
			}
			return nil, fmt.Errorf("failed to insert unit: %w", err)
		}
		if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
			unit.ID = oid
		}

		if err := r.saveOutboxEvents(sessCtx, unit); err != nil {
			return nil, err
		}
		unit.ClearDomainEvents()
		return nil, nil
	})
	return err
}

// Update persists a mutated unit with a version compare-and-swap. A lost race
// surfaces as domain.ErrConcurrentModification and writes nothing.
func (r *UnitRepository) Update(ctx context.Context, unit *domain.UnitOfWork) error {
	unit.UpdatedAt = time.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		expectedVersion := unit.Version
		unit.Version = expectedVersion + 1

		filter := bson.M{"unitId": unit.UnitID, "version": expectedVersion}
		result, err := r.collection.ReplaceOne(sessCtx, filter, unit)
		if err != nil {
			unit.Version = expectedVersion
			return nil, fmt.Errorf("failed to replace unit: %w", err)
		}
		if result.MatchedCount == 0 {
			unit.Version = expectedVersion
			return nil, domain.ErrConcurrentModification
		}

		if err := r.saveOutboxEvents(sessCtx, unit); err != nil {
			unit.Version = expectedVersion
			return nil, err
		}
		unit.ClearDomainEvents()
		return nil, nil
	})
	return err
}

// saveOutboxEvents converts pending domain events to CloudEvents and stores
// them in the outbox inside the caller's transaction
func (r *UnitRepository) saveOutboxEvents(sessCtx mongo.SessionContext, unit *domain.UnitOfWork) error {
	domainEvents := unit.GetDomainEvents()
	if len(domainEvents) == 0 {
		return nil
	}

	subject := "unit/" + unit.UnitID
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))
	for _, event := range domainEvents {
		eventType, ok := cloudEventType(event)
		if !ok {
			continue
		}

		cloudEvent := r.eventFactory.CreateEvent(sessCtx, eventType, subject, event).
			WithUnit(unit.UnitID, unit.OrderID, unit.ProductType)

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
			unit.UnitID,
			"UnitOfWork",
			eventTopic(eventType),
			cloudEvent,
		)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if len(outboxEvents) == 0 {
		return nil
	}
	if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

// cloudEventType maps a domain event to its wire event type
func cloudEventType(event domain.DomainEvent) (string, bool) {
	switch event.(type) {
	case *domain.UnitCreatedEvent:
		return cloudevents.UnitCreated, true
	case *domain.StageStartedEvent:
		return cloudevents.StageStarted, true
	case *domain.StageCompletedEvent:
		return cloudevents.StageCompleted, true
	case *domain.UnitTransitionedEvent:
		return cloudevents.UnitTransitioned, true
	case *domain.UnitLateEvent:
		return cloudevents.UnitLate, true
	case *domain.UnitFrozenEvent:
		return cloudevents.UnitFrozen, true
	case *domain.ReworkRecordedEvent:
		return cloudevents.ReworkRecorded, true
	case *domain.MaterialOverConsumedEvent:
		return cloudevents.MaterialOverConsumed, true
	case *domain.UnitTerminalEvent:
		return cloudevents.UnitTerminal, true
	default:
		return "", false
	}
}

// eventTopic routes a wire event type to its Kafka topic
func eventTopic(eventType string) string {
	switch eventType {
	case cloudevents.ReworkRecorded:
		return kafka.Topics.ReworkEvents
	case cloudevents.MaterialOverConsumed:
		return kafka.Topics.MaterialEvents
	case cloudevents.UnitLate:
		return kafka.Topics.LateAlerts
	default:
		return kafka.Topics.LifecycleEvents
	}
}

// FindByUnitID retrieves a unit by its UUID
func (r *UnitRepository) FindByUnitID(ctx context.Context, unitID string) (*domain.UnitOfWork, error) {
	return r.findOne(ctx, bson.M{"unitId": unitID})
}

// FindByBarcode retrieves a unit by its scan barcode
func (r *UnitRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.UnitOfWork, error) {
	return r.findOne(ctx, bson.M{"barcode": barcode})
}

func (r *UnitRepository) findOne(ctx context.Context, filter bson.M) (*domain.UnitOfWork, error) {
	var unit domain.UnitOfWork
	err := r.collection.FindOne(ctx, filter).Decode(&unit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUnitNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindByOrderID retrieves all units belonging to an order
func (r *UnitRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.UnitOfWork, error) {
	return r.findMany(ctx, bson.M{"orderId": orderID}, 0)
}

// FindByStatus retrieves all units with a specific lifecycle status
func (r *UnitRepository) FindByStatus(ctx context.Context, status domain.UnitStatus, limit int) ([]*domain.UnitOfWork, error) {
	return r.findMany(ctx, bson.M{"status": status}, int64(limit))
}

func (r *UnitRepository) findMany(ctx context.Context, filter bson.M, limit int64) ([]*domain.UnitOfWork, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var units []*domain.UnitOfWork
	if err := cursor.All(ctx, &units); err != nil {
		return nil, err
	}
	return units, nil
}
