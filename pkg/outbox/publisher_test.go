package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codigix/passion-clothing-sub006/pkg/cloudevents"
	"github.com/codigix/passion-clothing-sub006/pkg/kafka"
	"github.com/codigix/passion-clothing-sub006/pkg/logging"
)

// Both producer decorators must be usable behind the outbox loop.
var (
	_ Producer = (*kafka.InstrumentedProducer)(nil)
	_ Producer = (*kafka.CircuitBreakerProducer)(nil)
)

type fakeRepository struct {
	events    []*OutboxEvent
	published []string
	retried   []string
}

func (r *fakeRepository) Save(ctx context.Context, event *OutboxEvent) error { return nil }

func (r *fakeRepository) SaveAll(ctx context.Context, events []*OutboxEvent) error { return nil }

func (r *fakeRepository) DeletePublished(ctx context.Context, olderThan int64) error { return nil }

func (r *fakeRepository) GetByID(ctx context.Context, eventID string) (*OutboxEvent, error) {
	return nil, nil
}

func (r *fakeRepository) FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r *fakeRepository) FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepository) MarkPublished(ctx context.Context, eventID string) error {
	r.published = append(r.published, eventID)
	return nil
}

func (r *fakeRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	r.retried = append(r.retried, eventID)
	return nil
}

type fakeProducer struct {
	topics []string
	err    error
}

func (p *fakeProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.ProductionCloudEvent) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

func newOutboxTestEvent(t *testing.T, id, topic string) *OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(&cloudevents.ProductionCloudEvent{
		ID:   id,
		Type: "production.unit.stage.changed",
	})
	require.NoError(t, err)
	return &OutboxEvent{
		ID:        id,
		EventType: "production.unit.stage.changed",
		Topic:     topic,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

func TestPublisherProcessEvents(t *testing.T) {
	logger := logging.New(logging.DefaultConfig("outbox-test"))
	ctx := context.Background()

	t.Run("publishes and marks events", func(t *testing.T) {
		repo := &fakeRepository{events: []*OutboxEvent{
			newOutboxTestEvent(t, "evt-1", "production.lifecycle.events"),
			newOutboxTestEvent(t, "evt-2", "production.rework.events"),
		}}
		producer := &fakeProducer{}
		publisher := NewPublisher(repo, producer, logger, nil, nil)

		publisher.processEvents(ctx)

		assert.Equal(t, []string{"production.lifecycle.events", "production.rework.events"}, producer.topics)
		assert.Equal(t, []string{"evt-1", "evt-2"}, repo.published)
		assert.Empty(t, repo.retried)
		assert.Equal(t, 2, publisher.Stats()["published"])
	})

	t.Run("increments retry on publish failure", func(t *testing.T) {
		repo := &fakeRepository{events: []*OutboxEvent{
			newOutboxTestEvent(t, "evt-3", "production.lifecycle.events"),
		}}
		producer := &fakeProducer{err: fmt.Errorf("broker unavailable")}
		publisher := NewPublisher(repo, producer, logger, nil, nil)

		publisher.processEvents(ctx)

		assert.Empty(t, repo.published)
		assert.Equal(t, []string{"evt-3"}, repo.retried)
		assert.Equal(t, 1, publisher.Stats()["failed"])
	})
}

func TestPublisherLifecycle(t *testing.T) {
	logger := logging.New(logging.DefaultConfig("outbox-test"))

	repo := &fakeRepository{}
	publisher := NewPublisher(repo, &fakeProducer{}, logger, nil, &PublisherConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
	})

	require.NoError(t, publisher.Start(context.Background()))
	assert.True(t, publisher.IsRunning())
	assert.Error(t, publisher.Start(context.Background()))

	require.NoError(t, publisher.Stop())
	assert.False(t, publisher.IsRunning())
}
