// Package analytics exports store rollups to the warehouse. Sync passes
// announce themselves on Pub/Sub and the analytics worker copies the affected
// days into BigQuery.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/marginly/marginly-backend/internal/ordersync"
	"github.com/marginly/marginly-backend/pkg/events"
)

const defaultPublishTimeout = 10 * time.Second

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// SyncPublisher publishes sync completion events.
type SyncPublisher struct {
	topic   topicPublisher
	timeout time.Duration
	now     func() time.Time
}

// NewSyncPublisher wraps a Pub/Sub topic publisher.
func NewSyncPublisher(p *gcppubsub.Publisher) (*SyncPublisher, error) {
	if p == nil {
		return nil, errors.New("sync topic publisher is required")
	}
	return newSyncPublisher(&gcpPublisher{Publisher: p}), nil
}

func newSyncPublisher(topic topicPublisher) *SyncPublisher {
	return &SyncPublisher{topic: topic, timeout: defaultPublishTimeout, now: time.Now}
}

// PublishSyncCompleted blocks until Pub/Sub acknowledges the message.
func (p *SyncPublisher) PublishSyncCompleted(ctx context.Context, event ordersync.Completed) error {
	env, err := events.NewEnvelope(events.TypeSyncCompleted, events.SyncCompleted{
		StoreID:        event.StoreID,
		OwnerID:        event.OwnerID,
		Trigger:        event.Trigger.String(),
		Since:          event.Since.UTC(),
		SyncedAt:       event.SyncedAt.UTC(),
		ProcessedCount: event.ProcessedCount,
		TotalOrders:    event.TotalOrders,
	}, p.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.topic.Publish(publishCtx, &gcppubsub.Message{
		Data:       data,
		Attributes: env.Attributes(event.StoreID),
	})
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", events.TypeSyncCompleted, err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}

var _ ordersync.Publisher = (*SyncPublisher)(nil)
