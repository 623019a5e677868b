// Package messaging publishes committed domain events to AWS EventBridge for
// downstream consumers: projections, notifications, and the document
// pipeline.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

// putEventsBatchLimit is EventBridge's maximum entries per PutEvents call.
const putEventsBatchLimit = 10

// EventBridgePublisher publishes event batches to a bus. Events are
// published after the save; consumers must tolerate redelivery.
type EventBridgePublisher struct {
	client   *eventbridge.Client
	eventBus string
	source   string
	logger   *zap.Logger
}

func NewEventBridgePublisher(client *eventbridge.Client, eventBus, source string, logger *zap.Logger) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = "coverstack-backend"
	}
	return &EventBridgePublisher{client: client, eventBus: eventBus, source: source, logger: logger}
}

var _ ports.EventPublisher = (*EventBridgePublisher)(nil)

func (p *EventBridgePublisher) Publish(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	for i := 0; i < len(events); i += putEventsBatchLimit {
		end := i + putEventsBatchLimit
		if end > len(events) {
			end = len(events)
		}
		if err := p.publishBatch(ctx, tenantID, events[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *EventBridgePublisher) publishBatch(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, ev := range events {
		entry, err := p.entryFor(tenantID, ev)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("putting events on bus %s: %w", p.eventBus, err)
	}
	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("event entry rejected by eventbridge",
					zap.Int("entry", i),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)))
			}
		}
		return fmt.Errorf("%d of %d events failed to publish", out.FailedEntryCount, len(entries))
	}
	return nil
}

// entryFor wraps the event payload in an envelope carrying tenancy and
// stream position so consumers can route and order without decoding the
// payload.
func (p *EventBridgePublisher) entryFor(tenantID shared.TenantID, ev shared.DomainEvent) (types.PutEventsRequestEntry, error) {
	detail := map[string]interface{}{
		"tenantId":    tenantID.String(),
		"aggregateId": ev.AggregateID().String(),
		"eventId":     ev.EventID(),
		"sequence":    ev.Sequence(),
		"occurredAt":  ev.Timestamp(),
		"payload":     ev,
	}
	body, err := json.Marshal(detail)
	if err != nil {
		return types.PutEventsRequestEntry{}, fmt.Errorf("marshaling %s event envelope: %w", ev.EventType(), err)
	}
	return types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBus),
		Source:       aws.String(p.source),
		DetailType:   aws.String(ev.EventType()),
		Detail:       aws.String(string(body)),
	}, nil
}
