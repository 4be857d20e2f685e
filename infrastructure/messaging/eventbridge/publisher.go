package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"threadboard/application/ports"
	"threadboard/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// EventBridge accepts at most 10 entries per PutEvents call
const maxBatchSize = 10

// Publisher delivers domain events to an EventBridge bus. Consumers fan out
// from there (activity feeds, search indexing); delivery is best-effort and
// never fails the originating request.
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends the events in batches
func (p *Publisher) Publish(ctx context.Context, evts []events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	for start := 0; start < len(evts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(evts) {
			end = len(evts)
		}
		if err := p.publishBatch(ctx, evts[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, batch []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	entryTypes := make([]string, 0, len(batch))
	for _, evt := range batch {
		detail, err := json.Marshal(evt)
		if err != nil {
			p.logger.Error("failed to marshal event",
				zap.String("eventType", evt.GetEventType()),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(events.SourceBackend),
			DetailType:   aws.String(evt.GetEventType()),
			Detail:       aws.String(string(detail)),
		})
		entryTypes = append(entryTypes, evt.GetEventType())
	}
	if len(entries) == 0 {
		return nil
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}

	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil && i < len(entryTypes) {
				p.logger.Warn("event entry rejected",
					zap.String("eventType", entryTypes[i]),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
	}
	return nil
}

// NopPublisher drops all events; used when eventing is disabled
type NopPublisher struct{}

// Publish discards the events
func (NopPublisher) Publish(ctx context.Context, evts []events.DomainEvent) error {
	return nil
}
