// Package dynamodb implements the persistence and locking ports on DynamoDB:
// the event store (one item per event, conditional appends), the quote-id
// index, the aggregate lock table, and the read-model table.
package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
	"coverstack-backend/internal/repository"
)

// EventStore persists event streams in a single table. Each event is one
// item keyed PK=TENANT#<t>#AGG#<id>, SK=EVT#<version zero-padded>; the
// zero-padding makes lexical SK order equal stream order. Appends run in one
// TransactWriteItems with attribute_not_exists conditions, so a concurrent
// writer that claimed the same version slot fails the whole batch and
// nothing is persisted.
type EventStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

func NewEventStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *EventStore {
	return &EventStore{client: client, tableName: tableName, logger: logger}
}

var _ repository.EventStore = (*EventStore)(nil)

func (s *EventStore) SaveEvents(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, events []shared.DomainEvent, expectedVersion shared.Version) error {
	if len(events) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(events)+2)
	for i, ev := range events {
		version := expectedVersion.Int() + i + 1
		payload, err := quote.MarshalEvent(ev)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item: map[string]types.AttributeValue{
					"PK":          &types.AttributeValueMemberS{Value: streamPK(tenantID, aggregateID)},
					"SK":          &types.AttributeValueMemberS{Value: eventSK(version)},
					"EventID":     &types.AttributeValueMemberS{Value: ev.EventID()},
					"EventType":   &types.AttributeValueMemberS{Value: ev.EventType()},
					"Payload":     &types.AttributeValueMemberS{Value: string(payload)},
					"OccurredAt":  &types.AttributeValueMemberS{Value: ev.Timestamp().Format(rfc3339Micro)},
					"PerformedBy": &types.AttributeValueMemberS{Value: ev.PerformedBy().String()},
				},
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			},
		})

		// Creation events also claim the quote-id index entry.
		switch e := ev.(type) {
		case *quote.NewBusinessQuoteCreatedEvent:
			items = append(items, s.indexPut(tenantID, e.QuoteID, aggregateID))
		case *quote.TransactionQuoteCreatedEvent:
			items = append(items, s.indexPut(tenantID, e.QuoteID, aggregateID))
		}
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if isConditionalFailure(err) {
			actual, countErr := s.streamVersion(ctx, tenantID, aggregateID)
			if countErr != nil {
				actual = expectedVersion
			}
			s.logger.Debug("conditional append rejected",
				zap.String("aggregateId", aggregateID.String()),
				zap.Int("expectedVersion", expectedVersion.Int()),
				zap.Int("actualVersion", actual.Int()))
			return &repository.AggregateVersionError{
				AggregateID:     aggregateID,
				ExpectedVersion: expectedVersion,
				ActualVersion:   actual,
			}
		}
		return errors.Internal(errors.CodeInternalError.String(), "appending events to stream").
			WithOperation("SaveEvents").
			WithData("aggregateId", aggregateID.String()).
			WithCause(err).
			Build()
	}
	return nil
}

func (s *EventStore) GetEvents(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID) ([]shared.DomainEvent, error) {
	var events []shared.DomainEvent
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: streamPK(tenantID, aggregateID)},
				":prefix": &types.AttributeValueMemberS{Value: "EVT#"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, errors.Internal(errors.CodeInternalError.String(), "querying event stream").
				WithOperation("GetEvents").
				WithData("aggregateId", aggregateID.String()).
				WithCause(err).
				Build()
		}
		for _, item := range out.Items {
			ev, err := s.unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Sequence() < events[j].Sequence() })
	if events == nil {
		events = []shared.DomainEvent{}
	}
	return events, nil
}

func (s *EventStore) ResolveAggregateID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (shared.AggregateID, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: indexPK(tenantID, quoteID)},
			"SK": &types.AttributeValueMemberS{Value: "INDEX"},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", errors.Internal(errors.CodeInternalError.String(), "reading quote index").
			WithOperation("ResolveAggregateID").
			WithData("quoteId", quoteID.String()).
			WithCause(err).
			Build()
	}
	if out.Item == nil {
		return "", repository.NewQuoteIndexNotFoundError(quoteID)
	}
	attr, ok := out.Item["AggregateID"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.Internal(errors.CodeInternalError.String(), "quote index item missing aggregate id").
			WithData("quoteId", quoteID.String()).
			Build()
	}
	return shared.AggregateID(attr.Value), nil
}

// streamVersion counts the persisted events so a conflict can report where
// the stream actually is.
func (s *EventStore) streamVersion(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID) (shared.Version, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: streamPK(tenantID, aggregateID)},
			":prefix": &types.AttributeValueMemberS{Value: "EVT#"},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return shared.Version(out.Count), nil
}

func (s *EventStore) indexPut(tenantID shared.TenantID, quoteID shared.QuoteID, aggregateID shared.AggregateID) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.tableName),
			Item: map[string]types.AttributeValue{
				"PK":          &types.AttributeValueMemberS{Value: indexPK(tenantID, quoteID)},
				"SK":          &types.AttributeValueMemberS{Value: "INDEX"},
				"AggregateID": &types.AttributeValueMemberS{Value: aggregateID.String()},
			},
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}
}

func (s *EventStore) unmarshalItem(item map[string]types.AttributeValue) (shared.DomainEvent, error) {
	eventType, ok := item["EventType"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.Internal(errors.CodeInternalError.String(), "event item missing EventType").Build()
	}
	payload, ok := item["Payload"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.Internal(errors.CodeInternalError.String(), "event item missing Payload").Build()
	}
	return quote.UnmarshalEvent(eventType.Value, []byte(payload.Value))
}

const rfc3339Micro = "2006-01-02T15:04:05.000000Z07:00"

func streamPK(tenantID shared.TenantID, aggregateID shared.AggregateID) string {
	return fmt.Sprintf("TENANT#%s#AGG#%s", tenantID, aggregateID)
}

func eventSK(version int) string {
	return fmt.Sprintf("EVT#%010d", version)
}

func indexPK(tenantID shared.TenantID, quoteID shared.QuoteID) string {
	return fmt.Sprintf("TENANT#%s#QUOTE#%s", tenantID, quoteID)
}

func isConditionalFailure(err error) bool {
	var txnCanceled *types.TransactionCanceledException
	if stderrors.As(err, &txnCanceled) {
		for _, reason := range txnCanceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
		return false
	}
	var condFailed *types.ConditionalCheckFailedException
	return stderrors.As(err, &condFailed)
}
