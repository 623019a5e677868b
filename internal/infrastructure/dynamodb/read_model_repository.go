package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/errors"
)

// AggregateIndexName is the GSI projecting quote views by owning aggregate.
const AggregateIndexName = "aggregate-index"

// ReadModelRepository stores quote views in the read-model table. Views are
// keyed by (tenant, quote id); the aggregate GSI serves per-aggregate
// listings.
type ReadModelRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

func NewReadModelRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *ReadModelRepository {
	return &ReadModelRepository{client: client, tableName: tableName, logger: logger}
}

var _ ports.QuoteReadModelRepository = (*ReadModelRepository)(nil)

type quoteViewItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	models.NewQuoteReadModel
}

func (r *ReadModelRepository) UpsertQuote(ctx context.Context, rm *models.NewQuoteReadModel) error {
	item, err := attributevalue.MarshalMap(quoteViewItem{
		PK:                viewPK(rm.TenantID, rm.QuoteID),
		SK:                "VIEW",
		GSI1PK:            aggregateViewPK(rm.TenantID, rm.AggregateID),
		GSI1SK:            rm.CreatedAt.UTC().Format(rfc3339Micro) + "#" + rm.QuoteID,
		NewQuoteReadModel: *rm,
	})
	if err != nil {
		return errors.Internal(errors.CodeInternalError.String(), "marshaling quote view").
			WithCause(err).
			Build()
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		return errors.Internal(errors.CodeInternalError.String(), "writing quote view").
			WithOperation("UpsertQuote").
			WithData("quoteId", rm.QuoteID).
			WithCause(err).
			Build()
	}
	return nil
}

func (r *ReadModelRepository) GetQuote(ctx context.Context, tenantID, quoteID string) (*models.NewQuoteReadModel, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: viewPK(tenantID, quoteID)},
			"SK": &types.AttributeValueMemberS{Value: "VIEW"},
		},
	})
	if err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(), "reading quote view").
			WithOperation("GetQuote").
			WithData("quoteId", quoteID).
			WithCause(err).
			Build()
	}
	if out.Item == nil {
		return nil, errors.NotFound(errors.CodeQuoteNotFound.String(), "quote view not found").
			WithData("quoteId", quoteID).
			Build()
	}
	var item quoteViewItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(), "unmarshaling quote view").
			WithCause(err).
			Build()
	}
	rm := item.NewQuoteReadModel
	return &rm, nil
}

func (r *ReadModelRepository) ListQuotesByAggregate(ctx context.Context, tenantID, aggregateID string) ([]*models.NewQuoteReadModel, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(aggregateViewPK(tenantID, aggregateID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(), "building aggregate view query").
			WithCause(err).
			Build()
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(AggregateIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(), "querying aggregate views").
			WithOperation("ListQuotesByAggregate").
			WithData("aggregateId", aggregateID).
			WithCause(err).
			Build()
	}

	views := make([]*models.NewQuoteReadModel, 0, len(out.Items))
	for _, raw := range out.Items {
		var item quoteViewItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, errors.Internal(errors.CodeInternalError.String(), "unmarshaling quote view").
				WithCause(err).
				Build()
		}
		rm := item.NewQuoteReadModel
		views = append(views, &rm)
	}
	return views, nil
}

func viewPK(tenantID, quoteID string) string {
	return fmt.Sprintf("TENANT#%s#QUOTEVIEW#%s", tenantID, quoteID)
}

func aggregateViewPK(tenantID, aggregateID string) string {
	return fmt.Sprintf("TENANT#%s#AGGVIEW#%s", tenantID, aggregateID)
}
