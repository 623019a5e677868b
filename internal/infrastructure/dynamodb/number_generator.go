package dynamodb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// NumberGenerator allocates quote and policy numbers from atomic per-tenant
// counters. An UpdateItem ADD is atomic across concurrent callers, so two
// allocations never see the same value. Sequence gaps are acceptable; a
// counter bumped for a command that later fails stays bumped.
type NumberGenerator struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

func NewNumberGenerator(client *dynamodb.Client, tableName string, logger *zap.Logger) *NumberGenerator {
	return &NumberGenerator{client: client, tableName: tableName, logger: logger}
}

var _ ports.ReferenceNumberGenerator = (*NumberGenerator)(nil)

func (g *NumberGenerator) NextQuoteNumber(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID) (string, error) {
	return g.next(ctx, tenantID, productID, "QUOTE", "Q")
}

func (g *NumberGenerator) NextPolicyNumber(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID) (string, error) {
	return g.next(ctx, tenantID, productID, "POLICY", "P")
}

func (g *NumberGenerator) next(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID, kind, prefix string) (string, error) {
	out, err := g.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(g.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SEQ#%s#%s", tenantID, productID)},
			"SK": &types.AttributeValueMemberS{Value: kind},
		},
		UpdateExpression: aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{
			"#v": "Value",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return "", errors.Internal(errors.CodeInternalError.String(),
			"failed to allocate reference number").WithCause(err).Build()
	}

	attr, ok := out.Attributes["Value"].(*types.AttributeValueMemberN)
	if !ok {
		return "", errors.Internal(errors.CodeInternalError.String(),
			"sequence counter returned no numeric value").Build()
	}
	seq, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return "", errors.Internal(errors.CodeInternalError.String(),
			"sequence counter returned malformed value").WithCause(err).Build()
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}
