package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

// LockServiceConfig tunes acquisition behavior.
type LockServiceConfig struct {
	// LeaseDuration bounds how long a crashed holder blocks the aggregate;
	// the TTL attribute lets DynamoDB reap abandoned locks.
	LeaseDuration time.Duration

	// AcquireTimeout bounds the polling wait for a held lock.
	AcquireTimeout time.Duration

	// PollInterval is the initial delay between acquisition attempts.
	PollInterval time.Duration
}

func DefaultLockServiceConfig() LockServiceConfig {
	return LockServiceConfig{
		LeaseDuration:  30 * time.Second,
		AcquireTimeout: 10 * time.Second,
		PollInterval:   100 * time.Millisecond,
	}
}

// LockService serializes commands per aggregate across processes using
// conditional writes on a lock item. Acquisition polls with growing delay
// until the holder releases, the lease lapses, or the bounded wait elapses.
type LockService struct {
	client    *dynamodb.Client
	tableName string
	config    LockServiceConfig
	logger    *zap.Logger
}

func NewLockService(client *dynamodb.Client, tableName string, config LockServiceConfig, logger *zap.Logger) *LockService {
	if config.LeaseDuration <= 0 {
		config.LeaseDuration = 30 * time.Second
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 10 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	return &LockService{client: client, tableName: tableName, config: config, logger: logger}
}

var _ ports.AggregateLockService = (*LockService)(nil)

func (s *LockService) CreateLockOrThrow(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, aggregateType string) (ports.ScopedLock, error) {
	resource := lockResource(tenantID, aggregateType, aggregateID)
	ownerToken := uuid.New().String()
	deadline := time.Now().Add(s.config.AcquireTimeout)
	interval := s.config.PollInterval

	for {
		acquired, err := s.tryAcquire(ctx, resource, ownerToken)
		if err != nil {
			return nil, ports.NewLockNotAcquiredError(resource, err)
		}
		if acquired {
			return &dynamoLock{service: s, resource: resource, ownerToken: ownerToken}, nil
		}
		if time.Now().After(deadline) {
			s.logger.Warn("lock acquisition timed out",
				zap.String("resource", resource),
				zap.Duration("waited", s.config.AcquireTimeout))
			return nil, ports.NewLockTimeoutError(resource, s.config.AcquireTimeout)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if interval < time.Second {
			interval = time.Duration(float64(interval) * 1.5)
		}
	}
}

// tryAcquire claims the lock item when it is absent or its lease lapsed.
func (s *LockService) tryAcquire(ctx context.Context, resource, ownerToken string) (bool, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.LeaseDuration)

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: "LOCK#" + resource},
			"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
			"OwnerToken": &types.AttributeValueMemberS{Value: ownerToken},
			"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
			"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if stderrors.As(err, &condFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LockService) release(ctx context.Context, resource, ownerToken string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LOCK#" + resource},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("OwnerToken = :token"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: ownerToken},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if stderrors.As(err, &condFailed) {
			// Lease lapsed and another owner took over; nothing to release.
			s.logger.Warn("lock no longer owned at release",
				zap.String("resource", resource))
			return nil
		}
		return err
	}
	return nil
}

type dynamoLock struct {
	service    *LockService
	resource   string
	ownerToken string
	released   bool
}

func (l *dynamoLock) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	l.released = true
	return l.service.release(ctx, l.resource, l.ownerToken)
}

func lockResource(tenantID shared.TenantID, aggregateType string, aggregateID shared.AggregateID) string {
	return fmt.Sprintf("%s#%s#%s", tenantID, aggregateType, aggregateID)
}
