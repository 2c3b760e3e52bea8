package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"exerciselinks/application/ports"
)

// errLockHeld signals a single failed attempt; callers see ports.ErrLockNotAcquired
var errLockHeld = errors.New("lock already held")

// DistributedLock provides distributed locking using DynamoDB conditional writes
type DistributedLock struct {
	client    API
	tableName string
	ownerID   string
	logger    *zap.Logger
}

// LockRecord represents a lock record in DynamoDB
type LockRecord struct {
	PK         string `dynamodbav:"PK"`         // LOCK#<resource_name>
	SK         string `dynamodbav:"SK"`         // LOCK
	LockID     string `dynamodbav:"LockID"`     // Unique lock identifier
	Owner      string `dynamodbav:"Owner"`      // Lock owner identifier
	AcquiredAt int64  `dynamodbav:"AcquiredAt"` // Unix millis
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`  // Unix millis
	TTL        int64  `dynamodbav:"TTL"`        // Unix seconds for DynamoDB TTL
}

// NewDistributedLock creates a new distributed lock instance.
// Every lock taken through it is owned by a per-process id.
func NewDistributedLock(client API, tableName string, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		ownerID:   uuid.NewString(),
		logger:    logger,
	}
}

var _ ports.Locker = (*DistributedLock)(nil)

// Acquire retries until the lock is taken, the timeout elapses or ctx is done
func (dl *DistributedLock) Acquire(ctx context.Context, resource string, lease, timeout time.Duration) (ports.Lock, error) {
	deadline := time.Now().Add(timeout)
	retryInterval := 100 * time.Millisecond

	for {
		lock, err := dl.tryAcquire(ctx, resource, lease)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, errLockHeld) {
			return nil, err
		}

		wait := retryInterval
		if remaining := time.Until(deadline); remaining <= 0 {
			return nil, fmt.Errorf("%w: %s", ports.ErrLockNotAcquired, resource)
		} else if remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

// tryAcquire makes one conditional write. An expired lease can be taken over.
func (dl *DistributedLock) tryAcquire(ctx context.Context, resource string, lease time.Duration) (*Lock, error) {
	now := time.Now()
	expiresAt := now.Add(lease)
	record := LockRecord{
		PK:         "LOCK#" + resource,
		SK:         "LOCK",
		LockID:     uuid.NewString(),
		Owner:      dl.ownerID,
		AcquiredAt: now.UnixMilli(),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Add(time.Hour).Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			dl.logger.Debug("Failed to acquire lock - already held",
				zap.String("resource", resource),
				zap.String("owner", dl.ownerID),
			)
			return nil, errLockHeld
		}
		return nil, repositoryError("acquire lock", err)
	}

	dl.logger.Debug("Lock acquired successfully",
		zap.String("resource", resource),
		zap.String("lockID", record.LockID),
		zap.Duration("lease", lease),
	)

	return &Lock{
		distributedLock: dl,
		resourceName:    resource,
		lockID:          record.LockID,
		expiresAt:       expiresAt,
	}, nil
}

// releaseLock deletes the lock record if this owner still holds it
func (dl *DistributedLock) releaseLock(ctx context.Context, resource, lockID string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LOCK#" + resource},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: dl.ownerID},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// Lease expired and someone else took over
			dl.logger.Warn("Lock already released or owned by someone else",
				zap.String("resource", resource),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return repositoryError("release lock", err)
	}

	dl.logger.Debug("Lock released successfully",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
	)
	return nil
}

// Lock represents an acquired distributed lock
type Lock struct {
	distributedLock *DistributedLock
	resourceName    string
	lockID          string
	expiresAt       time.Time
}

// Release releases the lock
func (l *Lock) Release(ctx context.Context) error {
	return l.distributedLock.releaseLock(ctx, l.resourceName, l.lockID)
}

// IsExpired checks if the lease has run out
func (l *Lock) IsExpired() bool {
	return time.Now().After(l.expiresAt)
}
