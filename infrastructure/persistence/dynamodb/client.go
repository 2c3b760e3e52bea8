package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"

	apperrors "exerciselinks/pkg/errors"
)

// API is the subset of the DynamoDB client used by this package.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// isConditionalCheckFailed reports whether a conditional write was rejected
func isConditionalCheckFailed(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

// repositoryError converts DynamoDB API failures into application errors
func repositoryError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return apperrors.NewDatabaseError(operation, err)
	}

	switch ae.ErrorCode() {
	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		return apperrors.NewUnavailableError("dynamodb").WithCause(err).WithCode(ae.ErrorCode())
	case "ResourceNotFoundException":
		return apperrors.NewInternalError("table not found: " + ae.ErrorMessage()).WithCause(err).WithCode(ae.ErrorCode())
	default:
		return apperrors.NewDatabaseError(operation, err).WithCode(ae.ErrorCode())
	}
}
