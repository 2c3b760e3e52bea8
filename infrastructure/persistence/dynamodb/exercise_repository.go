package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"exerciselinks/application/ports"
	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
)

const exerciseMetadataSK = "METADATA"

// exerciseItem is the stored form of an exercise owned by the catalog service
type exerciseItem struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	Name          string   `dynamodbav:"Name"`
	Description   string   `dynamodbav:"Description"`
	IsActive      bool     `dynamodbav:"IsActive"`
	ExerciseTypes []string `dynamodbav:"ExerciseTypes"`
}

// ExerciseRepository reads exercises from the catalog table.
// PK: EXERCISE#<id>, SK: METADATA
type ExerciseRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewExerciseRepository creates a new exercise repository
func NewExerciseRepository(client API, tableName string, logger *zap.Logger) *ExerciseRepository {
	return &ExerciseRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

var _ ports.ExerciseLookup = (*ExerciseRepository)(nil)

// GetByID returns nil, nil when the exercise does not exist
func (r *ExerciseRepository) GetByID(ctx context.Context, id valueobjects.ExerciseID) (*entities.Exercise, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "EXERCISE#" + id.String()},
			"SK": &types.AttributeValueMemberS{Value: exerciseMetadataSK},
		},
	})
	if err != nil {
		return nil, repositoryError("get exercise", err)
	}
	if out.Item == nil {
		r.logger.Debug("Exercise not found", zap.String("exercise_id", id.String()))
		return nil, nil
	}

	var item exerciseItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exercise: %w", err)
	}

	return &entities.Exercise{
		ID:          id,
		Name:        item.Name,
		Description: item.Description,
		IsActive:    item.IsActive,
		Types:       item.ExerciseTypes,
	}, nil
}
