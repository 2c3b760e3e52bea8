package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"exerciselinks/application/ports"
	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/domain/services"
)

const (
	entityTypeLink = "LINK"
	linkSKPrefix   = "LINK#"

	// DefaultLinkIndex is the GSI keyed by link id
	DefaultLinkIndex = "GSI1"
)

// linkItem is the stored form of a link.
// PK: EXERCISE#<sourceId>, SK: LINK#<linkId>, GSI1PK: LINK#<linkId>
type linkItem struct {
	PK               string `dynamodbav:"PK"`
	SK               string `dynamodbav:"SK"`
	GSI1PK           string `dynamodbav:"GSI1PK"`
	GSI1SK           string `dynamodbav:"GSI1SK"`
	EntityType       string `dynamodbav:"EntityType"`
	LinkID           string `dynamodbav:"LinkID"`
	SourceExerciseID string `dynamodbav:"SourceExerciseID"`
	TargetExerciseID string `dynamodbav:"TargetExerciseID"`
	LinkType         string `dynamodbav:"LinkType"`
	DisplayOrder     int    `dynamodbav:"DisplayOrder"`
	IsActive         bool   `dynamodbav:"IsActive"`
	CreatedAt        string `dynamodbav:"CreatedAt"`
	UpdatedAt        string `dynamodbav:"UpdatedAt"`
}

// LinkRepository implements ports.LinkStore on a single DynamoDB table
type LinkRepository struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(client API, tableName, indexName string, logger *zap.Logger) *LinkRepository {
	if indexName == "" {
		indexName = DefaultLinkIndex
	}
	return &LinkRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

var _ ports.LinkStore = (*LinkRepository)(nil)

func sourcePK(source valueobjects.ExerciseID) string {
	return "EXERCISE#" + source.String()
}

func linkKey(link *entities.ExerciseLink) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sourcePK(link.SourceExerciseID())},
		"SK": &types.AttributeValueMemberS{Value: linkSKPrefix + link.ID().String()},
	}
}

func toItem(link *entities.ExerciseLink) linkItem {
	id := link.ID().String()
	return linkItem{
		PK:               sourcePK(link.SourceExerciseID()),
		SK:               linkSKPrefix + id,
		GSI1PK:           linkSKPrefix + id,
		GSI1SK:           entityTypeLink,
		EntityType:       entityTypeLink,
		LinkID:           id,
		SourceExerciseID: link.SourceExerciseID().String(),
		TargetExerciseID: link.TargetExerciseID().String(),
		LinkType:         link.LinkType().String(),
		DisplayOrder:     link.DisplayOrder(),
		IsActive:         link.IsActive(),
		CreatedAt:        link.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:        link.UpdatedAt().Format(time.RFC3339Nano),
	}
}

func fromItem(item linkItem) (*entities.ExerciseLink, error) {
	id, err := valueobjects.ParseExerciseLinkID(item.LinkID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored link id %q: %w", item.LinkID, err)
	}
	source, err := valueobjects.ParseExerciseID(item.SourceExerciseID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored source id %q: %w", item.SourceExerciseID, err)
	}
	target, err := valueobjects.ParseExerciseID(item.TargetExerciseID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored target id %q: %w", item.TargetExerciseID, err)
	}
	linkType, err := valueobjects.ParseLinkType(item.LinkType)
	if err != nil {
		return nil, fmt.Errorf("invalid stored link type %q: %w", item.LinkType, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored created at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored updated at: %w", err)
	}
	return entities.ReconstructExerciseLink(id, source, target, linkType, item.DisplayOrder, item.IsActive, createdAt, updatedAt), nil
}

func decodeLinks(items []map[string]types.AttributeValue) ([]*entities.ExerciseLink, error) {
	var records []linkItem
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal links: %w", err)
	}
	links := make([]*entities.ExerciseLink, 0, len(records))
	for _, record := range records {
		link, err := fromItem(record)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// queryOutgoing pages through every active link item under source
func (r *LinkRepository) queryOutgoing(ctx context.Context, source valueobjects.ExerciseID, filter expression.ConditionBuilder, projection *expression.ProjectionBuilder) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(sourcePK(source))).
		And(expression.Key("SK").BeginsWith(linkSKPrefix))

	builder := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter)
	if projection != nil {
		builder = builder.WithProjection(*projection)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, repositoryError("query links", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func activeFilter() expression.ConditionBuilder {
	return expression.Name("IsActive").Equal(expression.Value(true))
}

// ExistsLink reports whether an active link with the exact triple exists
func (r *LinkRepository) ExistsLink(ctx context.Context, source, target valueobjects.ExerciseID, linkType valueobjects.LinkType) (bool, error) {
	filter := activeFilter().
		And(expression.Name("TargetExerciseID").Equal(expression.Value(target.String()))).
		And(expression.Name("LinkType").Equal(expression.Value(linkType.String())))

	projection := expression.NamesList(expression.Name("LinkID"))
	items, err := r.queryOutgoing(ctx, source, filter, &projection)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// GetOutgoing returns active links from source ordered by display order
func (r *LinkRepository) GetOutgoing(ctx context.Context, source valueobjects.ExerciseID, linkType *valueobjects.LinkType) ([]*entities.ExerciseLink, error) {
	filter := activeFilter()
	if linkType != nil {
		filter = filter.And(expression.Name("LinkType").Equal(expression.Value(linkType.String())))
	}

	items, err := r.queryOutgoing(ctx, source, filter, nil)
	if err != nil {
		return nil, err
	}
	links, err := decodeLinks(items)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].DisplayOrder() != links[j].DisplayOrder() {
			return links[i].DisplayOrder() < links[j].DisplayOrder()
		}
		return links[i].CreatedAt().Before(links[j].CreatedAt())
	})
	return links, nil
}

// GetAdjacent returns the targets of every active link from source
func (r *LinkRepository) GetAdjacent(ctx context.Context, source valueobjects.ExerciseID) ([]valueobjects.ExerciseID, error) {
	projection := expression.NamesList(expression.Name("TargetExerciseID"))
	items, err := r.queryOutgoing(ctx, source, activeFilter(), &projection)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		TargetExerciseID string `dynamodbav:"TargetExerciseID"`
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal adjacency: %w", err)
	}

	targets := make([]valueobjects.ExerciseID, 0, len(rows))
	for _, row := range rows {
		target, err := valueobjects.ParseExerciseID(row.TargetExerciseID)
		if err != nil {
			return nil, fmt.Errorf("invalid stored target id %q: %w", row.TargetExerciseID, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// AddLink writes a new link item. It fails if the key is already taken.
func (r *LinkRepository) AddLink(ctx context.Context, link *entities.ExerciseLink) (*entities.ExerciseLink, error) {
	item, err := attributevalue.MarshalMap(toItem(link))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal link: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, fmt.Errorf("link already exists: %s", link.ID())
		}
		return nil, repositoryError("put link", err)
	}

	r.logger.Debug("Link saved",
		zap.String("link_id", link.ID().String()),
		zap.String("source_exercise_id", link.SourceExerciseID().String()),
	)
	return link.Copy(), nil
}

// GetByID looks a link up through the link id index. Absent links return nil, nil.
func (r *LinkRepository) GetByID(ctx context.Context, id valueobjects.ExerciseLinkID) (*entities.ExerciseLink, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(linkSKPrefix + id.String()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, repositoryError("get link", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	links, err := decodeLinks(out.Items[:1])
	if err != nil {
		return nil, err
	}
	return links[0], nil
}

// UpdateLink writes the mutable fields of an existing link
func (r *LinkRepository) UpdateLink(ctx context.Context, link *entities.ExerciseLink) (*entities.ExerciseLink, error) {
	update := expression.Set(expression.Name("DisplayOrder"), expression.Value(link.DisplayOrder())).
		Set(expression.Name("IsActive"), expression.Value(link.IsActive())).
		Set(expression.Name("UpdatedAt"), expression.Value(link.UpdatedAt().Format(time.RFC3339Nano)))
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       linkKey(link),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, fmt.Errorf("link not found: %s", link.ID())
		}
		return nil, repositoryError("update link", err)
	}

	var record linkItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}
	return fromItem(record)
}

// DeleteLink removes a link and reports whether it existed
func (r *LinkRepository) DeleteLink(ctx context.Context, id valueobjects.ExerciseLinkID) (bool, error) {
	link, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if link == nil {
		return false, nil
	}

	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          linkKey(link),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, repositoryError("delete link", err)
	}
	return len(out.Attributes) > 0, nil
}

// GetMostUsed scans every active link and ranks (target, type) pairs by frequency
func (r *LinkRepository) GetMostUsed(ctx context.Context, count int) ([]*entities.ExerciseLink, error) {
	if count <= 0 {
		return []*entities.ExerciseLink{}, nil
	}

	filter := expression.Name("EntityType").Equal(expression.Value(entityTypeLink)).And(activeFilter())
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var links []*entities.ExerciseLink
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, repositoryError("scan links", err)
		}
		page, err := decodeLinks(out.Items)
		if err != nil {
			return nil, err
		}
		links = append(links, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	// Scan order is arbitrary; the oldest link represents its group
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt().Before(links[j].CreatedAt())
	})
	return services.RankMostUsed(links, count), nil
}
