package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/parishpush/internal/domain"
)

// FollowerRepo reads the user -> followed parish association.
type FollowerRepo struct {
	client    api
	tableName string
}

func NewFollowerRepo(client api, tableName string) *FollowerRepo {
	return &FollowerRepo{client: client, tableName: tableName}
}

func (r *FollowerRepo) Put(ctx context.Context, f *domain.ParishFollower) error {
	item, err := attributevalue.MarshalMap(f)
	if err != nil {
		return fmt.Errorf("marshal follower: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ParishOf returns the parish the user follows, or domain.ErrNotFound.
func (r *FollowerRepo) ParishOf(ctx context.Context, userID string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("follower not found: %w", domain.ErrNotFound)
	}
	var f domain.ParishFollower
	if err := attributevalue.UnmarshalMap(out.Item, &f); err != nil {
		return "", err
	}
	return f.ParishID, nil
}

// ListUserIDs queries the parish_id GSI for every follower of a parish.
func (r *FollowerRepo) ListUserIDs(ctx context.Context, parishID string) ([]string, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexParishID),
		KeyConditionExpression: aws.String("parish_id = :pid"),
		ProjectionExpression:   aws.String(fieldUserID),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: parishID},
		},
	})
	var ids []string
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item[fieldUserID].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
	}
	return ids, nil
}
