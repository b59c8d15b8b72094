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

// SubscriptionRepo stores push subscriptions keyed by (user_id, endpoint).
type SubscriptionRepo struct {
	client    api
	tableName string
}

func NewSubscriptionRepo(client api, tableName string) *SubscriptionRepo {
	return &SubscriptionRepo{client: client, tableName: tableName}
}

// Put writes the subscription; an existing item with the same endpoint is overwritten.
func (r *SubscriptionRepo) Put(ctx context.Context, s *domain.PushSubscription) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Delete removes the subscription. Deleting a missing key is not an error in DynamoDB.
func (r *SubscriptionRepo) Delete(ctx context.Context, userID, endpoint string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldUserID, userID, fieldEndpoint, endpoint),
	})
	return err
}

func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	subs := []domain.PushSubscription{}
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.PushSubscription
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		subs = append(subs, page...)
	}
	return subs, nil
}
