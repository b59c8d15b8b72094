package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/parishpush/internal/domain"
)

// ReceiptRepo stores read receipts keyed by (user_id, notification_id).
type ReceiptRepo struct {
	client    api
	tableName string
	now       func() time.Time
}

func NewReceiptRepo(client api, tableName string) *ReceiptRepo {
	return &ReceiptRepo{client: client, tableName: tableName, now: time.Now}
}

// MarkRead records the receipt once. A receipt that already exists keeps its
// original read_at and the call succeeds.
func (r *ReceiptRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	item, err := attributevalue.MarshalMap(domain.ReadReceipt{
		UserID:         userID,
		NotificationID: notificationID,
		ReadAt:         r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#nid)"),
		ExpressionAttributeNames: map[string]string{"#nid": fieldNotificationID},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}

// ReadIDs returns the set of notification ids the user has read.
func (r *ReceiptRepo) ReadIDs(ctx context.Context, userID string) (map[string]bool, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ProjectionExpression:   aws.String("#nid"),
		ExpressionAttributeNames: map[string]string{
			"#nid": fieldNotificationID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	read := make(map[string]bool)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item[fieldNotificationID].(*types.AttributeValueMemberS); ok {
				read[v.Value] = true
			}
		}
	}
	return read, nil
}
