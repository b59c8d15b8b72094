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

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    api
	tableName string
}

func NewNotificationRepo(client api, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.NotificationRecord) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, parishID, notificationID string) (*domain.NotificationRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldParishID, parishID, fieldNotificationID, notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.NotificationRecord
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByParish returns every record of a parish, newest first.
func (r *NotificationRepo) ListByParish(ctx context.Context, parishID string) ([]domain.NotificationRecord, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("parish_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: parishID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	var records []domain.NotificationRecord
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.NotificationRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	return records, nil
}

// UpdateContent rewrites the mutable content fields of an existing record.
// The publish timestamp is never part of the expression.
func (r *NotificationRepo) UpdateContent(ctx context.Context, parishID, notificationID string, in domain.NotificationInput) error {
	updates := map[string]interface{}{
		fieldTitle:     in.Title,
		fieldMessage:   in.Message,
		fieldType:      string(in.Type),
		fieldUpdatedAt: time.Now().UTC(),
	}
	remove := ""
	if in.ImageURL != nil {
		updates[fieldImageURL] = *in.ImageURL
	} else {
		remove = " REMOVE #img"
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	if remove != "" {
		ue.Names["#img"] = fieldImageURL
	}
	ue.Names["#pk"] = fieldParishID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldParishID, parishID, fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr + remove),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *NotificationRepo) Delete(ctx context.Context, parishID, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldParishID, parishID, fieldNotificationID, notificationID),
	})
	return err
}
